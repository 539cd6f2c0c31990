package model

import (
	"fmt"
	"strings"
	"time"
)

// GenerationRequest - body of POST /api/generate-creative
type GenerationRequest struct {
	Profile  Profile  `json:"profile"`
	Product  Product  `json:"product"`
	Options  Options  `json:"options"`
	Metadata Metadata `json:"metadata"`
}

// Profile - identity, social metrics and persona classification
type Profile struct {
	ContactID         string   `json:"contact_id"`
	Email             string   `json:"email"`
	FirstName         string   `json:"firstname"`
	LastName          string   `json:"lastname"`
	Locale            string   `json:"locale"`
	Country           string   `json:"country"`
	City              string   `json:"city"`
	Tags              []string `json:"tags"`
	InterestKeywords  []string `json:"interest_keywords"`
	AgeRange          string   `json:"age_range"`
	Gender            string   `json:"gender"`
	BudgetRange       string   `json:"budget_range"`
	PersonaLabel      string   `json:"persona_label"`
	PersonaConfidence float64  `json:"persona_confidence"`
	Followers         int      `json:"followers"`
	Following         int      `json:"following"`
	PostsCount        int      `json:"posts_count"`
	IsPrivate         bool     `json:"is_private"`
	IsVerified        bool     `json:"is_verified"`
	PreferredCategory string   `json:"preferred_category"`
	PeakHours         string   `json:"peak_hours"`
	CopyTone          string   `json:"copy_tone"`
}

// Product - the item the creative is generated for
type Product struct {
	SKU        string   `json:"sku"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Colorways  []string `json:"colorways"`
	PriceBand  string   `json:"price_band"`
	LaunchType string   `json:"launch_type"`
	BrandName  string   `json:"brand_name"`
	Season     string   `json:"season"`
	Material   string   `json:"material"`
}

// Options - rendering options and the fallback image
type Options struct {
	Aspect           string `json:"aspect"`
	Channel          string `json:"channel"`
	FallbackImageURL string `json:"fallback_image_url"`
	ABVariant        string `json:"ab_variant"`
	StylePreference  string `json:"style_preference"`
	Mood             string `json:"mood"`
	TargetAudience   string `json:"target_audience"`
}

// Metadata - request origin info
type Metadata struct {
	Source      string `json:"source"`
	Timestamp   string `json:"timestamp"`
	Version     string `json:"version"`
	PersonaJSON string `json:"persona_json,omitempty"`
}

// GenerationResponse - body returned by the generation service. Presentation
// is filled in locally at the caller-facing boundary, never by the service.
type GenerationResponse struct {
	Success      bool      `json:"success"`
	Status       string    `json:"status,omitempty"`
	Creative     *Creative `json:"creative,omitempty"`
	Error        string    `json:"error,omitempty"`
	Presentation string    `json:"presentation,omitempty"`
}

// Creative - the generated creative content
type Creative struct {
	RequestID    string        `json:"request_id,omitempty"`
	ImageURL     string        `json:"image_url,omitempty"`
	Copy         *CreativeCopy `json:"copy,omitempty"`
	Persona      string        `json:"persona,omitempty"`
	ColorPalette []string      `json:"color_palette,omitempty"`
	BFLPrompt    string        `json:"bfl_prompt,omitempty"`
}

// CreativeCopy - subject/body copy
type CreativeCopy struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

// PollResult - body returned by GET /api/poll-image/{requestId}
type PollResult struct {
	Status string          `json:"status"`
	Result *PollResultData `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// PollResultData - resolved artifact reference
type PollResultData struct {
	Sample string `json:"sample,omitempty"`
}

// Generation response statuses
const (
	StatusComplete       = "complete"
	StatusImagePolling   = "image_polling"
	StatusImageGenerated = "image_generated"
	StatusError          = "error"
)

// Poll statuses reported by the generation service
const (
	PollStatusPending = "Pending"
	PollStatusReady   = "Ready"
	PollStatusError   = "Error"
	PollStatusFailed  = "Failed"
	PollStatusUnknown = "Unknown"
)

// CreativeJob - creative_jobs table row (async queue mode)
type CreativeJob struct {
	JobID        string              `json:"job_id"`
	JobStatus    string              `json:"job_status"`
	Request      *GenerationRequest  `json:"request"`
	Result       *GenerationResponse `json:"result,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	StartedAt    *time.Time          `json:"started_at,omitempty"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

// Job statuses
const (
	JobStatusPending       = "pending"
	JobStatusProcessing    = "processing"
	JobStatusCompleted     = "completed"
	JobStatusFailed        = "failed"
	JobStatusUserCancelled = "user_cancelled"
)

// SplitList - normalize delimited text into trimmed, non-empty values
func SplitList(raw string) []string {
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// SplitDisplayName - first word becomes firstname, the rest lastname
func SplitDisplayName(displayName string) (string, string) {
	fields := strings.Fields(displayName)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// Validate - required fields for submission
func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Profile.Email) == "" {
		return fmt.Errorf("profile.email is required")
	}
	if strings.TrimSpace(r.Profile.FirstName) == "" {
		return fmt.Errorf("profile display name is required")
	}
	return nil
}

// Normalize - drop empty entries from list fields, fill defaults
func (r *GenerationRequest) Normalize() {
	r.Profile.Tags = cleanList(r.Profile.Tags)
	r.Profile.InterestKeywords = cleanList(r.Profile.InterestKeywords)
	r.Product.Colorways = cleanList(r.Product.Colorways)

	if r.Metadata.Timestamp == "" {
		r.Metadata.Timestamp = time.Now().Format(time.RFC3339)
	}
	if r.Metadata.Version == "" {
		r.Metadata.Version = "2.0"
	}
}

func cleanList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
