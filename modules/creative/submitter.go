package creative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"creative-gateway/modules/common/config"
	"creative-gateway/modules/common/model"
)

// Submitter - sends a generation request once and returns the immediate
// response. All failures come back as data, never as a Go error.
type Submitter struct {
	endpoint   string
	httpClient *http.Client
}

func NewSubmitter(cfg *config.Config) *Submitter {
	return &Submitter{
		endpoint: cfg.GenerationAPIURL,
		httpClient: &http.Client{
			Timeout: cfg.SubmitTimeout,
		},
	}
}

// Submit - single attempt, no retry. Retry policy, if wanted, belongs to
// the caller.
func (s *Submitter) Submit(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, int) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return &model.GenerationResponse{
			Success: false,
			Error:   fmt.Sprintf("Failed to marshal request: %v", err),
		}, http.StatusInternalServerError
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return &model.GenerationResponse{
			Success: false,
			Error:   fmt.Sprintf("Failed to create request: %v", err),
		}, http.StatusInternalServerError
	}

	httpReq.Header.Set("Content-Type", "application/json")

	log.Printf("🎨 [Submitter] Submitting creative request for %s (sku: %s)", req.Profile.Email, req.Product.SKU)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("❌ [Submitter] Generation API error: %v", err)
		return &model.GenerationResponse{
			Success: false,
			Error:   err.Error(),
		}, http.StatusInternalServerError
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &model.GenerationResponse{
			Success: false,
			Error:   fmt.Sprintf("Failed to read response: %v", err),
		}, http.StatusInternalServerError
	}

	var genResp model.GenerationResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		log.Printf("❌ [Submitter] Non-JSON response (status %d): %s", resp.StatusCode, truncateString(string(bodyBytes), 200))
		return &model.GenerationResponse{
			Success: false,
			Error:   fmt.Sprintf("JSON parse error: %v", err),
		}, resp.StatusCode
	}

	log.Printf("📥 [Submitter] Response: status=%d, success=%v, status_field=%s", resp.StatusCode, genResp.Success, genResp.Status)

	return &genResp, resp.StatusCode
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
