package creative

import (
	"fmt"
	"log"
	"net/http"

	"creative-gateway/modules/common/model"
)

// Presentation states consumed by the UI
const (
	PresentationGeneratedWithImage = "generated_with_image"
	PresentationGenerated          = "generated"
	PresentationFallback           = "fallback"
	PresentationError              = "error"
)

// Reconcile - fold a poll outcome into the submission response. Only an
// outstanding image job (status image_polling with a request_id) is touched;
// everything else passes through unchanged.
//
// Poll failures and timeouts are swallowed into a degraded success: the user
// still receives a usable creative, just without the generated image. The
// raw poll error is kept on the response and logged so outages stay visible.
func Reconcile(initial *model.GenerationResponse, outcome PollOutcome) *model.GenerationResponse {
	if initial == nil {
		return nil
	}
	if initial.Status != model.StatusImagePolling || initial.Creative == nil || initial.Creative.RequestID == "" {
		return initial
	}

	switch outcome.State {
	case OutcomeSucceeded:
		if outcome.ImageURL != "" {
			initial.Creative.ImageURL = outcome.ImageURL
			initial.Status = model.StatusImageGenerated
			log.Printf("✅ [Reconciler] Image attached after %d polls", outcome.Attempts)
		} else {
			// Service said ready but returned nothing. Status stays
			// image_polling so presentation falls back.
			log.Printf("⚠️ [Reconciler] Ready with empty artifact after %d polls, fallback expected", outcome.Attempts)
		}

	case OutcomeFailed:
		log.Printf("⚠️ [Reconciler] Image generation failed, degrading to fallback: %s", outcome.Error)
		initial.Error = outcome.Error

	case OutcomeTimedOut:
		log.Printf("⚠️ [Reconciler] Image generation timed out after %d polls, degrading to fallback", outcome.Attempts)
		initial.Error = fmt.Sprintf("Image generation timed out after %d polls", outcome.Attempts)

	case OutcomeCancelled:
		log.Printf("🛑 [Reconciler] Polling cancelled after %d polls, degrading to fallback", outcome.Attempts)
		initial.Error = "Image polling cancelled"
	}

	return initial
}

// ApplyFallback - substitute the placeholder image for a degraded success.
// Presentation-boundary step: the reconciled response itself stays untouched
// until the result is about to be shown or stored.
func ApplyFallback(resp *model.GenerationResponse, fallbackURL string) {
	if resp == nil || !resp.Success || resp.Creative == nil || fallbackURL == "" {
		return
	}
	if resp.Status == model.StatusImagePolling && resp.Creative.ImageURL == "" {
		log.Printf("🖼️ [Reconciler] Using fallback image: %s", fallbackURL)
		resp.Creative.ImageURL = fallbackURL
	}
}

// Classify - map the final response to the presentation state the UI renders
func Classify(resp *model.GenerationResponse, statusCode int) string {
	if resp == nil || statusCode != http.StatusOK || !resp.Success {
		return PresentationError
	}

	switch resp.Status {
	case model.StatusImageGenerated:
		return PresentationGeneratedWithImage
	case model.StatusImagePolling:
		return PresentationFallback
	default:
		return PresentationGenerated
	}
}
