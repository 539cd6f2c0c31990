package creative

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"creative-gateway/modules/common/config"
	"creative-gateway/modules/common/model"
)

// OutcomeState - terminal state of a polling loop
type OutcomeState string

const (
	OutcomeSucceeded OutcomeState = "succeeded"
	OutcomeFailed    OutcomeState = "failed"
	OutcomeTimedOut  OutcomeState = "timed_out"
	OutcomeCancelled OutcomeState = "cancelled"
)

// PollOutcome - result of driving a job to a terminal state
type PollOutcome struct {
	State    OutcomeState
	ImageURL string // resolved artifact, empty when the job produced none
	Error    string
	Attempts int
}

// PollFunc - one poll attempt against the status endpoint
type PollFunc func(ctx context.Context, requestID string) (*model.PollResult, error)

// PollConfig - loop knobs. MaxPolls is the sole hard upper bound; it holds
// even when Interval is zero.
type PollConfig struct {
	MaxPolls int
	Interval time.Duration

	// OnProgress receives (attempt, latest raw status) per attempt. Pure
	// observation, no control authority. Nil is fine.
	OnProgress func(attempt int, status string)
}

// Poller - queries the poll endpoint for an outstanding image job
type Poller struct {
	endpoint   string
	httpClient *http.Client
}

func NewPoller(cfg *config.Config) *Poller {
	return &Poller{
		endpoint: cfg.PollAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// PollImage - GET /api/poll-image/{requestId}. A transport or non-200
// failure returns an error; the loop folds it into a retry.
func (p *Poller) PollImage(ctx context.Context, requestID string) (*model.PollResult, error) {
	url := fmt.Sprintf("%s/%s", p.endpoint, requestID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polling error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read poll response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polling failed: %d", resp.StatusCode)
	}

	var result model.PollResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse poll response: %w", err)
	}

	return &result, nil
}

// PollUntilTerminal - drives a job to Succeeded, Failed, TimedOut or
// Cancelled. Each attempt is independent: a transport error on one poll
// does not abort the loop.
func PollUntilTerminal(ctx context.Context, requestID string, poll PollFunc, cfg PollConfig) PollOutcome {
	maxPolls := cfg.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 20
	}

	log.Printf("⏳ [Poller] Waiting for image %s (max %d attempts, interval %v)", requestID, maxPolls, cfg.Interval)

	for attempt := 1; attempt <= maxPolls; attempt++ {
		result, err := poll(ctx, requestID)

		status := model.PollStatusUnknown
		if err != nil {
			log.Printf("⚠️ [Poller] Attempt %d/%d: %v", attempt, maxPolls, err)
		} else if result != nil && result.Status != "" {
			status = result.Status
		}

		if cfg.OnProgress != nil {
			cfg.OnProgress(attempt, status)
		}

		switch status {
		case model.PollStatusReady:
			sample := ""
			if result.Result != nil {
				sample = result.Result.Sample
			}
			if sample == "" {
				log.Printf("⚠️ [Poller] Image %s ready but no sample returned", requestID)
			} else {
				log.Printf("✅ [Poller] Image %s ready after %d attempts", requestID, attempt)
			}
			return PollOutcome{State: OutcomeSucceeded, ImageURL: sample, Attempts: attempt}

		case model.PollStatusError, model.PollStatusFailed:
			errMsg := result.Error
			if errMsg == "" {
				errMsg = "Unknown error"
			}
			log.Printf("❌ [Poller] Image %s failed on attempt %d: %s", requestID, attempt, errMsg)
			return PollOutcome{State: OutcomeFailed, Error: errMsg, Attempts: attempt}
		}

		// Pending, Unknown or a failed poll call: wait and retry
		if attempt == maxPolls {
			break
		}

		if err := ctx.Err(); err != nil {
			log.Printf("🛑 [Poller] Polling for %s cancelled after %d attempts", requestID, attempt)
			return PollOutcome{State: OutcomeCancelled, Error: err.Error(), Attempts: attempt}
		}

		timer := time.NewTimer(cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("🛑 [Poller] Polling for %s cancelled after %d attempts", requestID, attempt)
			return PollOutcome{State: OutcomeCancelled, Error: ctx.Err().Error(), Attempts: attempt}
		case <-timer.C:
		}
	}

	log.Printf("⏰ [Poller] Image %s still not ready after %d attempts", requestID, maxPolls)
	return PollOutcome{State: OutcomeTimedOut, Attempts: maxPolls}
}
