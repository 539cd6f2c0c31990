package creative

import (
	"context"
	"log"
	"net/http"

	"creative-gateway/modules/common/config"
	"creative-gateway/modules/common/model"
)

// ProgressSink receives poll progress for display purposes. Headless
// callers leave it nil.
type ProgressSink interface {
	PublishProgress(requestID string, attempt, maxPolls int, status string)
	PublishTerminal(requestID string, status string)
}

// Archiver stores a finished creative image. Archive failures must never
// affect the workflow outcome.
type Archiver interface {
	Archive(ctx context.Context, requestID, imageURL string)
}

// Service - the caller-facing workflow: submit once, poll an outstanding
// image job to a terminal state, reconcile.
type Service struct {
	cfg       *config.Config
	submitter *Submitter
	poller    *Poller
	progress  ProgressSink
	archiver  Archiver
}

func NewService(cfg *config.Config, progress ProgressSink, archiver Archiver) *Service {
	return &Service{
		cfg:       cfg,
		submitter: NewSubmitter(cfg),
		poller:    NewPoller(cfg),
		progress:  progress,
		archiver:  archiver,
	}
}

// GenerateCreative - runs the full workflow and returns the final,
// reconciled response. Every failure path yields a well-formed response;
// the returned status code is the submission status code.
func (s *Service) GenerateCreative(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, int) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return &model.GenerationResponse{
			Success: false,
			Error:   err.Error(),
		}, http.StatusBadRequest
	}

	resp, statusCode := s.submitter.Submit(ctx, req)

	if !needsPolling(resp, statusCode) {
		return resp, statusCode
	}

	requestID := resp.Creative.RequestID
	log.Printf("🔄 [Creative] Image generation started, polling for result (request: %s)", requestID)

	outcome := PollUntilTerminal(ctx, requestID, s.poller.PollImage, PollConfig{
		MaxPolls: s.cfg.MaxPolls,
		Interval: s.cfg.PollInterval,
		OnProgress: func(attempt int, status string) {
			if s.progress != nil {
				s.progress.PublishProgress(requestID, attempt, s.cfg.MaxPolls, status)
			}
		},
	})

	resp = Reconcile(resp, outcome)

	// Subscribers learn polling ended even when the outcome degraded
	if s.progress != nil {
		s.progress.PublishTerminal(requestID, resp.Status)
	}

	if resp.Status == model.StatusImageGenerated && s.archiver != nil {
		s.archiver.Archive(ctx, requestID, resp.Creative.ImageURL)
	}

	return resp, statusCode
}

// FallbackImageURL - the placeholder for a degraded success: the
// request-supplied one when present, the configured default otherwise.
func (s *Service) FallbackImageURL(req *model.GenerationRequest) string {
	if req != nil && req.Options.FallbackImageURL != "" {
		return req.Options.FallbackImageURL
	}
	return s.cfg.FallbackImageURL
}

// needsPolling - an asynchronous image job is outstanding
func needsPolling(resp *model.GenerationResponse, statusCode int) bool {
	return statusCode == http.StatusOK &&
		resp != nil &&
		resp.Success &&
		resp.Status == model.StatusImagePolling &&
		resp.Creative != nil &&
		resp.Creative.RequestID != ""
}
