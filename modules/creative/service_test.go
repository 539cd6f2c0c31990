package creative

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creative-gateway/modules/common/config"
	"creative-gateway/modules/common/model"
)

// fakeGenerationService - httptest stand-in for the remote generation service
type fakeGenerationService struct {
	mu          sync.Mutex
	pollCalls   int
	submitCalls int

	submitHandler func(w http.ResponseWriter, r *http.Request)
	pollHandler   func(w http.ResponseWriter, r *http.Request, call int)
}

func (f *fakeGenerationService) start(t *testing.T) *httptest.Server {
	t.Helper()

	serveMux := http.NewServeMux()
	serveMux.HandleFunc("/api/generate-creative", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.submitCalls++
		f.mu.Unlock()
		f.submitHandler(w, r)
	})
	serveMux.HandleFunc("/api/poll-image/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.pollCalls++
		call := f.pollCalls
		f.mu.Unlock()
		f.pollHandler(w, r, call)
	})

	server := httptest.NewServer(serveMux)
	t.Cleanup(server.Close)
	return server
}

func (f *fakeGenerationService) polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollCalls
}

func workflowConfig(serverURL string, maxPolls int) *config.Config {
	return &config.Config{
		GenerationAPIURL: serverURL + "/api/generate-creative",
		PollAPIURL:       serverURL + "/api/poll-image",
		SubmitTimeout:    2 * time.Second,
		MaxPolls:         maxPolls,
		PollInterval:     time.Millisecond,
		FallbackImageURL: "https://fallback/img.png",
	}
}

func pollingSubmitHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{
		"success": true,
		"status": "image_polling",
		"creative": {
			"request_id": "req-123",
			"copy": {"subject": "New drop", "body": "Just for you"},
			"persona": "LuxuryClassic"
		}
	}`))
}

// recordingSink - collects progress and terminal notifications
type recordingSink struct {
	mu       sync.Mutex
	events   []string
	terminal []string
}

func (s *recordingSink) PublishProgress(requestID string, attempt, maxPolls int, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, status)
}

func (s *recordingSink) PublishTerminal(requestID string, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminal = append(s.terminal, status)
}

func TestGenerateCreativeImageReadyOnThirdPoll(t *testing.T) {
	fake := &fakeGenerationService{
		submitHandler: pollingSubmitHandler,
		pollHandler: func(w http.ResponseWriter, r *http.Request, call int) {
			w.Header().Set("Content-Type", "application/json")
			if call < 3 {
				w.Write([]byte(`{"status": "Pending"}`))
				return
			}
			w.Write([]byte(`{"status": "Ready", "result": {"sample": "https://x/img.png"}}`))
		},
	}
	server := fake.start(t)

	service := NewService(workflowConfig(server.URL, 20), nil, nil)
	resp, statusCode := service.GenerateCreative(context.Background(), testRequest())

	assert.Equal(t, http.StatusOK, statusCode)
	assert.True(t, resp.Success)
	assert.Equal(t, model.StatusImageGenerated, resp.Status)
	assert.Equal(t, "https://x/img.png", resp.Creative.ImageURL)
	assert.Equal(t, 3, fake.polls())
}

func TestGenerateCreativePollFailureDegrades(t *testing.T) {
	fake := &fakeGenerationService{
		submitHandler: pollingSubmitHandler,
		pollHandler: func(w http.ResponseWriter, r *http.Request, call int) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status": "Failed", "error": "model overloaded"}`))
		},
	}
	server := fake.start(t)

	service := NewService(workflowConfig(server.URL, 20), nil, nil)
	resp, statusCode := service.GenerateCreative(context.Background(), testRequest())

	assert.Equal(t, http.StatusOK, statusCode)
	assert.True(t, resp.Success)
	assert.Equal(t, model.StatusImagePolling, resp.Status)
	assert.Empty(t, resp.Creative.ImageURL)
	assert.Equal(t, "model overloaded", resp.Error)
	assert.Equal(t, 1, fake.polls())
}

func TestGenerateCreativeTimeoutRespectsCeiling(t *testing.T) {
	fake := &fakeGenerationService{
		submitHandler: pollingSubmitHandler,
		pollHandler: func(w http.ResponseWriter, r *http.Request, call int) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status": "Pending"}`))
		},
	}
	server := fake.start(t)

	service := NewService(workflowConfig(server.URL, 4), nil, nil)
	resp, statusCode := service.GenerateCreative(context.Background(), testRequest())

	assert.Equal(t, http.StatusOK, statusCode)
	assert.True(t, resp.Success)
	assert.Equal(t, model.StatusImagePolling, resp.Status)
	assert.Equal(t, 4, fake.polls())
}

func TestGenerateCreativeCompleteSkipsPolling(t *testing.T) {
	fake := &fakeGenerationService{
		submitHandler: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"success": true,
				"status": "complete",
				"creative": {"image_url": "https://cdn/x.png"}
			}`))
		},
		pollHandler: func(w http.ResponseWriter, r *http.Request, call int) {
			t.Error("poll endpoint must not be called for a complete response")
		},
	}
	server := fake.start(t)

	service := NewService(workflowConfig(server.URL, 20), nil, nil)
	resp, statusCode := service.GenerateCreative(context.Background(), testRequest())

	assert.Equal(t, http.StatusOK, statusCode)
	assert.Equal(t, model.StatusComplete, resp.Status)
	assert.Equal(t, "https://cdn/x.png", resp.Creative.ImageURL)
	assert.Equal(t, 0, fake.polls())
}

func TestGenerateCreativeSubmissionTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	service := NewService(workflowConfig(url, 20), nil, nil)
	resp, statusCode := service.GenerateCreative(context.Background(), testRequest())

	assert.Equal(t, http.StatusInternalServerError, statusCode)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestGenerateCreativeRejectsInvalidRequest(t *testing.T) {
	service := NewService(workflowConfig("http://unused", 20), nil, nil)

	req := testRequest()
	req.Profile.Email = ""
	resp, statusCode := service.GenerateCreative(context.Background(), req)

	assert.Equal(t, http.StatusBadRequest, statusCode)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "email")
}

func TestGenerateCreativePublishesProgress(t *testing.T) {
	fake := &fakeGenerationService{
		submitHandler: pollingSubmitHandler,
		pollHandler: func(w http.ResponseWriter, r *http.Request, call int) {
			w.Header().Set("Content-Type", "application/json")
			if call == 1 {
				w.Write([]byte(`{"status": "Pending"}`))
				return
			}
			w.Write([]byte(`{"status": "Ready", "result": {"sample": "https://x/img.png"}}`))
		},
	}
	server := fake.start(t)

	sink := &recordingSink{}
	service := NewService(workflowConfig(server.URL, 20), sink, nil)
	service.GenerateCreative(context.Background(), testRequest())

	require.Equal(t, []string{model.PollStatusPending, model.PollStatusReady}, sink.events)
	require.Equal(t, []string{model.StatusImageGenerated}, sink.terminal)
}

func TestGenerateCreativePublishesTerminalOnDegradedOutcome(t *testing.T) {
	fake := &fakeGenerationService{
		submitHandler: pollingSubmitHandler,
		pollHandler: func(w http.ResponseWriter, r *http.Request, call int) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status": "Failed", "error": "model overloaded"}`))
		},
	}
	server := fake.start(t)

	sink := &recordingSink{}
	service := NewService(workflowConfig(server.URL, 20), sink, nil)
	service.GenerateCreative(context.Background(), testRequest())

	// Polling ended without an image; the stream still closes out
	require.Equal(t, []string{model.StatusImagePolling}, sink.terminal)
}

func TestFallbackImageURL(t *testing.T) {
	service := NewService(workflowConfig("http://unused", 20), nil, nil)

	t.Run("request option wins", func(t *testing.T) {
		req := testRequest()
		req.Options.FallbackImageURL = "https://custom/fallback.png"
		assert.Equal(t, "https://custom/fallback.png", service.FallbackImageURL(req))
	})

	t.Run("configured default otherwise", func(t *testing.T) {
		assert.Equal(t, "https://fallback/img.png", service.FallbackImageURL(testRequest()))
	})
}
