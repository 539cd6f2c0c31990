package creative

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creative-gateway/modules/common/model"
)

func newTestRouter(service *Service) *mux.Router {
	router := mux.NewRouter()
	NewHandler(service).RegisterRoutes(router)
	return router
}

func postCreative(t *testing.T, router *mux.Router, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/creative", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHandleGenerateAppliesFallback(t *testing.T) {
	fake := &fakeGenerationService{
		submitHandler: pollingSubmitHandler,
		pollHandler: func(w http.ResponseWriter, r *http.Request, call int) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status": "Failed", "error": "model overloaded"}`))
		},
	}
	server := fake.start(t)

	router := newTestRouter(NewService(workflowConfig(server.URL, 20), nil, nil))

	body, err := json.Marshal(testRequest())
	require.NoError(t, err)
	recorder := postCreative(t, router, body)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var resp model.GenerationResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, model.StatusImagePolling, resp.Status)
	assert.Equal(t, PresentationFallback, resp.Presentation)
	require.NotNil(t, resp.Creative)
	assert.Equal(t, "https://fallback/img.png", resp.Creative.ImageURL)
}

func TestHandleGenerateRequestFallbackWins(t *testing.T) {
	fake := &fakeGenerationService{
		submitHandler: pollingSubmitHandler,
		pollHandler: func(w http.ResponseWriter, r *http.Request, call int) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status": "Error"}`))
		},
	}
	server := fake.start(t)

	router := newTestRouter(NewService(workflowConfig(server.URL, 20), nil, nil))

	req := testRequest()
	req.Options.FallbackImageURL = "https://custom/fallback.png"
	body, err := json.Marshal(req)
	require.NoError(t, err)
	recorder := postCreative(t, router, body)

	var resp model.GenerationResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "https://custom/fallback.png", resp.Creative.ImageURL)
}

func TestHandleGenerateGeneratedImageIsKept(t *testing.T) {
	fake := &fakeGenerationService{
		submitHandler: pollingSubmitHandler,
		pollHandler: func(w http.ResponseWriter, r *http.Request, call int) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status": "Ready", "result": {"sample": "https://x/img.png"}}`))
		},
	}
	server := fake.start(t)

	router := newTestRouter(NewService(workflowConfig(server.URL, 20), nil, nil))

	body, err := json.Marshal(testRequest())
	require.NoError(t, err)
	recorder := postCreative(t, router, body)

	var resp model.GenerationResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusImageGenerated, resp.Status)
	assert.Equal(t, PresentationGeneratedWithImage, resp.Presentation)
	assert.Equal(t, "https://x/img.png", resp.Creative.ImageURL)
}

func TestHandleGenerateInvalidBody(t *testing.T) {
	router := newTestRouter(NewService(workflowConfig("http://unused", 20), nil, nil))

	recorder := postCreative(t, router, []byte("{not json"))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp model.GenerationResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid request body", resp.Error)
}

func TestHandleGenerateValidationFailure(t *testing.T) {
	router := newTestRouter(NewService(workflowConfig("http://unused", 20), nil, nil))

	req := testRequest()
	req.Profile.Email = ""
	body, err := json.Marshal(req)
	require.NoError(t, err)
	recorder := postCreative(t, router, body)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp model.GenerationResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "email")
}
