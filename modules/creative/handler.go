package creative

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"creative-gateway/modules/common/model"
)

// Handler - synchronous HTTP surface for the creative workflow
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes - route registration
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/creative", h.HandleGenerate).Methods("POST", "OPTIONS")
	log.Println("✅ Creative routes registered: POST /api/creative")
}

// HandleGenerate - POST /api/creative
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req model.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Creative] Invalid request: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(model.GenerationResponse{
			Success:      false,
			Error:        "Invalid request body",
			Presentation: PresentationError,
		})
		return
	}

	resp, statusCode := h.service.GenerateCreative(r.Context(), &req)

	// Presentation boundary: degraded successes get the placeholder image
	ApplyFallback(resp, h.service.FallbackImageURL(&req))

	resp.Presentation = Classify(resp, statusCode)
	log.Printf("🎨 [Creative] Request finished: presentation=%s, status=%s", resp.Presentation, resp.Status)

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
