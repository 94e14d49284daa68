package review

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"libraryapi/internal/apperr"
	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type submitReviewReq struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Submit handles POST /books/{id}/reviews.
func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r.Context())
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing identity", nil)
		return
	}

	bookID := chi.URLParam(r, "id")
	if !httpx.ValidID(bookID) {
		httpx.Error(w, r, apperr.NotFound("book", bookID))
		return
	}

	var req submitReviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", details)
		return
	}

	rv, err := h.service.Submit(r.Context(), bookID, userID, req.Rating, req.Comment)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, rv)
}

// List handles GET /books/{id}/reviews. The average rides along in meta.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if !httpx.ValidID(bookID) {
		httpx.Error(w, r, apperr.NotFound("book", bookID))
		return
	}

	reviews, summary, err := h.service.ListForBook(r.Context(), bookID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, reviews, map[string]interface{}{
		"average_rating": summary.Average,
		"review_count":   summary.Count,
	})
}
