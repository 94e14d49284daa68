package loan

import (
	"encoding/json"
	"net/http"

	"libraryapi/internal/apperr"
	"libraryapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type borrowReq struct {
	BookID string `json:"book_id" validate:"required"`
}

// Borrow handles POST /loans. The borrower is always the authenticated user;
// a user id in the body is ignored so nobody can borrow on someone's behalf.
func (h *HTTPHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r.Context())
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing identity", nil)
		return
	}

	var req borrowReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", details)
		return
	}
	if !httpx.ValidID(req.BookID) {
		httpx.Error(w, r, apperr.NotFound("book", req.BookID))
		return
	}

	l, err := h.service.Borrow(r.Context(), req.BookID, userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, l)
}

type returnReq struct {
	BookID string `json:"book_id" validate:"required"`
}

// Return handles POST /loans/return.
func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r.Context())
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing identity", nil)
		return
	}

	var req returnReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", details)
		return
	}
	if !httpx.ValidID(req.BookID) {
		httpx.Error(w, r, apperr.NotFound("book", req.BookID))
		return
	}

	l, err := h.service.Return(r.Context(), userID, req.BookID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, l, nil)
}

// ListMine handles GET /loans.
func (h *HTTPHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r.Context())
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing identity", nil)
		return
	}

	loans, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, loans, nil)
}

// ListAll handles GET /admin/loans.
func (h *HTTPHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListAll(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, loans, nil)
}

// Stats handles GET /admin/stats.
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, stats, nil)
}
