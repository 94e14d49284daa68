package book

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

// Search handles GET /books.
// Facets (distinct genres/authors, totals) ride along in meta so the
// presentation layer can build its filter bar from one call.
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := Query{
		Title:         query.Get("title"),
		Genre:         query.Get("genre"),
		Author:        query.Get("author"),
		AvailableOnly: query.Get("available") == "1" || query.Get("available") == "true",
	}

	books, err := h.service.Search(r.Context(), params)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	facets, err := h.service.Facets(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, books, map[string]interface{}{
		"genres":    facets.Genres,
		"authors":   facets.Authors,
		"total":     facets.Total,
		"available": facets.Available,
	})
}

// GetByID handles GET /books/{id}.
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !httpx.ValidID(id) {
		httpx.Error(w, r, apperr.NotFound("book", id))
		return
	}

	b, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

type upsertBookReq struct {
	Title       string  `json:"title" validate:"required,max=300"`
	Author      string  `json:"author" validate:"required,max=200"`
	Genre       string  `json:"genre" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=5000"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	CoverURL    *string `json:"cover_url"`
}

// Create handles POST /books (admin).
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertBookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", details)
		return
	}

	b := Book{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
		Quantity:    req.Quantity,
		CoverURL:    req.CoverURL,
	}
	if err := h.service.Create(r.Context(), &b); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, b)
}

// Update handles PUT /books/{id} (admin).
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !httpx.ValidID(id) {
		httpx.Error(w, r, apperr.NotFound("book", id))
		return
	}

	var req upsertBookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", details)
		return
	}

	b := Book{
		ID:          id,
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
		Quantity:    req.Quantity,
		CoverURL:    req.CoverURL,
	}
	if err := h.service.Update(r.Context(), &b); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Delete handles DELETE /books/{id} (admin).
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !httpx.ValidID(id) {
		httpx.Error(w, r, apperr.NotFound("book", id))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}
