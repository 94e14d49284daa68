package user

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

type registerReq struct {
	Name     string `json:"name" validate:"required,max=100"`
	Surname  string `json:"surname" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password_strength"`
}

type authResp struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Register handles POST /auth/register.
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", details)
		return
	}

	u, token, err := h.service.Register(r.Context(), req.Name, req.Surname, req.Email, req.Password)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, authResp{User: u, Token: token})
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login.
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", details)
		return
	}

	u, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, authResp{User: u, Token: token}, nil)
}

// Me handles GET /me.
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r.Context())
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing identity", nil)
		return
	}

	u, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, u, nil)
}

// List handles GET /admin/users.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, users, nil)
}

type createUserReq struct {
	Name     string `json:"name" validate:"required,max=100"`
	Surname  string `json:"surname" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password_strength"`
	Role     string `json:"role" validate:"required,oneof=student admin"`
}

// Create handles POST /admin/users.
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", details)
		return
	}

	u, err := h.service.CreateByAdmin(r.Context(), req.Name, req.Surname, req.Email, req.Password, req.Role)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, u)
}

type updateUserReq struct {
	Name    string `json:"name" validate:"required,max=100"`
	Surname string `json:"surname" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Role    string `json:"role" validate:"required,oneof=student admin"`
}

// Update handles PUT /admin/users/{id}.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !httpx.ValidID(id) {
		httpx.Error(w, r, apperr.NotFound("user", id))
		return
	}

	var req updateUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", details)
		return
	}

	u := User{
		ID:      id,
		Name:    req.Name,
		Surname: req.Surname,
		Email:   req.Email,
		Role:    req.Role,
	}
	if err := h.service.Update(r.Context(), &u); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, u, nil)
}

// Delete handles DELETE /admin/users/{id}.
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !httpx.ValidID(id) {
		httpx.Error(w, r, apperr.NotFound("user", id))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}
