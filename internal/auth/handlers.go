package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"homeshow/internal/logs"
	"homeshow/internal/models"
	"homeshow/internal/repo"
)

type Handler struct {
	users  *repo.UserStore
	tokens *Tokens
}

func NewHandler(users *repo.UserStore, tokens *Tokens) *Handler {
	return &Handler{users: users, tokens: tokens}
}

type registerRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone"`
	CompanyName   string `json:"company_name"`
	LicenseNumber string `json:"license_number"`
	State         string `json:"state"`
}

// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json body", nil)
		return
	}
	for _, f := range []string{req.Email, req.Password, req.FirstName, req.LastName, req.Phone, req.State} {
		if strings.TrimSpace(f) == "" {
			models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "missing required fields", nil)
			return
		}
	}

	u, err := h.users.Create(r.Context(), repo.CreateUserInput{
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		CompanyName:   req.CompanyName,
		LicenseNumber: req.LicenseNumber,
		State:         req.State,
	})
	if err == repo.ErrEmailTaken {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "user already exists", nil)
		return
	}
	if err != nil {
		logs.Logger.Errorf("auth: register: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}

	tok, err := h.tokens.Issue(u.ID)
	if err != nil {
		logs.Logger.Errorf("auth: issue token: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	logs.Logger.Infof("auth: registered user id=%d email=%s", u.ID, u.Email)
	models.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    u,
		"token":   tok,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json body", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "email and password are required", nil)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err == repo.ErrBadCredentials {
		models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials", nil)
		return
	}
	if err != nil {
		logs.Logger.Errorf("auth: login: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}

	tok, err := h.tokens.Issue(u.ID)
	if err != nil {
		logs.Logger.Errorf("auth: issue token: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	logs.Logger.Infof("auth: login user id=%d email=%s", u.ID, u.Email)
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    u,
		"token":   tok,
	})
}

// GET /api/auth/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserID(r)
	if !ok {
		models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}
	u, err := h.users.FindByID(r.Context(), uid)
	if err == repo.ErrUserNotFound {
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "user not found", nil)
		return
	}
	if err != nil {
		logs.Logger.Errorf("auth: profile: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"user": u})
}
