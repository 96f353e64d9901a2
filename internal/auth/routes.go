package auth

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes вешает публичные и защищённые ручки аутентификации.
func RegisterRoutes(r *mux.Router, h *Handler, t *Tokens) {
	pub := r.PathPrefix("/api/auth").Subrouter()
	pub.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	pub.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	priv := r.PathPrefix("/api/auth").Subrouter()
	priv.Use(Required(t))
	priv.HandleFunc("/profile", h.Profile).Methods(http.MethodGet)
}
