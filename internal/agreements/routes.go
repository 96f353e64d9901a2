package agreements

import (
	"net/http"

	"github.com/gorilla/mux"

	"homeshow/internal/auth"
)

// RegisterRoutes вешает оба домена доверия поверх одного ресурса:
// публичный (только токен) и владельческий (bearer + фильтр по user_id).
func RegisterRoutes(r *mux.Router, h *Handler, t *auth.Tokens) {
	// Публичный домен: токен в пути — единственная проверка.
	// Невалидный формат токена отдаёт 404 ещё на роутинге.
	pub := r.PathPrefix("/api/agreements/public").Subrouter()
	pub.HandleFunc("/{token:[a-f0-9]{64}}", h.PublicGet).Methods(http.MethodGet)
	pub.HandleFunc("/{token:[a-f0-9]{64}}/view", h.PublicView).Methods(http.MethodPost)
	pub.HandleFunc("/{token:[a-f0-9]{64}}/sign", h.PublicSign).Methods(http.MethodPost)

	// Домен владельца.
	priv := r.PathPrefix("/api/agreements").Subrouter()
	priv.Use(auth.Required(t))
	priv.HandleFunc("", h.Create).Methods(http.MethodPost)
	priv.HandleFunc("/user", h.List).Methods(http.MethodGet)
	priv.HandleFunc("/{id:[0-9]+}", h.GetByID).Methods(http.MethodGet)
	priv.HandleFunc("/{id:[0-9]+}/status", h.UpdateStatus).Methods(http.MethodPut)
	priv.HandleFunc("/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
	priv.HandleFunc("/{id:[0-9]+}/send-sms", h.SendSMS).Methods(http.MethodPost)
}
