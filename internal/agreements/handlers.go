package agreements

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"homeshow/internal/auth"
	"homeshow/internal/logs"
	"homeshow/internal/models"
	"homeshow/internal/notify"
	"homeshow/internal/repo"
)

type Handler struct {
	store      *repo.AgreementStore
	users      *repo.UserStore
	dispatcher *notify.Dispatcher
	baseURL    string // база публичной ссылки для SMS-приглашения
}

func NewHandler(store *repo.AgreementStore, users *repo.UserStore, dispatcher *notify.Dispatcher, baseURL string) *Handler {
	return &Handler{store: store, users: users, dispatcher: dispatcher, baseURL: baseURL}
}

func (h *Handler) publicLink(tok string) string {
	return strings.TrimRight(h.baseURL, "/") + "?token=" + tok
}

// clientIP — адрес клиента с учётом прокси.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func pathID(r *http.Request) uint {
	n, _ := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(n)
}

// -------- Домен владельца --------

type createRequest struct {
	ClientName    string `json:"client_name"`
	ClientPhone   string `json:"client_phone"`
	ClientEmail   string `json:"client_email"`
	MeetingType   string `json:"meeting_type"`
	State         string `json:"state"`
	AgreementText string `json:"agreement_text"`
}

// POST /api/agreements
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json body", nil)
		return
	}
	for _, f := range []string{req.ClientName, req.ClientPhone, req.MeetingType, req.State, req.AgreementText} {
		if strings.TrimSpace(f) == "" {
			models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "missing required fields", nil)
			return
		}
	}

	a, err := h.store.Create(r.Context(), uid, repo.CreateAgreementInput{
		ClientName:    req.ClientName,
		ClientPhone:   req.ClientPhone,
		ClientEmail:   req.ClientEmail,
		MeetingType:   req.MeetingType,
		State:         req.State,
		AgreementText: req.AgreementText,
	})
	if err != nil {
		logs.Logger.Errorf("agreements: create: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	logs.Logger.Infof("agreements: created id=%d owner=%d client=%q", a.ID, uid, a.ClientName)

	// SMS-приглашение: исход — информационно в теле ответа,
	// сбой доставки создание не отменяет.
	sms := h.sendInvite(r, uid, a)
	if sms.Sent {
		a.Status = models.StatusSent
	}

	models.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Agreement created successfully",
		"agreement": map[string]any{
			"id":             a.ID,
			"security_token": a.SecurityToken,
			"expires_at":     a.ExpiresAt,
			"status":         a.Status,
		},
		"sms": sms,
	})
}

func (h *Handler) sendInvite(r *http.Request, uid uint, a *models.Agreement) notify.Result {
	realtor, err := h.users.FindByID(r.Context(), uid)
	if err != nil {
		logs.Logger.Errorf("agreements: invite: realtor lookup: %v", err)
		return notify.Result{Sent: false, Error: "realtor lookup failed"}
	}
	res := h.dispatcher.SendNow(r.Context(), notify.Notice{
		UserID:      uid,
		AgreementID: a.ID,
		Kind:        models.NotifyAgreementInvite,
		To:          a.ClientPhone,
		Body:        notify.InviteBody(a.ClientName, realtor.Profile().Name, h.publicLink(a.SecurityToken)),
		Payload: map[string]any{
			"type":        models.NotifyAgreementInvite,
			"agreementId": a.ID,
			"clientName":  a.ClientName,
		},
	})
	if res.Sent {
		if err := h.store.MarkSent(r.Context(), a.ID); err != nil {
			logs.Logger.Errorf("agreements: mark sent id=%d: %v", a.ID, err)
		}
	}
	return res
}

// GET /api/agreements/user
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r)
	list, err := h.store.ListByOwner(r.Context(), uid)
	if err != nil {
		logs.Logger.Errorf("agreements: list owner=%d: %v", uid, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	out := make([]models.AgreementSummary, 0, len(list))
	for i := range list {
		out = append(out, list[i].Summary())
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"agreements": out})
}

// GET /api/agreements/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r)
	a, err := h.store.FindByOwnerAndID(r.Context(), uid, pathID(r))
	if err == repo.ErrNotFound {
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "agreement not found", nil)
		return
	}
	if err != nil {
		logs.Logger.Errorf("agreements: get owner=%d: %v", uid, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"agreement": a.Detail()})
}

type statusRequest struct {
	Status string `json:"status"`
}

// PUT /api/agreements/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r)

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "status is required", nil)
		return
	}
	st, err := models.ParseStatus(req.Status)
	if err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), nil)
		return
	}

	a, err := h.store.UpdateStatus(r.Context(), uid, pathID(r), st)
	switch err {
	case nil:
	case repo.ErrNotFound:
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "agreement not found", nil)
		return
	case repo.ErrBadTransition:
		models.WriteProblem(w, http.StatusConflict, "Conflict", "status transition not allowed", nil)
		return
	default:
		logs.Logger.Errorf("agreements: update status owner=%d: %v", uid, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"message":   "Agreement status updated",
		"agreement": map[string]any{"id": a.ID, "status": a.Status},
	})
}

// DELETE /api/agreements/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r)
	a, err := h.store.DeleteByOwner(r.Context(), uid, pathID(r))
	if err == repo.ErrNotFound {
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "agreement not found", nil)
		return
	}
	if err != nil {
		logs.Logger.Errorf("agreements: delete owner=%d: %v", uid, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	logs.Logger.Infof("agreements: deleted id=%d owner=%d", a.ID, uid)
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"message":   "Agreement deleted successfully",
		"agreement": map[string]any{"id": a.ID},
	})
}

// POST /api/agreements/{id}/send-sms — повторная отправка приглашения.
func (h *Handler) SendSMS(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r)
	a, err := h.store.FindByOwnerAndID(r.Context(), uid, pathID(r))
	if err == repo.ErrNotFound {
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "agreement not found", nil)
		return
	}
	if err != nil {
		logs.Logger.Errorf("agreements: send sms owner=%d: %v", uid, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}

	sms := h.sendInvite(r, uid, a)
	msg := "SMS sent successfully"
	if !sms.Sent {
		msg = "Failed to send SMS"
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"message": msg, "sms": sms})
}

// -------- Публичный домен (токен — единственная «валюта» доступа) --------

// GET /api/agreements/public/{token}
func (h *Handler) PublicGet(w http.ResponseWriter, r *http.Request) {
	tok := mux.Vars(r)["token"]
	a, err := h.store.FindByToken(r.Context(), tok)
	if err == repo.ErrNotFound {
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "agreement not found or expired", nil)
		return
	}
	if err != nil {
		logs.Logger.Errorf("agreements: public get: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}

	realtor, err := h.users.FindByID(r.Context(), a.UserID)
	if err != nil {
		logs.Logger.Errorf("agreements: public get: realtor lookup: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"agreement": a.Public(),
		"realtor":   realtor.Profile(),
	})
}

// POST /api/agreements/public/{token}/view
func (h *Handler) PublicView(w http.ResponseWriter, r *http.Request) {
	tok := mux.Vars(r)["token"]
	a, err := h.store.MarkViewed(r.Context(), tok, clientIP(r), r.UserAgent())
	if err == repo.ErrNotFound {
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "agreement not found or expired", nil)
		return
	}
	if err != nil {
		logs.Logger.Errorf("agreements: public view: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}

	h.notifyOwner(r, a, models.NotifyAgreementViewed, notify.ViewedBody(a.ClientName))
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"message":   "Agreement marked as viewed",
		"agreement": map[string]any{"id": a.ID, "viewed_at": a.ViewedAt},
	})
}

type signRequest struct {
	SignatureData string `json:"signature_data"`
}

// POST /api/agreements/public/{token}/sign
func (h *Handler) PublicSign(w http.ResponseWriter, r *http.Request) {
	tok := mux.Vars(r)["token"]

	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.SignatureData) == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "signature data is required", nil)
		return
	}

	a, err := h.store.Sign(r.Context(), tok, req.SignatureData)
	switch err {
	case nil:
	case repo.ErrNotFound:
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "agreement not found or expired", nil)
		return
	case repo.ErrAlreadySigned:
		models.WriteProblem(w, http.StatusConflict, "Conflict", "agreement already signed", nil)
		return
	case repo.ErrNotViewed:
		models.WriteProblem(w, http.StatusConflict, "Conflict", "agreement must be viewed before signing", nil)
		return
	default:
		logs.Logger.Errorf("agreements: public sign: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	logs.Logger.Infof("agreements: signed id=%d", a.ID)

	h.notifyOwner(r, a, models.NotifyAgreementSigned, notify.SignedBody(a.ClientName))
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"message":   "Agreement signed successfully",
		"agreement": map[string]any{"id": a.ID, "signed_at": a.SignedAt, "status": a.Status},
	})
}

// notifyOwner ставит уведомление риелтору в очередь; ответ клиенту
// его судьбы не ждёт.
func (h *Handler) notifyOwner(r *http.Request, a *models.Agreement, kind, body string) {
	realtor, err := h.users.FindByID(r.Context(), a.UserID)
	if err != nil || realtor.Phone == "" {
		return
	}
	h.dispatcher.Enqueue(notify.Notice{
		UserID:      a.UserID,
		AgreementID: a.ID,
		Kind:        kind,
		To:          realtor.Phone,
		Body:        body,
		Payload: map[string]any{
			"type":        kind,
			"agreementId": a.ID,
			"clientName":  a.ClientName,
		},
	})
}
