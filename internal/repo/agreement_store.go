package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"homeshow/internal/models"
	"homeshow/internal/token"
)

var (
	ErrNotFound      = errors.New("agreement not found")
	ErrAlreadySigned = errors.New("agreement already signed")
	ErrNotViewed     = errors.New("agreement not viewed yet")
	ErrBadTransition = errors.New("invalid status transition")
)

type AgreementStore struct {
	db       *gorm.DB
	tokenTTL time.Duration
	strict   bool // sign только из viewed

	now func() time.Time // подменяется в тестах
}

func NewAgreementStore(db *gorm.DB, tokenTTL time.Duration, strict bool) *AgreementStore {
	return &AgreementStore{
		db:       db,
		tokenTTL: tokenTTL,
		strict:   strict,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateAgreementInput struct {
	ClientName    string
	ClientPhone   string
	ClientEmail   string
	MeetingType   string
	State         string
	AgreementText string
}

// Create выпускает токен, фиксирует окно доступа и сохраняет запись.
func (s *AgreementStore) Create(ctx context.Context, ownerID uint, in CreateAgreementInput) (*models.Agreement, error) {
	tok, err := token.New()
	if err != nil {
		return nil, err
	}
	now := s.now()
	a := models.Agreement{
		UserID:        ownerID,
		ClientName:    in.ClientName,
		ClientPhone:   in.ClientPhone,
		ClientEmail:   in.ClientEmail,
		MeetingType:   in.MeetingType,
		State:         in.State,
		AgreementText: in.AgreementText,
		SecurityToken: tok,
		Status:        models.StatusCreated,
		ExpiresAt:     now.Add(s.tokenTTL),
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// -------- Публичный домен (доступ только по токену) --------

// FindByToken отдаёт соглашение, пока окно доступа не истекло.
// Истёкшая запись неотличима от несуществующей.
func (s *AgreementStore) FindByToken(ctx context.Context, tok string) (*models.Agreement, error) {
	var a models.Agreement
	err := s.db.WithContext(ctx).
		Where("security_token = ? AND expires_at > ?", tok, s.now()).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// MarkViewed фиксирует первый просмотр (viewed_at/client_ip/user_agent
// пишутся один раз); повторный вызов по валидному токену — no-op.
func (s *AgreementStore) MarkViewed(ctx context.Context, tok, clientIP, userAgent string) (*models.Agreement, error) {
	a, err := s.FindByToken(ctx, tok)
	if err != nil {
		return nil, err
	}
	if a.ViewedAt != nil {
		return a, nil
	}

	now := s.now()
	updates := map[string]any{
		"viewed_at":  now,
		"client_ip":  clientIP,
		"user_agent": userAgent,
		"updated_at": now,
	}
	// статус не откатываем, если клиент успел подписать без view
	if a.Status.CanTransition(models.StatusViewed) {
		updates["status"] = models.StatusViewed
	}
	// viewed_at IS NULL — защита от гонки двух первых просмотров
	err = s.db.WithContext(ctx).Model(&models.Agreement{}).
		Where("id = ? AND viewed_at IS NULL", a.ID).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}
	return s.FindByToken(ctx, tok)
}

// Sign записывает подпись ровно один раз: условный UPDATE, проигравший
// гонку получает ErrAlreadySigned, а не молчаливую перезапись.
func (s *AgreementStore) Sign(ctx context.Context, tok, signatureData string) (*models.Agreement, error) {
	now := s.now()
	q := s.db.WithContext(ctx).Model(&models.Agreement{}).
		Where("security_token = ? AND expires_at > ? AND status <> ?", tok, now, models.StatusSigned)
	if s.strict {
		q = q.Where("status = ?", models.StatusViewed)
	}
	res := q.Updates(map[string]any{
		"signed_at":      now,
		"signature_data": signatureData,
		"status":         models.StatusSigned,
		"updated_at":     now,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// различаем: неизвестный/истёкший токен, уже подписано, рано подписывать
		a, err := s.FindByToken(ctx, tok)
		if err != nil {
			return nil, err
		}
		if a.Status == models.StatusSigned {
			return nil, ErrAlreadySigned
		}
		if s.strict {
			return nil, ErrNotViewed
		}
		return nil, ErrAlreadySigned
	}
	return s.FindByToken(ctx, tok)
}

// -------- Домен владельца (все запросы фильтруются по user_id) --------

func (s *AgreementStore) FindByOwnerAndID(ctx context.Context, ownerID, id uint) (*models.Agreement, error) {
	var a models.Agreement
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// чужой id — тоже NotFound, существование не раскрываем
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AgreementStore) ListByOwner(ctx context.Context, ownerID uint) ([]models.Agreement, error) {
	var out []models.Agreement
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// MarkSent продвигает created → sent после успешной отправки SMS.
// Best-effort: если статус уже ушёл дальше, ничего не делаем.
func (s *AgreementStore) MarkSent(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Agreement{}).
		Where("id = ? AND status = ?", id, models.StatusCreated).
		Updates(map[string]any{
			"status":     models.StatusSent,
			"updated_at": s.now(),
		}).Error
}

// UpdateStatus — административная смена статуса владельцем.
// Закрытый enum, только движение вперёд по циклу.
func (s *AgreementStore) UpdateStatus(ctx context.Context, ownerID, id uint, st models.Status) (*models.Agreement, error) {
	a, err := s.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransition(st) {
		return nil, ErrBadTransition
	}
	// условие по текущему статусу — защита от параллельной смены
	res := s.db.WithContext(ctx).Model(&models.Agreement{}).
		Where("id = ? AND user_id = ? AND status = ?", id, ownerID, a.Status).
		Updates(map[string]any{
			"status":     st,
			"updated_at": s.now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrBadTransition
	}
	return s.FindByOwnerAndID(ctx, ownerID, id)
}

func (s *AgreementStore) DeleteByOwner(ctx context.Context, ownerID, id uint) (*models.Agreement, error) {
	a, err := s.FindByOwnerAndID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Agreement{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return a, nil
}
