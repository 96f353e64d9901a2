package models

import (
	"time"
)

// Agreement — консультационное соглашение риелтора с клиентом.
// SecurityToken — единственный способ доступа без аутентификации,
// действует до ExpiresAt.
type Agreement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`

	ClientName  string `gorm:"size:255;not null" json:"client_name"`
	ClientPhone string `gorm:"size:64;not null" json:"client_phone"`
	ClientEmail string `gorm:"size:255" json:"client_email,omitempty"`

	MeetingType string `gorm:"size:255;not null" json:"meeting_type"`
	State       string `gorm:"size:64;not null" json:"state"`
	// Снимок юридического текста на момент создания; не изменяется.
	AgreementText string `gorm:"type:text;not null" json:"agreement_text"`

	SecurityToken string    `gorm:"uniqueIndex;size:64;not null" json:"security_token"`
	Status        Status    `gorm:"size:32;not null" json:"status"`
	ExpiresAt     time.Time `gorm:"index;not null" json:"expires_at"`

	ViewedAt      *time.Time `json:"viewed_at,omitempty"`
	SignedAt      *time.Time `json:"signed_at,omitempty"`
	ClientIP      string     `gorm:"size:64" json:"-"`
	UserAgent     string     `gorm:"size:512" json:"-"`
	SignatureData string     `gorm:"type:text" json:"-"`
}

// AgreementSummary — строка дашборда риелтора.
type AgreementSummary struct {
	ID          uint       `json:"id"`
	ClientName  string     `json:"client_name"`
	ClientPhone string     `json:"client_phone"`
	MeetingType string     `json:"meeting_type"`
	State       string     `json:"state"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	SignedAt    *time.Time `json:"signed_at,omitempty"`
}

func (a *Agreement) Summary() AgreementSummary {
	return AgreementSummary{
		ID:          a.ID,
		ClientName:  a.ClientName,
		ClientPhone: a.ClientPhone,
		MeetingType: a.MeetingType,
		State:       a.State,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		ExpiresAt:   a.ExpiresAt,
		SignedAt:    a.SignedAt,
	}
}

// AgreementDetail — полная карточка для владельца, включая данные визита.
// Только для домена владельца: в публичных ответах этих полей нет.
type AgreementDetail struct {
	Agreement
	ClientIP      string `json:"client_ip,omitempty"`
	UserAgent     string `json:"user_agent,omitempty"`
	SignatureData string `json:"signature_data,omitempty"`
}

func (a *Agreement) Detail() AgreementDetail {
	return AgreementDetail{
		Agreement:     *a,
		ClientIP:      a.ClientIP,
		UserAgent:     a.UserAgent,
		SignatureData: a.SignatureData,
	}
}

// AgreementPublic — проекция для доступа по токену.
// Никаких полей владельца и служебных полей визитов (client_ip, user_agent).
type AgreementPublic struct {
	ID            uint      `json:"id"`
	ClientName    string    `json:"client_name"`
	MeetingType   string    `json:"meeting_type"`
	State         string    `json:"state"`
	AgreementText string    `json:"agreement_text"`
	ExpiresAt     time.Time `json:"expires_at"`
	Status        Status    `json:"status"`
}

func (a *Agreement) Public() AgreementPublic {
	return AgreementPublic{
		ID:            a.ID,
		ClientName:    a.ClientName,
		MeetingType:   a.MeetingType,
		State:         a.State,
		AgreementText: a.AgreementText,
		ExpiresAt:     a.ExpiresAt,
		Status:        a.Status,
	}
}
