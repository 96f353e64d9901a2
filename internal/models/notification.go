package models

import (
	"time"

	"gorm.io/datatypes"
)

// Каналы и типы уведомлений.
const (
	ChannelSMS  = "sms"
	ChannelPush = "push"

	NotifyAgreementInvite = "agreement_invite"
	NotifyAgreementViewed = "agreement_viewed"
	NotifyAgreementSigned = "agreement_signed"

	NotifySent   = "sent"
	NotifyFailed = "failed"
)

// Notification — журнал попыток доставки (best-effort, на запрос не влияет).
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID      uint           `gorm:"index" json:"user_id"`
	AgreementID uint           `gorm:"index" json:"agreement_id"`
	Channel     string         `gorm:"size:16;not null" json:"channel"`
	Kind        string         `gorm:"size:64;not null" json:"kind"`
	Status      string         `gorm:"size:16;not null" json:"status"`
	MessageID   string         `gorm:"size:64" json:"message_id,omitempty"`
	Body        string         `gorm:"type:text" json:"body"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
	Error       string         `gorm:"size:512" json:"error,omitempty"`
}
