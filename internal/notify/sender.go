package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"homeshow/internal/logs"
)

// Sender — канал доставки: телефон + текст → opaque id сообщения.
type Sender interface {
	Send(ctx context.Context, to, body string) (messageID string, err error)
}

// LogSender — заглушка вместо реального SMS/push-провайдера:
// пишет сообщение в лог и выдаёт фиктивный message id.
type LogSender struct {
	From string // номер-отправитель, попадает только в лог
}

func (s *LogSender) Send(_ context.Context, to, body string) (string, error) {
	id := uuid.NewString()
	logs.Logger.Infof("sms: from=%s to=%s id=%s body=%q", s.From, to, id, body)
	return id, nil
}

// Тексты сообщений.

func InviteBody(clientName, realtorName, link string) string {
	return fmt.Sprintf(
		"Hi %s, %s has sent you a meeting agreement to review and sign. Please click this secure link to access it: %s - HomeShow",
		clientName, realtorName, link)
}

func ViewedBody(clientName string) string {
	return fmt.Sprintf("%s has viewed the agreement. They should sign it soon!", clientName)
}

func SignedBody(clientName string) string {
	return fmt.Sprintf(
		"Great news! %s has signed the agreement. You can view the signed document in your HomeShow dashboard.",
		clientName)
}
