package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/gorm"

	"homeshow/internal/logs"
	"homeshow/internal/models"
)

// Notice — одно уведомление к доставке.
type Notice struct {
	UserID      uint
	AgreementID uint
	Kind        string // models.NotifyAgreement*
	To          string
	Body        string
	Payload     map[string]any
}

// Result — исход доставки; отдаётся в теле ответа информационно,
// на код ответа не влияет.
type Result struct {
	Sent      bool   `json:"sent"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Dispatcher доставляет уведомления best-effort: очередь с фоновым
// воркером, переполнение — drop с предупреждением в логе. Сбой доставки
// никогда не откатывает переход статуса.
type Dispatcher struct {
	sender Sender
	db     *gorm.DB

	queue chan Notice
	wg    sync.WaitGroup
	once  sync.Once
}

func NewDispatcher(sender Sender, db *gorm.DB, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		sender: sender,
		db:     db,
		queue:  make(chan Notice, queueSize),
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for n := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		d.deliver(ctx, n)
		cancel()
	}
}

// Enqueue не блокирует вызывающего и не возвращает ошибок.
func (d *Dispatcher) Enqueue(n Notice) {
	select {
	case d.queue <- n:
	default:
		logs.Logger.Warnf("notify: queue full, dropping kind=%s agreement=%d", n.Kind, n.AgreementID)
	}
}

// SendNow — синхронная доставка для случаев, когда исход нужен
// в теле ответа (SMS-приглашение при создании соглашения).
func (d *Dispatcher) SendNow(ctx context.Context, n Notice) Result {
	return d.deliver(ctx, n)
}

// Close дожидается доставки того, что уже в очереди.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, n Notice) Result {
	id, err := d.sender.Send(ctx, n.To, n.Body)

	rec := models.Notification{
		UserID:      n.UserID,
		AgreementID: n.AgreementID,
		Channel:     models.ChannelSMS,
		Kind:        n.Kind,
		Status:      models.NotifySent,
		MessageID:   id,
		Body:        n.Body,
	}
	if n.Payload != nil {
		if raw, merr := json.Marshal(n.Payload); merr == nil {
			rec.Payload = raw
		}
	}

	res := Result{Sent: true, MessageID: id}
	if err != nil {
		logs.Logger.Errorf("notify: send kind=%s agreement=%d: %v", n.Kind, n.AgreementID, err)
		rec.Status = models.NotifyFailed
		rec.Error = err.Error()
		res = Result{Sent: false, Error: err.Error()}
	}

	if d.db != nil {
		if derr := d.db.WithContext(ctx).Create(&rec).Error; derr != nil {
			logs.Logger.Errorf("notify: journal write: %v", derr)
		}
	}
	return res
}
