package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"homeshow/internal/logs"
	"homeshow/internal/models"
)

func TestMain(m *testing.M) {
	logs.Init(logs.Options{Level: "error"})
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string // получатели в порядке доставки
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func testNotice() Notice {
	return Notice{
		UserID:      1,
		AgreementID: 10,
		Kind:        models.NotifyAgreementSigned,
		To:          "555-0199",
		Body:        SignedBody("Jane Doe"),
		Payload:     map[string]any{"agreementId": 10},
	}
}

func TestSendNow(t *testing.T) {
	db := newTestDB(t)
	fs := &fakeSender{}
	d := NewDispatcher(fs, db, 4)
	defer d.Close()

	res := d.SendNow(context.Background(), testNotice())
	if !res.Sent || res.MessageID == "" {
		t.Fatalf("Result = %+v, want sent with message id", res)
	}

	var rec models.Notification
	if err := db.First(&rec).Error; err != nil {
		t.Fatalf("journal row: %v", err)
	}
	if rec.Status != models.NotifySent || rec.Kind != models.NotifyAgreementSigned {
		t.Errorf("journal row = status %s kind %s", rec.Status, rec.Kind)
	}
}

func TestSendNowFailure(t *testing.T) {
	db := newTestDB(t)
	fs := &fakeSender{err: errors.New("carrier rejected")}
	d := NewDispatcher(fs, db, 4)
	defer d.Close()

	res := d.SendNow(context.Background(), testNotice())
	if res.Sent {
		t.Fatal("failed delivery reported as sent")
	}
	if res.Error == "" {
		t.Fatal("error detail missing from result")
	}

	var rec models.Notification
	if err := db.First(&rec).Error; err != nil {
		t.Fatalf("journal row: %v", err)
	}
	if rec.Status != models.NotifyFailed || rec.Error == "" {
		t.Errorf("journal row = status %s error %q", rec.Status, rec.Error)
	}
}

func TestEnqueueDeliversBeforeClose(t *testing.T) {
	db := newTestDB(t)
	fs := &fakeSender{}
	d := NewDispatcher(fs, db, 4)

	d.Enqueue(testNotice())
	d.Enqueue(testNotice())
	d.Close() // дожидается воркера

	fs.mu.Lock()
	n := len(fs.sent)
	fs.mu.Unlock()
	if n != 2 {
		t.Fatalf("delivered %d notices, want 2", n)
	}

	var count int64
	if err := db.Model(&models.Notification{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("journal rows = %d, want 2", count)
	}
}
