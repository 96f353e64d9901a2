package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"homeshow/internal/models"
)

const ttl = 48 * time.Hour

var sampleInput = CreateAgreementInput{
	ClientName:    "Jane Doe",
	ClientPhone:   "555-0100",
	MeetingType:   "Buyer Consultation",
	State:         "California",
	AgreementText: "The undersigned agrees to meet for a buyer consultation.",
}

func TestCreate(t *testing.T) {
	s, clk := newTestStore(t, ttl, false)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(a.SecurityToken) != 64 {
		t.Errorf("token length = %d, want 64", len(a.SecurityToken))
	}
	if a.Status != models.StatusCreated {
		t.Errorf("status = %s, want created", a.Status)
	}
	if want := clk.Now().Add(ttl); !a.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", a.ExpiresAt, want)
	}
}

func TestCreateTokensUnique(t *testing.T) {
	s, _ := newTestStore(t, ttl, false)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		a, err := s.Create(ctx, 1, sampleInput)
		if err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
		if _, dup := seen[a.SecurityToken]; dup {
			t.Fatalf("duplicate security token at #%d", i)
		}
		seen[a.SecurityToken] = struct{}{}
	}
}

func TestFindByTokenExpiry(t *testing.T) {
	s, clk := newTestStore(t, ttl, false)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// за миллисекунду до истечения — доступно
	clk.Set(a.ExpiresAt.Add(-time.Millisecond))
	if _, err := s.FindByToken(ctx, a.SecurityToken); err != nil {
		t.Fatalf("FindByToken before expiry: %v", err)
	}

	// ровно в момент истечения и после — неотличимо от несуществующего
	clk.Set(a.ExpiresAt)
	if _, err := s.FindByToken(ctx, a.SecurityToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByToken at expiry: got %v, want ErrNotFound", err)
	}
	clk.Set(a.ExpiresAt.Add(time.Millisecond))
	if _, err := s.FindByToken(ctx, a.SecurityToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByToken after expiry: got %v, want ErrNotFound", err)
	}

	// строка при этом никуда не делась — владелец её видит
	if _, err := s.FindByOwnerAndID(ctx, 1, a.ID); err != nil {
		t.Fatalf("owner access after expiry: %v", err)
	}
}

func TestFindByTokenUnknown(t *testing.T) {
	s, _ := newTestStore(t, ttl, false)
	if _, err := s.FindByToken(context.Background(), "deadbeef"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCrossOwnerIsolation(t *testing.T) {
	s, _ := newTestStore(t, ttl, false)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// чужой владелец: везде NotFound, не Forbidden
	if _, err := s.FindByOwnerAndID(ctx, 2, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByOwnerAndID: got %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateStatus(ctx, 2, a.ID, models.StatusSent); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStatus: got %v, want ErrNotFound", err)
	}
	if _, err := s.DeleteByOwner(ctx, 2, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteByOwner: got %v, want ErrNotFound", err)
	}

	// запись жива и доступна настоящему владельцу
	if _, err := s.FindByOwnerAndID(ctx, 1, a.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
}

func TestListByOwnerOrder(t *testing.T) {
	s, clk := newTestStore(t, ttl, false)
	ctx := context.Background()

	first, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	clk.Advance(time.Hour)
	second, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, 2, sampleInput); err != nil {
		t.Fatalf("Create for other owner: %v", err)
	}

	list, err := s.ListByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("order = [%d %d], want newest first [%d %d]", list[0].ID, list[1].ID, second.ID, first.ID)
	}
}

func TestMarkViewedFirstWins(t *testing.T) {
	s, clk := newTestStore(t, ttl, false)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	v1, err := s.MarkViewed(ctx, a.SecurityToken, "203.0.113.7", "Mobile Safari")
	if err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if v1.Status != models.StatusViewed {
		t.Errorf("status = %s, want viewed", v1.Status)
	}
	if v1.ViewedAt == nil || !v1.ViewedAt.Equal(clk.Now()) {
		t.Errorf("viewed_at = %v, want %v", v1.ViewedAt, clk.Now())
	}
	if v1.ClientIP != "203.0.113.7" || v1.UserAgent != "Mobile Safari" {
		t.Errorf("visit fields not captured: ip=%q ua=%q", v1.ClientIP, v1.UserAgent)
	}

	// повторный просмотр — no-op, первый visit сохраняется
	clk.Advance(time.Hour)
	v2, err := s.MarkViewed(ctx, a.SecurityToken, "198.51.100.1", "Chrome")
	if err != nil {
		t.Fatalf("MarkViewed repeat: %v", err)
	}
	if !v2.ViewedAt.Equal(*v1.ViewedAt) {
		t.Errorf("viewed_at changed on repeat view: %v -> %v", v1.ViewedAt, v2.ViewedAt)
	}
	if v2.ClientIP != "203.0.113.7" {
		t.Errorf("client_ip overwritten on repeat view: %q", v2.ClientIP)
	}
}

func TestMarkViewedExpired(t *testing.T) {
	s, clk := newTestStore(t, ttl, false)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	clk.Advance(ttl + time.Second)
	if _, err := s.MarkViewed(ctx, a.SecurityToken, "203.0.113.7", "ua"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSign(t *testing.T) {
	s, clk := newTestStore(t, ttl, false)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// без strict подписать можно и без предварительного view
	signed, err := s.Sign(ctx, a.SecurityToken, "data:image/png;base64,abc")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if signed.Status != models.StatusSigned {
		t.Errorf("status = %s, want signed", signed.Status)
	}
	if signed.SignedAt == nil || !signed.SignedAt.Equal(clk.Now()) {
		t.Errorf("signed_at = %v, want %v", signed.SignedAt, clk.Now())
	}
	if signed.SignatureData != "data:image/png;base64,abc" {
		t.Errorf("signature_data = %q", signed.SignatureData)
	}

	// повторная подпись — конфликт, не перезапись
	firstSignedAt := *signed.SignedAt
	clk.Advance(time.Minute)
	if _, err := s.Sign(ctx, a.SecurityToken, "other"); !errors.Is(err, ErrAlreadySigned) {
		t.Fatalf("second Sign: got %v, want ErrAlreadySigned", err)
	}
	got, err := s.FindByToken(ctx, a.SecurityToken)
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}
	if got.SignatureData != "data:image/png;base64,abc" || !got.SignedAt.Equal(firstSignedAt) {
		t.Errorf("signature overwritten by losing racer")
	}
}

func TestSignExpired(t *testing.T) {
	s, clk := newTestStore(t, ttl, false)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	clk.Advance(ttl + time.Millisecond)
	if _, err := s.Sign(ctx, a.SecurityToken, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSignStrictRequiresView(t *testing.T) {
	s, _ := newTestStore(t, ttl, true)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Sign(ctx, a.SecurityToken, "abc"); !errors.Is(err, ErrNotViewed) {
		t.Fatalf("Sign before view: got %v, want ErrNotViewed", err)
	}
	if _, err := s.MarkViewed(ctx, a.SecurityToken, "203.0.113.7", "ua"); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if _, err := s.Sign(ctx, a.SecurityToken, "abc"); err != nil {
		t.Fatalf("Sign after view: %v", err)
	}
}

func TestMarkSent(t *testing.T) {
	s, _ := newTestStore(t, ttl, false)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.MarkSent(ctx, a.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	got, _ := s.FindByOwnerAndID(ctx, 1, a.ID)
	if got.Status != models.StatusSent {
		t.Fatalf("status = %s, want sent", got.Status)
	}

	// статус уже ушёл дальше — MarkSent больше ничего не трогает
	if _, err := s.Sign(ctx, a.SecurityToken, "abc"); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := s.MarkSent(ctx, a.ID); err != nil {
		t.Fatalf("MarkSent after sign: %v", err)
	}
	got, _ = s.FindByOwnerAndID(ctx, 1, a.ID)
	if got.Status != models.StatusSigned {
		t.Fatalf("MarkSent downgraded status to %s", got.Status)
	}
}

func TestUpdateStatus(t *testing.T) {
	s, _ := newTestStore(t, ttl, false)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	upd, err := s.UpdateStatus(ctx, 1, a.ID, models.StatusSent)
	if err != nil {
		t.Fatalf("UpdateStatus forward: %v", err)
	}
	if upd.Status != models.StatusSent {
		t.Errorf("status = %s, want sent", upd.Status)
	}

	// назад нельзя
	if _, err := s.UpdateStatus(ctx, 1, a.ID, models.StatusCreated); !errors.Is(err, ErrBadTransition) {
		t.Errorf("backward: got %v, want ErrBadTransition", err)
	}
	// signed — терминальное
	if _, err := s.UpdateStatus(ctx, 1, a.ID, models.StatusSigned); err != nil {
		t.Fatalf("to signed: %v", err)
	}
	if _, err := s.UpdateStatus(ctx, 1, a.ID, models.StatusViewed); !errors.Is(err, ErrBadTransition) {
		t.Errorf("signed -> viewed: got %v, want ErrBadTransition", err)
	}
}

func TestDeleteByOwner(t *testing.T) {
	s, _ := newTestStore(t, ttl, false)
	ctx := context.Background()

	a, err := s.Create(ctx, 1, sampleInput)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	deleted, err := s.DeleteByOwner(ctx, 1, a.ID)
	if err != nil {
		t.Fatalf("DeleteByOwner: %v", err)
	}
	if deleted.ID != a.ID {
		t.Errorf("deleted id = %d, want %d", deleted.ID, a.ID)
	}
	if _, err := s.FindByOwnerAndID(ctx, 1, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: got %v, want ErrNotFound", err)
	}
	if _, err := s.FindByToken(ctx, a.SecurityToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("token after delete: got %v, want ErrNotFound", err)
	}
}
