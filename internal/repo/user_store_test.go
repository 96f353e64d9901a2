package repo

import (
	"context"
	"errors"
	"testing"
)

var sampleUser = CreateUserInput{
	Email:         "jane@realty.example",
	Password:      "hunter22",
	FirstName:     "Jane",
	LastName:      "Realtor",
	Phone:         "555-0199",
	CompanyName:   "Golden Gate Realty",
	LicenseNumber: "CA-12345",
	State:         "California",
}

func TestUserCreateAndAuthenticate(t *testing.T) {
	s := NewUserStore(newTestDB(t))
	ctx := context.Background()

	u, err := s.Create(ctx, sampleUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("user id not allocated")
	}
	if string(u.PasswordHash) == sampleUser.Password {
		t.Fatal("password stored in plain text")
	}

	got, err := s.Authenticate(ctx, sampleUser.Email, sampleUser.Password)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated id = %d, want %d", got.ID, u.ID)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	s := NewUserStore(newTestDB(t))
	ctx := context.Background()

	if _, err := s.Create(ctx, sampleUser); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, sampleUser); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestUserBadCredentials(t *testing.T) {
	s := NewUserStore(newTestDB(t))
	ctx := context.Background()

	if _, err := s.Create(ctx, sampleUser); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// неверный пароль и неизвестный email неразличимы
	if _, err := s.Authenticate(ctx, sampleUser.Email, "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("wrong password: got %v, want ErrBadCredentials", err)
	}
	if _, err := s.Authenticate(ctx, "nobody@realty.example", sampleUser.Password); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("unknown email: got %v, want ErrBadCredentials", err)
	}
}
