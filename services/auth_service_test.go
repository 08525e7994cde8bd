package services

import (
	"testing"
	"time"

	"github.com/uchikuch/restaurant-pos-system/entity"
	"github.com/uchikuch/restaurant-pos-system/pkg/apperr"
	"github.com/uchikuch/restaurant-pos-system/repository"
)

func authFixture(t *testing.T) *AuthService {
	t.Helper()
	db := newTestDB(t)
	return NewAuthService(repository.NewUserRepository(db), "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := authFixture(t)

	out, err := svc.Register(&RegisterIn{
		Email:     "jo@example.com",
		Password:  "hunter2hunter2",
		FirstName: "Jo",
		LastName:  "Smith",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if out.Token == "" {
		t.Error("no token issued")
	}
	if out.User.Role != entity.RoleCustomer {
		t.Errorf("role = %q, want customer", out.User.Role)
	}
	if out.User.Password == "hunter2hunter2" {
		t.Error("password stored in plain text")
	}

	if _, err := svc.Register(&RegisterIn{
		Email: "jo@example.com", Password: "x", FirstName: "a", LastName: "b",
	}); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("duplicate email: got %v", err)
	}

	login, err := svc.Login(&LoginIn{Email: "jo@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != out.User.ID {
		t.Error("login returned a different user")
	}

	if _, err := svc.Login(&LoginIn{Email: "jo@example.com", Password: "wrong"}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("bad password: got %v", err)
	}
	if _, err := svc.Login(&LoginIn{Email: "nobody@example.com", Password: "x"}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("unknown email: got %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	svc := authFixture(t)

	out, err := svc.Register(&RegisterIn{
		Email: "off@example.com", Password: "hunter2hunter2", FirstName: "a", LastName: "b",
	})
	if err != nil {
		t.Fatal(err)
	}
	out.User.IsActive = false
	if err := svc.Users.Save(out.User); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(&LoginIn{Email: "off@example.com", Password: "hunter2hunter2"}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("disabled login: got %v", err)
	}
}
