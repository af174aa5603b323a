package identity

import (
	"context"
	"errors"
	"testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(NewMemoryStore(), testParams())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestService_RegisterAndVerify(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	a, err := svc.Register(ctx, "User@Example.com", "Abcdef12")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if a.ID == "" {
		t.Fatalf("account id must be set")
	}
	if a.Email != "user@example.com" {
		t.Fatalf("email not normalized: %q", a.Email)
	}

	got, err := svc.VerifyCredentials(ctx, "user@example.com", "Abcdef12")
	if err != nil {
		t.Fatalf("VerifyCredentials: %v", err)
	}
	if got.ID != a.ID {
		t.Fatalf("verified wrong account")
	}

	// Lookup is case-insensitive.
	if _, err := svc.VerifyCredentials(ctx, "USER@EXAMPLE.COM", "Abcdef12"); err != nil {
		t.Fatalf("case-insensitive verify: %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Register(ctx, "not-an-email", "Abcdef12"); !IsInvalidInput(err) {
		t.Fatalf("bad email: got %v, want invalid input", err)
	}
	if _, err := svc.Register(ctx, "user@example.com", "weak"); !IsInvalidInput(err) {
		t.Fatalf("weak password: got %v, want invalid input", err)
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Register(ctx, "user@example.com", "Abcdef12"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "USER@example.com", "Abcdef12"); !IsConflict(err) {
		t.Fatalf("duplicate email: got %v, want conflict", err)
	}
}

func TestService_VerifyCredentialsUniformFailure(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Register(ctx, "user@example.com", "Abcdef12"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, errUnknown := svc.VerifyCredentials(ctx, "nobody@example.com", "Abcdef12")
	_, errWrongPw := svc.VerifyCredentials(ctx, "user@example.com", "WrongPass1")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", errUnknown)
	}
	if !errors.Is(errWrongPw, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", errWrongPw)
	}
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	a, err := svc.Register(ctx, "user@example.com", "Abcdef12")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ChangePassword(ctx, a.ID, "WrongOld1", "Newpass12"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong old password: got %v, want ErrInvalidCredentials", err)
	}
	if err := svc.ChangePassword(ctx, a.ID, "Abcdef12", "weak"); !IsInvalidInput(err) {
		t.Fatalf("weak new password: got %v, want invalid input", err)
	}

	if err := svc.ChangePassword(ctx, a.ID, "Abcdef12", "Newpass12"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.VerifyCredentials(ctx, "user@example.com", "Abcdef12"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password after change: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.VerifyCredentials(ctx, "user@example.com", "Newpass12"); err != nil {
		t.Fatalf("new password after change: %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	a, err := svc.Register(ctx, "user@example.com", "Abcdef12")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.VerifyCredentials(ctx, "user@example.com", "Abcdef12"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("verify after delete: got %v, want ErrInvalidCredentials", err)
	}
	if err := svc.Delete(ctx, a.ID); !IsNotFound(err) {
		t.Fatalf("double delete: got %v, want not found", err)
	}

	// Email is free for re-registration.
	if _, err := svc.Register(ctx, "user@example.com", "Abcdef12"); err != nil {
		t.Fatalf("re-register after delete: %v", err)
	}
}
