package service

import (
	"context"
	"testing"

	"github.com/roster-scheduler/backend/internal/apperr"
)

func register(t *testing.T, env *testEnv, email string) *AuthResult {
	t.Helper()
	res, err := env.auth.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  "secret1",
		FirstName: "Alice",
		LastName:  "Liddell",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := register(t, env, "Alice@Example.com")
	if res.Token == "" || res.User.ID == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.User.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized", res.User.Email)
	}

	owner, err := env.auth.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if owner.ID != res.User.ID {
		t.Errorf("Authenticate() owner = %s, want %s", owner.ID, res.User.ID)
	}

	_, err = env.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "secret1", FirstName: "Eve"})
	wantKind(t, err, apperr.KindConflict)

	login, err := env.auth.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.User.ID != res.User.ID {
		t.Errorf("Login() owner = %s, want %s", login.User.ID, res.User.ID)
	}

	_, err = env.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong!"})
	wantKind(t, err, apperr.KindUnauthorized)

	_, err = env.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
	wantKind(t, err, apperr.KindUnauthorized)

	_, err = env.auth.Authenticate(ctx, "garbage")
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestInactiveOwnerRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := register(t, env, "alice@example.com")

	owner, err := env.owners.GetByID(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	owner.Active = false
	if err := env.owners.Update(ctx, owner); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	_, err = env.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
	wantKind(t, err, apperr.KindUnauthorized)

	_, err = env.auth.Authenticate(ctx, res.Token)
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterInput{Email: "bad", Password: "123", FirstName: "A"})
	wantKind(t, err, apperr.KindValidation)

	var appErr *apperr.Error
	if !asAppErr(err, &appErr) || len(appErr.Fields) != 3 {
		t.Fatalf("expected 3 field failures, got %v", err)
	}
}

func TestUpdateProfileAndChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := register(t, env, "alice@example.com")
	register(t, env, "bob@example.com")

	_, err := env.auth.UpdateProfile(ctx, alice.User.ID, ProfileInput{FirstName: "Alice", Email: "bob@example.com"})
	wantKind(t, err, apperr.KindConflict)

	updated, err := env.auth.UpdateProfile(ctx, alice.User.ID, ProfileInput{FirstName: "Alicia", Email: "alicia@example.com"})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.FirstName != "Alicia" || updated.Email != "alicia@example.com" {
		t.Errorf("unexpected profile %+v", updated)
	}

	_, err = env.auth.ChangePassword(ctx, alice.User.ID, ChangePasswordInput{
		ProfileInput:    ProfileInput{FirstName: "Alicia", Email: "alicia@example.com"},
		CurrentPassword: "wrong!",
		NewPassword:     "newsecret",
	})
	wantKind(t, err, apperr.KindValidation)

	if _, err := env.auth.ChangePassword(ctx, alice.User.ID, ChangePasswordInput{
		ProfileInput:    ProfileInput{FirstName: "Alicia", Email: "alicia@example.com"},
		CurrentPassword: "secret1",
		NewPassword:     "newsecret",
	}); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, err := env.auth.Login(ctx, LoginInput{Email: "alicia@example.com", Password: "newsecret"}); err != nil {
		t.Fatalf("Login() with new password error = %v", err)
	}
	_, err = env.auth.Login(ctx, LoginInput{Email: "alicia@example.com", Password: "secret1"})
	wantKind(t, err, apperr.KindUnauthorized)

	me, err := env.auth.Me(ctx, alice.User.ID)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if me.Email != "alicia@example.com" {
		t.Errorf("Me().Email = %q", me.Email)
	}
}
