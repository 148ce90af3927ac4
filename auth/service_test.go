package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestService_RegisterAndLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Email:    "alice@example.com",
		Password: "supersafe",
		FullName: "Alice Founder",
	}

	ctx := context.Background()
	profile, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}

	if profile.Email != req.Email {
		t.Fatalf("expected email %q got %q", req.Email, profile.Email)
	}
	if profile.Role != RoleCustomer {
		t.Fatalf("register: expected default role %s got %s", RoleCustomer, profile.Role)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}
	if resp.Profile.ID != profile.ID {
		t.Fatalf("login: expected profile id %q got %q", profile.ID, resp.Profile.ID)
	}

	tokenUserID, tokenRole, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if tokenUserID != profile.ID {
		t.Fatalf("verify token: expected %q got %q", profile.ID, tokenUserID)
	}
	if tokenRole != RoleCustomer {
		t.Fatalf("verify token: expected role %s got %s", RoleCustomer, tokenRole)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "alice@example.com",
		Password: "short",
		FullName: "Alice Founder",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:    "",
		Password: "strongpassword",
		FullName: "",
	})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:    "alice@example.com",
		Password: "strongpassword",
		FullName: "Alice Founder",
		Role:     "superuser",
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestService_ElevatedRolesAllowed(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	for _, role := range []Role{RoleAdmin, RoleOps} {
		profile, err := svc.Register(context.Background(), RegisterRequest{
			Email:    fmt.Sprintf("%s@example.com", role),
			Password: "strongpassword",
			FullName: "Operator",
			Role:     role,
		})
		if err != nil {
			t.Fatalf("register %s: %v", role, err)
		}
		if profile.Role != role {
			t.Fatalf("expected role %s, got %s", role, profile.Role)
		}
	}
}

func TestService_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	req := RegisterRequest{
		Email:    "alice@example.com",
		Password: "strongpassword",
		FullName: "Alice Founder",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "unknown@example.com",
		Password: "irrelevant",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "bob@example.com",
		Password: "strongpassword",
		FullName: "Bob Founder",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "bob@example.com",
		Password: "wrongpassword",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}

func TestService_VerifyToken_WrongSecret(t *testing.T) {
	repo := newFakeRepository()
	issuer := NewService(repo, "secret-a")
	verifier := NewService(repo, "secret-b")

	if _, err := issuer.Register(context.Background(), RegisterRequest{
		Email:    "alice@example.com",
		Password: "strongpassword",
		FullName: "Alice Founder",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	resp, err := issuer.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "strongpassword"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, _, err := verifier.VerifyToken(resp.Token); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}

type fakeRepository struct {
	byEmail map[string]Profile
	byID    map[string]Profile
	nextID  int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byEmail: make(map[string]Profile),
		byID:    make(map[string]Profile),
		nextID:  1,
	}
}

func (f *fakeRepository) CreateProfile(ctx context.Context, params CreateProfileParams) (Profile, error) {
	if _, exists := f.byEmail[strings.ToLower(params.Email)]; exists {
		return Profile{}, ErrDuplicateEmail
	}

	id := fmt.Sprintf("profile-%d", f.nextID)
	f.nextID++

	fullName := params.FullName
	profile := Profile{
		ID:           id,
		Email:        params.Email,
		FullName:     &fullName,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    time.Now().UTC(),
	}

	f.byEmail[strings.ToLower(profile.Email)] = profile
	f.byID[profile.ID] = profile
	return profile, nil
}

func (f *fakeRepository) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	profile, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return profile, nil
}

func (f *fakeRepository) GetProfileByID(ctx context.Context, id string) (Profile, error) {
	profile, ok := f.byID[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return profile, nil
}
