package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/ogurasousui/probation-workflow/internal/platform/config"
)

func newTestManager(now time.Time) *Manager {
	m := NewManager(config.AuthConfig{
		JWTSecret: "test-secret-0123456789",
		Issuer:    "probation-workflow",
		AdminRole: "admin",
	})
	m.now = func() time.Time { return now }
	return m
}

func TestManager_IssueAndAuthenticate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	m := newTestManager(now)

	token, err := m.Issue("manager@example.com", nil, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	actor, err := m.Authenticate("Bearer " + token)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if actor != (probation.Actor{UserID: "manager@example.com"}) {
		t.Fatalf("unexpected actor: %+v", actor)
	}

	adminToken, err := m.Issue("hr@example.com", []string{"viewer", "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	actor, err = m.Authenticate("bearer " + adminToken)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if !actor.Admin {
		t.Fatalf("expected admin actor, got %+v", actor)
	}
}

func TestManager_Authenticate_Rejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	m := newTestManager(now)

	expired, err := m.Issue("taro@example.com", nil, time.Minute)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	later := newTestManager(now.Add(time.Hour))

	other := NewManager(config.AuthConfig{JWTSecret: "another-secret-9876543210", Issuer: "probation-workflow"})
	forged, err := other.Issue("taro@example.com", []string{"admin"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	foreignIssuer := NewManager(config.AuthConfig{JWTSecret: "test-secret-0123456789", Issuer: "someone-else"})
	foreignIssuer.now = func() time.Time { return now }
	foreign, err := foreignIssuer.Issue("taro@example.com", nil, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	unsigned, err := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, Claims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   "taro@example.com",
			Issuer:    "probation-workflow",
			ExpiresAt: jwtv5.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	tests := []struct {
		name    string
		manager *Manager
		header  string
		want    error
	}{
		{name: "empty header", manager: m, header: "", want: ErrMissingToken},
		{name: "wrong scheme", manager: m, header: "Basic abc", want: ErrMissingToken},
		{name: "bearer without token", manager: m, header: "Bearer ", want: ErrMissingToken},
		{name: "expired", manager: later, header: "Bearer " + expired, want: ErrTokenExpired},
		{name: "wrong secret", manager: m, header: "Bearer " + forged, want: ErrInvalidToken},
		{name: "wrong issuer", manager: m, header: "Bearer " + foreign, want: ErrInvalidToken},
		{name: "alg none", manager: m, header: "Bearer " + unsigned, want: ErrInvalidToken},
		{name: "garbage", manager: m, header: "Bearer not.a.token", want: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := tt.manager.Authenticate(tt.header); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestManager_Issue_Invalid(t *testing.T) {
	t.Parallel()

	m := newTestManager(time.Now())
	if _, err := m.Issue(" ", nil, time.Hour); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if _, err := m.Issue("taro@example.com", nil, 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}

func TestActorContext(t *testing.T) {
	t.Parallel()

	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatal("expected no actor in empty context")
	}

	ctx := WithActor(context.Background(), probation.Actor{UserID: "manager@example.com"})
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.UserID != "manager@example.com" {
		t.Fatalf("unexpected actor: %+v %v", actor, ok)
	}
}
