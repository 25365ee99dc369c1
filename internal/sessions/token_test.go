package sessions

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	codec, err := NewTokenCodec("test-secret")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	token, err := codec.Issue("user-7", "lumacms.admin", false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	userID, err := codec.Parse(token, "lumacms.admin")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if userID != "user-7" {
		t.Fatalf("unexpected subject %q", userID)
	}
}

func TestParseRejectsWrongScheme(t *testing.T) {
	codec, _ := NewTokenCodec("test-secret")
	token, err := codec.Issue("user-7", "lumacms.admin", false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// A token issued for one user area must never authenticate another.
	if _, err := codec.Parse(token, "lumacms.members"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := issued
	codec, _ := NewTokenCodec("test-secret", WithCodecClock(func() time.Time { return clock }))

	token, err := codec.Issue("user-7", "lumacms.admin", false)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock = issued.Add(13 * time.Hour)
	if _, err := codec.Parse(token, "lumacms.admin"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestPersistentTokenOutlivesSessionToken(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := issued
	codec, _ := NewTokenCodec("test-secret", WithCodecClock(func() time.Time { return clock }))

	token, err := codec.Issue("user-7", "lumacms.admin", true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock = issued.Add(7 * 24 * time.Hour)
	if _, err := codec.Parse(token, "lumacms.admin"); err != nil {
		t.Fatalf("remember-me token should still be valid: %v", err)
	}
}

func TestMemoryStoreIsolatesAreas(t *testing.T) {
	s := NewMemoryStore()
	ctx := t.Context()

	if err := s.Set(ctx, "ADM", "token-a", false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "MEM", "token-b", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Clear(ctx, "ADM"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if tok, _ := s.Get(ctx, "ADM"); tok != "" {
		t.Fatalf("ADM session should be gone")
	}
	if tok, _ := s.Get(ctx, "MEM"); tok != "token-b" {
		t.Fatalf("MEM session should be untouched, got %q", tok)
	}
}
