// ABOUTME: Tests for the SQLite and in-memory store implementations
// ABOUTME: Covers session CRUD, OAuth flow consumption, and stale record cleanup

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// implementations runs fn against every Store implementation.
func implementations(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestNewSQLiteStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.CreateSession(ctx, testSession("s1", time.Now())); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := store.GetSession(ctx, "s1"); err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
}

func TestNewSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := first.CreateSession(ctx, testSession("persisted", time.Now())); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	first.Close()

	second, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	defer second.Close()

	if _, err := second.GetSession(ctx, "persisted"); err != nil {
		t.Errorf("session lost across reopen: %v", err)
	}
}

func testSession(id string, now time.Time) *Session {
	now = now.UTC().Truncate(time.Second)
	return &Session{
		ID:              id,
		UserID:          "user-" + id,
		Email:           id + "@example.com",
		AccessToken:     "access-" + id,
		RefreshToken:    "refresh-" + id,
		AccessExpiresAt: now.Add(time.Hour),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestSessionCRUD(t *testing.T) {
	implementations(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := testSession("abc", time.Now())

		if err := s.CreateSession(ctx, want); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}

		got, err := s.GetSession(ctx, "abc")
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if got.UserID != want.UserID || got.Email != want.Email {
			t.Errorf("identity mismatch: got %+v", got)
		}
		if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
			t.Errorf("tokens mismatch: got %q/%q", got.AccessToken, got.RefreshToken)
		}
		if !got.AccessExpiresAt.Equal(want.AccessExpiresAt) {
			t.Errorf("AccessExpiresAt = %v, want %v", got.AccessExpiresAt, want.AccessExpiresAt)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
		}

		updated := *got
		updated.AccessToken = "access-2"
		updated.RefreshToken = "refresh-2"
		updated.AccessExpiresAt = want.AccessExpiresAt.Add(time.Hour)
		updated.UpdatedAt = want.UpdatedAt.Add(time.Minute)
		if err := s.UpdateSession(ctx, &updated); err != nil {
			t.Fatalf("UpdateSession failed: %v", err)
		}

		got, err = s.GetSession(ctx, "abc")
		if err != nil {
			t.Fatalf("GetSession after update failed: %v", err)
		}
		if got.AccessToken != "access-2" || got.RefreshToken != "refresh-2" {
			t.Errorf("tokens not updated: %q/%q", got.AccessToken, got.RefreshToken)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("CreatedAt changed on update: %v", got.CreatedAt)
		}

		if err := s.DeleteSession(ctx, "abc"); err != nil {
			t.Fatalf("DeleteSession failed: %v", err)
		}
		if _, err := s.GetSession(ctx, "abc"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("GetSession after delete: err = %v, want ErrSessionNotFound", err)
		}
		if err := s.DeleteSession(ctx, "abc"); err != nil {
			t.Errorf("deleting twice should not fail: %v", err)
		}
	})
}

func TestGetSession_NotFound(t *testing.T) {
	implementations(t, func(t *testing.T, s Store) {
		_, err := s.GetSession(context.Background(), "nonexistent")
		if !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("err = %v, want ErrSessionNotFound", err)
		}
	})
}

func TestUpdateSession_NotFound(t *testing.T) {
	implementations(t, func(t *testing.T, s Store) {
		err := s.UpdateSession(context.Background(), testSession("ghost", time.Now()))
		if !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("err = %v, want ErrSessionNotFound", err)
		}
	})
}

func TestDeleteSessionsBefore(t *testing.T) {
	implementations(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Now()

		if err := s.CreateSession(ctx, testSession("old", now.Add(-48*time.Hour))); err != nil {
			t.Fatal(err)
		}
		if err := s.CreateSession(ctx, testSession("fresh", now)); err != nil {
			t.Fatal(err)
		}

		n, err := s.DeleteSessionsBefore(ctx, now.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("DeleteSessionsBefore failed: %v", err)
		}
		if n != 1 {
			t.Errorf("deleted %d sessions, want 1", n)
		}
		if _, err := s.GetSession(ctx, "old"); !errors.Is(err, ErrSessionNotFound) {
			t.Error("old session should be gone")
		}
		if _, err := s.GetSession(ctx, "fresh"); err != nil {
			t.Errorf("fresh session should remain: %v", err)
		}
	})
}

func TestOAuthFlow_ConsumedOnce(t *testing.T) {
	implementations(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		flow := &OAuthFlow{
			State:        "state-1",
			Provider:     "github",
			CodeVerifier: "verifier-1",
			RedirectTo:   "/chat",
			CreatedAt:    time.Now().UTC().Truncate(time.Second),
		}
		if err := s.CreateOAuthFlow(ctx, flow); err != nil {
			t.Fatalf("CreateOAuthFlow failed: %v", err)
		}

		got, err := s.ConsumeOAuthFlow(ctx, "state-1")
		if err != nil {
			t.Fatalf("ConsumeOAuthFlow failed: %v", err)
		}
		if got.Provider != "github" || got.CodeVerifier != "verifier-1" || got.RedirectTo != "/chat" {
			t.Errorf("flow mismatch: %+v", got)
		}
		if !got.CreatedAt.Equal(flow.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, flow.CreatedAt)
		}

		if _, err := s.ConsumeOAuthFlow(ctx, "state-1"); !errors.Is(err, ErrFlowNotFound) {
			t.Errorf("second consume: err = %v, want ErrFlowNotFound", err)
		}
	})
}

func TestDeleteOAuthFlowsBefore(t *testing.T) {
	implementations(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Now().UTC()

		for state, created := range map[string]time.Time{
			"stale": now.Add(-time.Hour),
			"live":  now,
		} {
			err := s.CreateOAuthFlow(ctx, &OAuthFlow{State: state, Provider: "google", CodeVerifier: "v", CreatedAt: created})
			if err != nil {
				t.Fatal(err)
			}
		}

		n, err := s.DeleteOAuthFlowsBefore(ctx, now.Add(-10*time.Minute))
		if err != nil {
			t.Fatalf("DeleteOAuthFlowsBefore failed: %v", err)
		}
		if n != 1 {
			t.Errorf("deleted %d flows, want 1", n)
		}
		if _, err := s.ConsumeOAuthFlow(ctx, "live"); err != nil {
			t.Errorf("live flow should remain: %v", err)
		}
	})
}

func TestSession_NeedsRefresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{AccessExpiresAt: now.Add(5 * time.Minute)}

	if s.NeedsRefresh(now, time.Minute) {
		t.Error("token with 5m left should not need refresh at 1m skew")
	}
	if !s.NeedsRefresh(now, 5*time.Minute) {
		t.Error("token expiring exactly at skew should need refresh")
	}
	if !s.NeedsRefresh(now.Add(time.Hour), 0) {
		t.Error("expired token should need refresh")
	}
}
