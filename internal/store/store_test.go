package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	apperrors "github.com/tatianab/grave-master/internal/errors"
	"github.com/tatianab/grave-master/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCommitAssignsSequenceIndices(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, prompt := range []string{"north", "take torch", "search room"} {
		got, err := s.Commit(ctx, models.TurnLogEntry{ConversationID: "a", Prompt: prompt, Response: "ok"}, []byte("turns: 1"))
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		if got.SequenceIndex != i {
			t.Errorf("expected index %d, got %d", i, got.SequenceIndex)
		}
	}
	if _, err := s.Append(ctx, models.TurnLogEntry{ConversationID: "b", Prompt: "look", Response: "dark"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := s.QueryAll(ctx, "a")
	if err != nil {
		t.Fatalf("QueryAll failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.SequenceIndex != i {
			t.Errorf("entry %d has index %d", i, e.SequenceIndex)
		}
		if e.CreatedAt.IsZero() {
			t.Errorf("entry %d has no timestamp", i)
		}
	}
	if entries[1].Prompt != "take torch" {
		t.Errorf("unexpected prompt %q", entries[1].Prompt)
	}

	other, _ := s.QueryAll(ctx, "b")
	if len(other) != 1 || other[0].SequenceIndex != 0 {
		t.Errorf("conversations must be indexed independently, got %+v", other)
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LoadState(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.SaveState(ctx, "a", []byte("turns: 0")); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	if _, err := s.Commit(ctx, models.TurnLogEntry{ConversationID: "a", Prompt: "n", Response: "r"}, []byte("turns: 1")); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	state, err := s.LoadState(ctx, "a")
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if string(state) != "turns: 1" {
		t.Errorf("expected committed state, got %q", state)
	}

	convs, err := s.Conversations(ctx)
	if err != nil {
		t.Fatalf("Conversations failed: %v", err)
	}
	if len(convs) != 1 || convs[0].ID != "a" || convs[0].Turns != 1 {
		t.Errorf("unexpected conversations %+v", convs)
	}
}

func TestCommitFailureLeavesNothing(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Commit(ctx, models.TurnLogEntry{ConversationID: "a", Prompt: "n", Response: "r"}, []byte("turns: 1"))
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if !apperrors.IsCode(err, apperrors.CodeStorage) {
		t.Errorf("expected storage error, got %v", err)
	}

	entries, err := s.QueryAll(context.Background(), "a")
	if err != nil {
		t.Fatalf("QueryAll failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
	if _, err := s.LoadState(context.Background(), "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected no state, got %v", err)
	}
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "grave.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.Append(context.Background(), models.TurnLogEntry{ConversationID: "a", Prompt: "n", Response: "r"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.QueryAll(context.Background(), "a")
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected persisted entry, got %d (%v)", len(entries), err)
	}
}
