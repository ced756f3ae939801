package taskstate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aperrin/chatwire/internal/protocol"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLockAndReadBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, ok, err := s.LockedProtocol(ctx, "task-1"); err != nil || ok {
		t.Fatalf("fresh task should have no lock (ok=%v, err=%v)", ok, err)
	}
	if err := s.LockProtocol(ctx, "task-1", protocol.Native); err != nil {
		t.Fatal(err)
	}
	p, ok, err := s.LockedProtocol(ctx, "task-1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || p != protocol.Native {
		t.Errorf("got (%q, %v)", p, ok)
	}
}

func TestFirstLockWins(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.LockProtocol(ctx, "task-1", protocol.TextEmulated); err != nil {
		t.Fatal(err)
	}
	if err := s.LockProtocol(ctx, "task-1", protocol.Native); err != nil {
		t.Fatal(err)
	}
	p, _, err := s.LockedProtocol(ctx, "task-1")
	if err != nil {
		t.Fatal(err)
	}
	if p != protocol.TextEmulated {
		t.Errorf("protocol = %q, want original text lock", p)
	}
}

func TestLockRejectsInvalidProtocol(t *testing.T) {
	s := newStore(t)
	if err := s.LockProtocol(context.Background(), "task-1", "xml2"); err == nil {
		t.Error("expected error for invalid protocol")
	}
}

func TestClearTask(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.LockProtocol(ctx, "task-1", protocol.Native); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearTask(ctx, "task-1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.LockedProtocol(ctx, "task-1"); err != nil || ok {
		t.Errorf("lock should be gone (ok=%v, err=%v)", ok, err)
	}
}

func TestTasksAreIndependent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.LockProtocol(ctx, "task-a", protocol.Native); err != nil {
		t.Fatal(err)
	}
	if err := s.LockProtocol(ctx, "task-b", protocol.TextEmulated); err != nil {
		t.Fatal(err)
	}
	pa, _, _ := s.LockedProtocol(ctx, "task-a")
	pb, _, _ := s.LockedProtocol(ctx, "task-b")
	if pa != protocol.Native || pb != protocol.TextEmulated {
		t.Errorf("got a=%q b=%q", pa, pb)
	}
}
