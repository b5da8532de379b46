package ingest

import (
	"context"
	"testing"
)

func TestJobManagerCancel(t *testing.T) {
	jm := NewJobManager()
	ctx, cancel := context.WithCancel(context.Background())
	jm.Register("u1", cancel)

	if !jm.Cancel("u1") {
		t.Fatal("expected cancel to find the job")
	}
	if ctx.Err() == nil {
		t.Fatal("expected context to be cancelled")
	}
	if jm.Cancel("u1") {
		t.Fatal("cancelled job should be unregistered")
	}
}

func TestJobManagerCancelAll(t *testing.T) {
	jm := NewJobManager()
	ctxA, cancelA := context.WithCancel(context.Background())
	ctxB, cancelB := context.WithCancel(context.Background())
	jm.Register("a", cancelA)
	jm.Register("b", cancelB)
	jm.Unregister("b")

	if n := jm.CancelAll(); n != 1 {
		t.Fatalf("expected 1 cancelled job, got %d", n)
	}
	if ctxA.Err() == nil {
		t.Fatal("expected a to be cancelled")
	}
	if ctxB.Err() != nil {
		t.Fatal("unregistered job should not be cancelled")
	}
	cancelB()
}
