package queue

import (
	"errors"
	"testing"
)

func TestCursorMovement(t *testing.T) {
	q := New([]string{"a.mov", "b.mov", "c.mov"})

	if q.Current().Path != "a.mov" {
		t.Fatalf("Current() = %q, want a.mov", q.Current().Path)
	}
	if q.Previous() {
		t.Fatal("expected Previous() to fail at start")
	}
	if q.Next().Path != "b.mov" {
		t.Fatalf("Next() = %q, want b.mov", q.Next().Path)
	}
	if !q.Advance() || !q.Advance() {
		t.Fatal("expected two advances")
	}
	if q.Advance() {
		t.Fatal("expected Advance() to fail at end")
	}
	if q.Next() != nil {
		t.Fatal("expected no next job at end")
	}
	if q.CurrentIndex() != 2 || q.Len() != 3 {
		t.Fatalf("index/len = %d/%d, want 2/3", q.CurrentIndex(), q.Len())
	}
}

func TestSetStateKeepsErrorOnlyForFailures(t *testing.T) {
	q := New([]string{"a.mov", "b.mov"})
	boom := errors.New("boom")

	q.SetState(0, Failed, boom)
	if q.Job(0).Err != boom {
		t.Fatalf("Err = %v, want boom", q.Job(0).Err)
	}
	q.SetState(0, Done, boom)
	if q.Job(0).Err != nil {
		t.Fatalf("Err = %v, want nil after Done", q.Job(0).Err)
	}
	q.SetState(5, Done, nil)

	q.SetState(1, Analyzing, nil)
	if q.Count(Done) != 1 || q.Count(Analyzing) != 1 || q.Count(Pending) != 0 {
		t.Fatalf("counts = %d done, %d analyzing", q.Count(Done), q.Count(Analyzing))
	}
	if Analyzing.String() != "analyzing" {
		t.Fatalf("String() = %q", Analyzing.String())
	}
}

func TestEmptyQueue(t *testing.T) {
	q := New(nil)
	if q.Current() != nil || q.Advance() {
		t.Fatal("expected empty queue to have no current job")
	}
	q.SetTitle(0, "x")
}
