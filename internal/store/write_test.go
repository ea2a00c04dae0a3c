package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/modelq/internal/ir"
)

func TestCreateSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created, err := s.CreateSession(ctx, "s1", 1)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if !created {
		t.Error("first CreateSession() should report created")
	}

	created, err = s.CreateSession(ctx, "s1", 7)
	if err != nil {
		t.Fatalf("second CreateSession() failed: %v", err)
	}
	if created {
		t.Error("second CreateSession() should not report created")
	}

	sess, err := s.ReadSession(ctx, "s1")
	if err != nil {
		t.Fatalf("ReadSession() failed: %v", err)
	}
	if sess.CreatedSeq != 1 {
		t.Errorf("CreatedSeq = %d, want 1 (first write wins)", sess.CreatedSeq)
	}
}

func TestCreateSession_EmptyID(t *testing.T) {
	s := createTestStore(t)
	if _, err := s.CreateSession(context.Background(), "", 1); err == nil {
		t.Error("expected error for empty session id")
	}
}

func TestPutValue_Upserts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustCreateSession(t, s, "s1", 1)

	if err := s.PutValue(ctx, "s1", "modelq.runtime.model", "a.yaml"); err != nil {
		t.Fatalf("PutValue() failed: %v", err)
	}
	if err := s.PutValue(ctx, "s1", "modelq.runtime.model", "b.yaml"); err != nil {
		t.Fatalf("second PutValue() failed: %v", err)
	}

	got, ok, err := s.GetValue(ctx, "s1", "modelq.runtime.model")
	if err != nil {
		t.Fatalf("GetValue() failed: %v", err)
	}
	if !ok || got != "b.yaml" {
		t.Errorf("GetValue() = %q, %v; want %q, true", got, ok, "b.yaml")
	}
}

func TestPutValue_UnknownSession(t *testing.T) {
	s := createTestStore(t)

	err := s.PutValue(context.Background(), "missing", "k", "v")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("PutValue() error = %v, want ErrSessionNotFound", err)
	}
}

func TestAppendQuery_ComputesID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustCreateSession(t, s, "s1", 1)

	spec := `{"condition1":{"attribute":"name","comparator":"starts with","kind":"string","value":"Project"}}`
	rec, err := s.AppendQuery(ctx, QueryRecord{
		SessionID:   "s1",
		TypeName:    "Project",
		SpecJSON:    spec,
		ResultCount: 1,
		Seq:         2,
	})
	if err != nil {
		t.Fatalf("AppendQuery() failed: %v", err)
	}

	want := ir.MustQueryID("s1", "Project", spec, 2)
	if rec.ID != want {
		t.Errorf("ID = %q, want %q", rec.ID, want)
	}
}

func TestAppendQuery_DefaultsSpec(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustCreateSession(t, s, "s1", 1)

	rec, err := s.AppendQuery(ctx, QueryRecord{SessionID: "s1", TypeName: "Task", Seq: 2})
	if err != nil {
		t.Fatalf("AppendQuery() failed: %v", err)
	}
	if rec.SpecJSON != "{}" {
		t.Errorf("SpecJSON = %q, want {}", rec.SpecJSON)
	}
}

func TestAppendQuery_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustCreateSession(t, s, "s1", 1)

	rec := QueryRecord{SessionID: "s1", TypeName: "Task", ResultCount: 2, Seq: 2}
	for i := 0; i < 3; i++ {
		if _, err := s.AppendQuery(ctx, rec); err != nil {
			t.Fatalf("AppendQuery() iteration %d failed: %v", i, err)
		}
	}

	log, err := s.ReadQueryLog(ctx, "s1")
	if err != nil {
		t.Fatalf("ReadQueryLog() failed: %v", err)
	}
	if len(log) != 1 {
		t.Errorf("query log has %d records, want 1", len(log))
	}
}

func TestAppendQuery_UnknownSession(t *testing.T) {
	s := createTestStore(t)

	_, err := s.AppendQuery(context.Background(), QueryRecord{SessionID: "missing", TypeName: "Task", Seq: 1})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("AppendQuery() error = %v, want ErrSessionNotFound", err)
	}
}
