package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error for missing type")
	}
}

func TestService_LogCallTransition(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogCallTransition(context.Background(), "agent-1", "CA123", "initiated", "completed"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].Type != EventTypeCallTransition {
		t.Fatalf("expected call_transition, got %q", evs[0].Type)
	}
	if evs[0].CallID != "CA123" || evs[0].AgentID != "agent-1" {
		t.Fatalf("unexpected targets: %+v", evs[0])
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be filled")
	}
}

func TestService_LogAdminActionCapturesActor(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogAdminAction(context.Background(), "u1", "owner", "1.2.3.4", "updated agent", "agent-1", "{}"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].ActorUserID != "u1" || evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected actor captured: %+v", evs[0])
	}
}
