package agents

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_CreateAndResolve(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	a, err := svc.Create(context.Background(), CreateAgentInput{
		OwningUserID:        "u1",
		Name:                "Receptionist",
		GreetingMessage:     "Welcome",
		AssignedPhoneNumber: "+1777",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == "" || a.Status != AgentStatusActive {
		t.Fatalf("unexpected agent: %+v", a)
	}

	got, err := svc.Resolve(context.Background(), "+1777")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != a.ID || got.GreetingMessage != "Welcome" {
		t.Fatalf("unexpected resolution: %+v", got)
	}
}

func TestService_ResolveMissReturnsNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.Resolve(context.Background(), "+10000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ResolveIsExactMatch(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if _, err := svc.Create(context.Background(), CreateAgentInput{
		OwningUserID:        "u1",
		Name:                "A",
		AssignedPhoneNumber: "+15557654321",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), "+1555765432"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("prefix must not match, got %v", err)
	}
}

func TestService_DisabledAgentDoesNotResolve(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	a, err := svc.Create(context.Background(), CreateAgentInput{
		OwningUserID:        "u1",
		Name:                "A",
		AssignedPhoneNumber: "+1777",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(context.Background(), UpdateAgentInput{
		OwningUserID: "u1",
		ID:           a.ID,
		Status:       AgentStatusDisabled,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), "+1777"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("disabled agent must not resolve, got %v", err)
	}
}

func TestService_DuplicateNumberOldestWins(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	older := Agent{
		ID:                  "a-old",
		OwningUserID:        "u1",
		Name:                "old",
		AssignedPhoneNumber: "+1777",
		Status:              AgentStatusActive,
		CreatedAt:           time.Unix(1000, 0),
	}
	newer := older
	newer.ID = "a-new"
	newer.CreatedAt = time.Unix(2000, 0)
	_ = repo.Create(context.Background(), newer)
	_ = repo.Create(context.Background(), older)

	got, err := svc.Resolve(context.Background(), "+1777")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != "a-old" {
		t.Fatalf("expected oldest agent to win, got %q", got.ID)
	}
}

func TestService_ListIsOwnerScoped(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if _, err := svc.Create(context.Background(), CreateAgentInput{OwningUserID: "u1", Name: "A", AssignedPhoneNumber: "+1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateAgentInput{OwningUserID: "u2", Name: "B", AssignedPhoneNumber: "+2"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "A" {
		t.Fatalf("expected only u1's agents, got %+v", list)
	}
}
