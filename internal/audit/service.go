package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogCallTransition records a lifecycle transition driven by a provider webhook.
func (s *Service) LogCallTransition(ctx context.Context, agentID, callID, fromStatus, toStatus string) error {
	return s.Append(ctx, Event{
		Type:    EventTypeCallTransition,
		AgentID: agentID,
		CallID:  callID,
		Message: fmt.Sprintf("call %s -> %s", fromStatus, toStatus),
	})
}

// LogLeadExtracted records that a lead was produced from a call transcript.
func (s *Service) LogLeadExtracted(ctx context.Context, agentID, callID, leadID string) error {
	return s.Append(ctx, Event{
		Type:    EventTypeLeadExtracted,
		AgentID: agentID,
		CallID:  callID,
		LeadID:  leadID,
		Message: "lead extracted from transcript",
	})
}

// LogAdminAction records an authenticated admin API action.
func (s *Service) LogAdminAction(ctx context.Context, actorUserID, actorRole, ip, message, agentID, metadata string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeAdminAction,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		AgentID:     agentID,
		Message:     message,
		Metadata:    metadata,
	})
}
