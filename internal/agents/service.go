package agents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidAgent = errors.New("agents: invalid agent")

// Service validates and persists agent configurations, and resolves the agent
// owning a dialed number for the webhook path.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Resolve returns the single active agent whose assigned number matches the
// dialed number exactly. ErrNotFound when no agent owns the number.
func (s *Service) Resolve(ctx context.Context, toNumber string) (Agent, error) {
	toNumber = strings.TrimSpace(toNumber)
	if toNumber == "" {
		return Agent{}, ErrNotFound
	}
	return s.repo.FindByAssignedNumber(ctx, toNumber)
}

type CreateAgentInput struct {
	OwningUserID        string
	Name                string
	GreetingMessage     string
	AssignedPhoneNumber string
	VoiceID             string
	SystemPrompt        string
	TavusPersonaID      string
	TavusReplicaID      string
}

func (s *Service) Create(ctx context.Context, in CreateAgentInput) (Agent, error) {
	if in.OwningUserID == "" || strings.TrimSpace(in.Name) == "" {
		return Agent{}, ErrInvalidAgent
	}
	if strings.TrimSpace(in.AssignedPhoneNumber) == "" {
		return Agent{}, ErrInvalidAgent
	}

	now := s.clock().UTC()
	a := Agent{
		ID:                  uuid.NewString(),
		OwningUserID:        in.OwningUserID,
		Name:                strings.TrimSpace(in.Name),
		GreetingMessage:     in.GreetingMessage,
		AssignedPhoneNumber: strings.TrimSpace(in.AssignedPhoneNumber),
		VoiceID:             in.VoiceID,
		SystemPrompt:        in.SystemPrompt,
		TavusPersonaID:      in.TavusPersonaID,
		TavusReplicaID:      in.TavusReplicaID,
		Status:              AgentStatusActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Agent{}, err
	}
	return a, nil
}

type UpdateAgentInput struct {
	OwningUserID        string
	ID                  string
	Name                string
	GreetingMessage     string
	AssignedPhoneNumber string
	VoiceID             string
	SystemPrompt        string
	TavusPersonaID      string
	TavusReplicaID      string
	Status              AgentStatus
}

func (s *Service) Update(ctx context.Context, in UpdateAgentInput) (Agent, error) {
	if in.OwningUserID == "" || in.ID == "" {
		return Agent{}, ErrInvalidAgent
	}

	existing, err := s.repo.GetByID(ctx, in.OwningUserID, in.ID)
	if err != nil {
		return Agent{}, err
	}

	if strings.TrimSpace(in.Name) != "" {
		existing.Name = strings.TrimSpace(in.Name)
	}
	if in.GreetingMessage != "" {
		existing.GreetingMessage = in.GreetingMessage
	}
	if strings.TrimSpace(in.AssignedPhoneNumber) != "" {
		existing.AssignedPhoneNumber = strings.TrimSpace(in.AssignedPhoneNumber)
	}
	if in.VoiceID != "" {
		existing.VoiceID = in.VoiceID
	}
	if in.SystemPrompt != "" {
		existing.SystemPrompt = in.SystemPrompt
	}
	if in.TavusPersonaID != "" {
		existing.TavusPersonaID = in.TavusPersonaID
	}
	if in.TavusReplicaID != "" {
		existing.TavusReplicaID = in.TavusReplicaID
	}
	if in.Status != "" {
		if in.Status != AgentStatusActive && in.Status != AgentStatusDisabled {
			return Agent{}, ErrInvalidAgent
		}
		existing.Status = in.Status
	}
	existing.UpdatedAt = s.clock().UTC()

	if err := s.repo.Update(ctx, existing); err != nil {
		return Agent{}, err
	}
	return existing, nil
}

func (s *Service) Get(ctx context.Context, owningUserID, id string) (Agent, error) {
	if owningUserID == "" || id == "" {
		return Agent{}, ErrInvalidAgent
	}
	return s.repo.GetByID(ctx, owningUserID, id)
}

func (s *Service) List(ctx context.Context, owningUserID string) ([]Agent, error) {
	if owningUserID == "" {
		return nil, ErrInvalidAgent
	}
	return s.repo.ListByOwner(ctx, owningUserID)
}

func (s *Service) Delete(ctx context.Context, owningUserID, id string) error {
	if owningUserID == "" || id == "" {
		return ErrInvalidAgent
	}
	return s.repo.Delete(ctx, owningUserID, id)
}
