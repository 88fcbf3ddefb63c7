package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"callagent-platform/internal/audit"
	"callagent-platform/internal/calls"

	"github.com/google/uuid"
)

var ErrInvalidTranscript = errors.New("leads: invalid transcript")

// ErrExtractorUnavailable means no extractor is configured; transcripts cannot
// be processed but the rest of the service (listing) still works.
var ErrExtractorUnavailable = errors.New("leads: extractor not configured")

// Service turns completed transcripts into persisted leads.
//
// The only coupling to the lifecycle tracker is existence: a transcript is
// processed only if a CallRecord is addressable by call_id, so leads always
// reference a real call.
type Service struct {
	repo      Repository
	extractor Extractor
	callStore calls.Store
	audit     *audit.Service
	clock     func() time.Time
}

func NewService(repo Repository, extractor Extractor, callStore calls.Store, auditSvc *audit.Service) *Service {
	return &Service{
		repo:      repo,
		extractor: extractor,
		callStore: callStore,
		audit:     auditSvc,
		clock:     time.Now,
	}
}

// ProcessTranscript extracts a lead from the transcript of the given call and
// persists it. The call record must exist.
func (s *Service) ProcessTranscript(ctx context.Context, callID, transcript string) (Lead, error) {
	if callID == "" || transcript == "" {
		return Lead{}, ErrInvalidTranscript
	}
	if s.extractor == nil {
		return Lead{}, ErrExtractorUnavailable
	}

	rec, err := s.callStore.Get(ctx, callID)
	if err != nil {
		return Lead{}, fmt.Errorf("leads: call lookup failed: %w", err)
	}

	ext, err := s.extractor.Extract(ctx, transcript)
	if err != nil {
		return Lead{}, err
	}

	l := Lead{
		ID:            uuid.NewString(),
		CallID:        rec.CallID,
		AgentID:       rec.AgentID,
		Name:          ext.Name,
		Email:         ext.Email,
		Phone:         ext.Phone,
		Company:       ext.Company,
		InterestScore: ext.InterestScore,
		Summary:       ext.Summary,
		Sentiment:     ext.Sentiment,
		CreatedAt:     s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, l); err != nil {
		return Lead{}, err
	}

	if s.audit != nil {
		if err := s.audit.LogLeadExtracted(ctx, l.AgentID, l.CallID, l.ID); err != nil {
			slog.Default().Warn("audit append failed", "lead_id", l.ID, "err", err)
		}
	}
	return l, nil
}

// ExtractionEnabled reports whether transcripts can actually be processed.
// Callers use it to decide whether to accept transcription callbacks at all.
func (s *Service) ExtractionEnabled() bool {
	return s.extractor != nil
}

// ListByAgent returns leads for one agent, newest first from the Postgres repo.
func (s *Service) ListByAgent(ctx context.Context, agentID string) ([]Lead, error) {
	if agentID == "" {
		return nil, errors.New("leads: agent_id required")
	}
	return s.repo.ListByAgent(ctx, agentID)
}
