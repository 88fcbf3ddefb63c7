package reporting

import (
	"context"
	"errors"
	"time"

	"callagent-platform/internal/calls"
	"callagent-platform/internal/leads"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Methods must enforce agent filtering.
// - Implementations should query immutable sources (call records, extracted leads).

type Repository interface {
	ListCalls(ctx context.Context, agentID string, from, to time.Time) ([]calls.CallRecord, error)
	ListLeads(ctx context.Context, agentID string, from, to time.Time) ([]leads.Lead, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.AgentID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListCalls(ctx, req.AgentID, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{AgentID: req.AgentID}
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		if c.RecordingURL != "" {
			out.RecordedCalls++
		}
		switch c.Status {
		case calls.CallStatusCompleted:
			out.CompletedCalls++
		case calls.CallStatusFailed:
			out.FailedCalls++
		case calls.CallStatusInProgress:
			out.InProgressCalls++
		case calls.CallStatusInitiated:
			// not counted separately
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

func (s *Service) LeadMetrics(ctx context.Context, req LeadMetricsRequest) (LeadMetrics, error) {
	if req.AgentID == "" {
		return LeadMetrics{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return LeadMetrics{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return LeadMetrics{}, errors.New("reporting: repository not configured")
	}

	callRows, err := s.repo.ListCalls(ctx, req.AgentID, req.Range.From, req.Range.To)
	if err != nil {
		return LeadMetrics{}, err
	}
	leadRows, err := s.repo.ListLeads(ctx, req.AgentID, req.Range.From, req.Range.To)
	if err != nil {
		return LeadMetrics{}, err
	}

	out := LeadMetrics{AgentID: req.AgentID}
	for _, c := range callRows {
		if c.Status == calls.CallStatusCompleted {
			out.CallsCompleted++
		}
	}
	out.LeadsExtracted = len(leadRows)

	var scoreSum int
	for _, l := range leadRows {
		scoreSum += l.InterestScore
	}
	if out.LeadsExtracted > 0 {
		out.AverageInterestScore = float64(scoreSum) / float64(out.LeadsExtracted)
	}
	if out.CallsCompleted > 0 {
		out.ConversionRate = float64(out.LeadsExtracted) / float64(out.CallsCompleted)
	}
	return out, nil
}
