package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/tayseer-service/internal/model"
	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/repository"
)

const recentAuditCount = 5

// ComplianceService builds the compliance overview.
type ComplianceService interface {
	Report(ctx context.Context) (model.ComplianceReport, error)
}

type complianceService struct {
	audits    repository.Store[model.ComplianceAudit]
	cases     repository.Store[model.LegalCase]
	contracts repository.Store[model.Contract]
	now       repository.Clock
	log       zerolog.Logger
}

func NewComplianceService(audits repository.Store[model.ComplianceAudit], cases repository.Store[model.LegalCase], contracts repository.Store[model.Contract], now repository.Clock, logger zerolog.Logger) ComplianceService {
	if now == nil {
		now = repository.UTCNow
	}
	l := logger.With().Str("module", "service").Str("component", "compliance").Logger()
	return &complianceService{audits: audits, cases: cases, contracts: contracts, now: now, log: l}
}

func (s *complianceService) Report(ctx context.Context) (model.ComplianceReport, error) {
	start := time.Now()
	audits, err := collect(ctx, s.audits, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("collect audits failed")
		return model.ComplianceReport{}, err
	}

	r := model.ComplianceReport{
		TotalAudits:    len(audits),
		AuditsByStatus: make(map[string]int),
		GeneratedAt:    s.now(),
	}
	var scoreSum, completed int64
	for _, a := range audits {
		r.AuditsByStatus[a.Status]++
		if a.Status == "completed" {
			scoreSum += a.Score
			completed++
		}
	}
	if completed > 0 {
		r.AverageScore = float64(scoreSum) / float64(completed)
	}
	r.RecentAudits = query.Evaluate(audits, query.Query{
		Page:      1,
		Limit:     recentAuditCount,
		SortBy:    "audit_date",
		SortOrder: query.Desc,
	}, repository.Audits.Schema).Items

	open, err := s.cases.List(ctx, query.Query{Page: 1, Limit: 1, Filters: map[string]any{"status": "open"}})
	if err != nil {
		s.log.Error().Err(err).Msg("count open cases failed")
		return model.ComplianceReport{}, err
	}
	r.OpenCases = open.Total

	active, err := collect(ctx, s.contracts, map[string]any{"status": "active"})
	if err != nil {
		s.log.Error().Err(err).Msg("collect active contracts failed")
		return model.ComplianceReport{}, err
	}
	r.ActiveContracts = len(active)
	for _, c := range active {
		r.ActiveContractSum += c.Value
	}

	s.log.Debug().Dur("took", time.Since(start)).Int("audits", r.TotalAudits).Msg("compliance report built")
	return r, nil
}
