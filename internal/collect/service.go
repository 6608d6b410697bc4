package collect

import (
	"context"
	"encoding/json"
	"time"

	"github.com/websies/platform/internal/geo"
	"go.uber.org/zap"
)

// Outcome tags what happened to a submitted batch. SilentlyDropped is
// wire-compatible with Accepted (both answer success) but nothing was
// persisted; keeping them distinct makes the fail-open paths testable.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeSilentlyDropped
	OutcomeRateLimited
	OutcomeInvalid
	OutcomeStorageFailed
)

type Result struct {
	Outcome  Outcome
	Inserted int
	Details  []FieldError
}

type EventPublisher interface {
	SendMessage(ctx context.Context, key string, value any) error
}

type Service struct {
	repo     Repository
	limiter  *RateLimiter
	geo      geo.Resolver
	producer EventPublisher
	maxBatch int
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the ingestion pipeline. producer may be nil; publishing
// downstream is best-effort and never affects the caller's response.
// maxBatch of zero falls back to MaxBatchEvents.
func NewService(repo Repository, limiter *RateLimiter, resolver geo.Resolver, producer EventPublisher, maxBatch int, logger *zap.Logger) *Service {
	if maxBatch <= 0 {
		maxBatch = MaxBatchEvents
	}
	return &Service{
		repo:     repo,
		limiter:  limiter,
		geo:      resolver,
		producer: producer,
		maxBatch: maxBatch,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitBatch runs the full ingestion pipeline for one request body:
// rate limit, bot filter, validation, geo, UA anonymization, event insert,
// session upsert, downstream publish.
func (s *Service) SubmitBatch(ctx context.Context, body []byte, callerIP, userAgent string) Result {
	if !s.limiter.Allow(callerIP) {
		s.logger.Warn("rate limit exceeded", zap.String("ip", callerIP))
		return Result{Outcome: OutcomeRateLimited}
	}

	if isBot(userAgent) {
		s.logger.Debug("bot traffic dropped", zap.String("ip", callerIP))
		return Result{Outcome: OutcomeSilentlyDropped}
	}

	var batch Batch
	if err := json.Unmarshal(body, &batch); err != nil {
		return Result{
			Outcome: OutcomeInvalid,
			Details: []FieldError{{Field: "body", Message: "malformed JSON"}},
		}
	}

	if details := batch.Validate(s.maxBatch); len(details) > 0 {
		s.logger.Debug("batch failed validation",
			zap.String("site_id", batch.SiteID),
			zap.Int("errors", len(details)),
		)
		return Result{Outcome: OutcomeInvalid, Details: details}
	}

	country := s.geo.Country(callerIP)
	uaHash := HashUserAgent(userAgent)

	rows := make([]*PersistedEvent, 0, len(batch.Events))
	for _, ev := range batch.Events {
		rows = append(rows, newPersistedEvent(&batch, ev, country, uaHash))
	}

	if err := s.repo.InsertEvents(ctx, rows); err != nil {
		s.logger.Error("failed to insert events",
			zap.Error(err),
			zap.String("site_id", batch.SiteID),
			zap.Int("events", len(rows)),
		)
		return Result{Outcome: OutcomeStorageFailed}
	}

	// Сессию обновляем best-effort: клиенту об ошибке не сообщаем
	session := &SessionRecord{
		SessionID: batch.SessionID,
		SiteID:    batch.SiteID,
		Country:   country,
		LastSeen:  s.now(),
	}
	if err := s.repo.UpsertSession(ctx, session); err != nil {
		s.logger.Warn("failed to upsert session",
			zap.Error(err),
			zap.String("session_id", batch.SessionID),
		)
	}

	if s.producer != nil {
		for _, row := range rows {
			if err := s.producer.SendMessage(ctx, row.SessionID, row); err != nil {
				s.logger.Error("failed to publish event",
					zap.Error(err),
					zap.String("event_name", row.EventName),
				)
			}
		}
	}

	s.logger.Info("Batch accepted",
		zap.String("site_id", batch.SiteID),
		zap.String("session_id", batch.SessionID),
		zap.Int("events", len(rows)),
	)

	return Result{Outcome: OutcomeAccepted, Inserted: len(rows)}
}
