package rollup

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Service struct {
	repo   Repository
	logger *zap.Logger

	// In-memory кеш уникальных сессий за текущие часы. mu защищает кеш:
	// consumer обрабатывает партиции в отдельных горутинах, а cleanup
	// ходит по кешу из своего тикера.
	mu             sync.Mutex
	uniqueSessions map[string]map[string]bool
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:           repo,
		logger:         logger,
		uniqueSessions: make(map[string]map[string]bool),
	}
}

func (s *Service) ProcessEvent(ctx context.Context, msg *EventMessage) error {
	date := msg.CreatedAt.Truncate(24 * time.Hour)
	hour := msg.CreatedAt.Hour()

	key := fmt.Sprintf("%s-%d-%s-%s", date.Format("2006-01-02"), hour, msg.SiteID, msg.EventName)

	s.mu.Lock()
	if s.uniqueSessions[key] == nil {
		s.uniqueSessions[key] = make(map[string]bool)
	}
	s.uniqueSessions[key][msg.SessionID] = true
	unique := int64(len(s.uniqueSessions[key]))
	s.mu.Unlock()

	rollup := NewRollup(date, hour, msg.SiteID, msg.EventName)
	rollup.TotalEvents = 1
	rollup.UniqueSessions = unique

	if err := s.repo.Upsert(ctx, rollup); err != nil {
		return fmt.Errorf("failed to upsert rollup: %w", err)
	}

	s.logger.Debug("Event rolled up",
		zap.String("site_id", msg.SiteID),
		zap.String("event_name", msg.EventName),
		zap.Int("hour", hour),
	)

	return nil
}

// CreateMessageHandler адаптирует сервис под Kafka consumer
func (s *Service) CreateMessageHandler() func(ctx context.Context, key, value []byte) error {
	return func(ctx context.Context, key, value []byte) error {
		var msg EventMessage
		if err := json.Unmarshal(value, &msg); err != nil {
			s.logger.Error("Failed to unmarshal event",
				zap.Error(err),
				zap.String("value", string(value)),
			)
			return err
		}

		return s.ProcessEvent(ctx, &msg)
	}
}

// CleanupOldCache выбрасывает ключи старше суток
func (s *Service) CleanupOldCache() {
	cutoff := time.Now().Add(-24 * time.Hour).Format("2006-01-02")

	s.mu.Lock()
	for key := range s.uniqueSessions {
		if key < cutoff {
			delete(s.uniqueSessions, key)
		}
	}
	s.mu.Unlock()

	s.logger.Debug("Cache cleanup completed")
}

func (s *Service) GetRange(ctx context.Context, siteID string, from, to time.Time) ([]*Rollup, error) {
	return s.repo.GetRange(ctx, siteID, from, to)
}
