package rollup

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu        sync.Mutex
	upserts   []*Rollup
	upsertErr error
}

func (f *fakeRepo) Upsert(_ context.Context, r *Rollup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, r)
	return nil
}

func (f *fakeRepo) GetRange(context.Context, string, time.Time, time.Time) ([]*Rollup, error) {
	return nil, nil
}

func msgAt(ts time.Time, session string) *EventMessage {
	return &EventMessage{
		SiteID:    "websies",
		SessionID: session,
		EventName: "page_view",
		Path:      "/home",
		Country:   "US",
		CreatedAt: ts,
	}
}

func TestProcessEvent_CountsUniqueSessions(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, zap.NewNop())
	ts := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

	require.NoError(t, svc.ProcessEvent(context.Background(), msgAt(ts, "s1")))
	require.NoError(t, svc.ProcessEvent(context.Background(), msgAt(ts, "s1")))
	require.NoError(t, svc.ProcessEvent(context.Background(), msgAt(ts, "s2")))

	require.Len(t, repo.upserts, 3)

	// каждое событие даёт дельту в один, сессии считаются без повторов
	for _, up := range repo.upserts {
		assert.Equal(t, int64(1), up.TotalEvents)
		assert.Equal(t, "websies", up.SiteID)
		assert.Equal(t, "page_view", up.EventName)
		assert.Equal(t, 14, up.Hour)
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), up.Date)
	}
	assert.Equal(t, int64(1), repo.upserts[0].UniqueSessions)
	assert.Equal(t, int64(1), repo.upserts[1].UniqueSessions)
	assert.Equal(t, int64(2), repo.upserts[2].UniqueSessions)
}

func TestProcessEvent_SeparateBucketsPerHour(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, zap.NewNop())

	require.NoError(t, svc.ProcessEvent(context.Background(),
		msgAt(time.Date(2025, 6, 1, 14, 59, 0, 0, time.UTC), "s1")))
	require.NoError(t, svc.ProcessEvent(context.Background(),
		msgAt(time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC), "s1")))

	require.Len(t, repo.upserts, 2)
	assert.Equal(t, 14, repo.upserts[0].Hour)
	assert.Equal(t, 15, repo.upserts[1].Hour)
	// одна и та же сессия в новом часе снова уникальна
	assert.Equal(t, int64(1), repo.upserts[1].UniqueSessions)
}

func TestProcessEvent_UpsertFailurePropagates(t *testing.T) {
	repo := &fakeRepo{upsertErr: assert.AnError}
	svc := NewService(repo, zap.NewNop())

	err := svc.ProcessEvent(context.Background(), msgAt(time.Now().UTC(), "s1"))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMessageHandler(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, zap.NewNop())
	handler := svc.CreateMessageHandler()

	value := []byte(`{
		"site_id": "websies",
		"session_id": "1700000000000_abc123xyz",
		"event_name": "cta_click",
		"path": "/pricing",
		"country": "US",
		"created_at": "2025-06-01T14:30:00Z"
	}`)

	require.NoError(t, handler(context.Background(), []byte("1700000000000_abc123xyz"), value))

	require.Len(t, repo.upserts, 1)
	assert.Equal(t, "cta_click", repo.upserts[0].EventName)
}

func TestMessageHandler_BadPayload(t *testing.T) {
	svc := NewService(&fakeRepo{}, zap.NewNop())
	handler := svc.CreateMessageHandler()

	err := handler(context.Background(), nil, []byte(`{broken`))
	assert.Error(t, err)
}

// Consumer обрабатывает каждую партицию в своей горутине, cleanup крутится
// в тикере: кеш сессий должен выдерживать одновременный доступ.
func TestProcessEvent_ConcurrentWithCleanup(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, zap.NewNop())

	var wg sync.WaitGroup
	start := make(chan struct{})

	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			<-start
			ts := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
			for i := 0; i < 200; i++ {
				msg := msgAt(ts, fmt.Sprintf("session-%d-%d", p, i))
				assert.NoError(t, svc.ProcessEvent(context.Background(), msg))
			}
		}(p)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < 200; i++ {
			svc.CleanupOldCache()
		}
	}()

	close(start)
	wg.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.upserts, 800)
}

func TestCleanupOldCache(t *testing.T) {
	svc := NewService(&fakeRepo{}, zap.NewNop())

	staleKey := "2020-01-01-10-websies-page_view"
	freshKey := time.Now().UTC().Format("2006-01-02") + "-10-websies-page_view"
	svc.uniqueSessions[staleKey] = map[string]bool{"s1": true}
	svc.uniqueSessions[freshKey] = map[string]bool{"s1": true}

	svc.CleanupOldCache()

	assert.NotContains(t, svc.uniqueSessions, staleKey)
	assert.Contains(t, svc.uniqueSessions, freshKey)
}
