package services

import (
	"context"
	"sync"
	"time"

	"github.com/gtech-mulearn/mulearn/internal/app/models"
	"github.com/gtech-mulearn/mulearn/internal/app/repositories"
	"github.com/gtech-mulearn/mulearn/internal/pkg/eventbus"
	"github.com/gtech-mulearn/mulearn/internal/pkg/websocket"
	"github.com/rs/zerolog"
)

// Live counter websocket routing
const (
	LandingRoom        = websocket.RoomLanding
	CountsMessageType  = "counts"
	countsRefreshLimit = 10 * time.Second
)

// Broadcaster pushes a typed message to every client in a room
type Broadcaster interface {
	Broadcast(room, msgType string, data any)
}

// LiveCountsService serves the landing page counters and keeps websocket
// clients up to date
type LiveCountsService struct {
	stats       repositories.IStatsRepository
	broadcaster Broadcaster
	logger      zerolog.Logger

	mu      sync.Mutex
	running bool
	pending bool
	wg      sync.WaitGroup
}

// NewLiveCountsService creates a new LiveCountsService
func NewLiveCountsService(stats repositories.IStatsRepository, broadcaster Broadcaster, logger zerolog.Logger) *LiveCountsService {
	return &LiveCountsService{stats: stats, broadcaster: broadcaster, logger: logger}
}

// Snapshot loads the current counters
func (s *LiveCountsService) Snapshot(ctx context.Context) (*models.LandingCounts, error) {
	return s.stats.LandingCounts(ctx)
}

// SnapshotAny adapts Snapshot to the websocket snapshot signature
func (s *LiveCountsService) SnapshotAny(ctx context.Context) (any, error) {
	return s.Snapshot(ctx)
}

// Start subscribes to counts changed events
func (s *LiveCountsService) Start(sub eventbus.Subscriber) error {
	return sub.Subscribe(eventbus.SubjectCountsChanged, s.HandleCountsChanged)
}

// HandleCountsChanged schedules a refresh. At most one refresh runs at a
// time; events arriving during a refresh collapse into one more refresh.
func (s *LiveCountsService) HandleCountsChanged(_ context.Context, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.pending = true
		return nil
	}
	s.running = true
	s.wg.Add(1)
	go s.refreshLoop()
	return nil
}

// Wait blocks until no refresh is running
func (s *LiveCountsService) Wait() {
	s.wg.Wait()
}

func (s *LiveCountsService) refreshLoop() {
	defer s.wg.Done()
	for {
		s.refresh()

		s.mu.Lock()
		if !s.pending {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()
	}
}

func (s *LiveCountsService) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), countsRefreshLimit)
	defer cancel()

	counts, err := s.stats.LandingCounts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to refresh landing counts")
		return
	}
	s.broadcaster.Broadcast(LandingRoom, CountsMessageType, counts)
}
