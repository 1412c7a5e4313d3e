package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultExpirerInterval = 10 * time.Minute
	defaultConversationTTL = 1 * time.Hour
)

// ExpirerService periodically drops idle conversation state so the
// in-memory tracker does not grow without bound.
type ExpirerService struct {
	conversations *ConversationService
	logger        *zap.Logger

	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewExpirerService(cs *ConversationService, logger *zap.Logger) *ExpirerService {
	return &ExpirerService{
		conversations: cs,
		logger:        logger,
		interval:      defaultExpirerInterval,
		ttl:           defaultConversationTTL,
		stopCh:        make(chan struct{}),
	}
}

func (s *ExpirerService) SetInterval(d time.Duration) {
	s.interval = d
}

// SetTTL sets how long a conversation may stay idle before it is dropped.
func (s *ExpirerService) SetTTL(d time.Duration) {
	s.ttl = d
}

// Start runs the expirer on a periodic schedule in a background goroutine.
func (s *ExpirerService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("conversation expirer started",
			zap.Duration("interval", s.interval),
			zap.Duration("ttl", s.ttl),
		)

		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.stopCh:
				s.logger.Info("conversation expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *ExpirerService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *ExpirerService) run() {
	if removed := s.conversations.Prune(s.ttl); removed > 0 {
		s.logger.Info("expired idle conversations",
			zap.Int("count", removed),
			zap.Int("remaining", s.conversations.Len()),
		)
	}
}
