package notify

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"blogsmith/internal/domain/entity"

	"github.com/google/uuid"
)

// contextKey avoids collisions with other packages' context values.
type contextKey string

const requestIDKey contextKey = "request_id"

const (
	circuitBreakerThreshold = 5               // consecutive failures before opening
	circuitBreakerTimeout   = 5 * time.Minute // how long an open circuit stays open
	workerPoolTimeout       = 5 * time.Second // max wait for a worker slot
	notificationTimeout     = 30 * time.Second
)

// Service fans a draft-review notification out to every enabled channel.
type Service interface {
	// NotifyDraftReady dispatches the notification to all enabled channels.
	// It is non-blocking: sends run in background goroutines and failures
	// are logged rather than returned, so it always returns nil.
	NotifyDraftReady(ctx context.Context, review *entity.DraftReview) error

	// GetChannelHealth reports each channel's circuit breaker state for
	// the health endpoint. Safe for concurrent use.
	GetChannelHealth() []ChannelHealthStatus

	// Shutdown waits for in-flight notifications to finish, or returns
	// ctx's error on timeout.
	Shutdown(ctx context.Context) error
}

// ChannelHealthStatus is one channel's entry in the health report.
type ChannelHealthStatus struct {
	Name               string
	Enabled            bool
	CircuitBreakerOpen bool
	DisabledUntil      *time.Time // nil while the circuit is closed
}

type service struct {
	channels       []Channel
	workerPool     chan struct{} // semaphore bounding concurrent sends
	channelHealth  map[string]*channelHealth
	healthMu       sync.RWMutex // protects channelHealth map
	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// channelHealth is the per-channel circuit breaker state.
type channelHealth struct {
	consecutiveFailures int
	disabledUntil       time.Time
	mu                  sync.Mutex
}

// NewService builds a notification service over the given channels.
// maxConcurrent bounds simultaneous sends across all channels.
func NewService(channels []Channel, maxConcurrent int) Service {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	svc := &service{
		channels:       channels,
		workerPool:     make(chan struct{}, maxConcurrent),
		channelHealth:  make(map[string]*channelHealth),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}

	for _, ch := range channels {
		svc.channelHealth[ch.Name()] = &channelHealth{}
	}

	return svc
}

// NotifyDraftReady implements Service.
func (s *service) NotifyDraftReady(ctx context.Context, review *entity.DraftReview) error {
	if review == nil || review.Title == "" {
		slog.Warn("Invalid notification input",
			slog.Bool("nil_review", review == nil))
		return nil
	}

	// inherit the caller's request ID when present so the dispatch log
	// lines correlate with the HTTP request
	requestID, ok := ctx.Value("request_id").(string)
	if !ok || requestID == "" {
		requestID = uuid.New().String()
	}

	enabled := s.enabledChannels()
	SetChannelsEnabled(float64(len(enabled)))

	if len(enabled) == 0 {
		slog.Debug("No notification channels enabled",
			slog.String("request_id", requestID),
			slog.Int64("post_id", review.PostID))
		return nil
	}

	slog.Info("Dispatching draft review notification",
		slog.String("request_id", requestID),
		slog.Int64("post_id", review.PostID),
		slog.String("title", review.Title),
		slog.Int("enabled_channels", len(enabled)))

	for _, ch := range enabled {
		s.wg.Add(1)
		go s.notifyChannel(requestID, ch, review)
	}

	return nil
}

func (s *service) enabledChannels() []Channel {
	enabled := make([]Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		if ch.IsEnabled() {
			enabled = append(enabled, ch)
		}
	}
	return enabled
}

// notifyChannel runs in its own goroutine and sends to one channel,
// respecting the worker pool and the channel's circuit breaker.
func (s *service) notifyChannel(requestID string, channel Channel, review *entity.DraftReview) {
	defer s.wg.Done()

	IncrementActiveGoroutines()
	defer DecrementActiveGoroutines()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in notification channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		slog.Warn("Notification dropped: worker pool full",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		RecordDropped(channel.Name(), "pool_full")
		return
	}

	health := s.getChannelHealth(channel.Name())
	if until, open := circuitOpenUntil(health); open {
		slog.Warn("Channel temporarily disabled due to circuit breaker",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Time("disabled_until", until))
		RecordDropped(channel.Name(), "circuit_open")
		return
	}

	// derive from the shutdown context so Shutdown cancels in-flight sends
	ctx, cancel := context.WithTimeout(s.shutdownCtx, notificationTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	startTime := time.Now()
	RecordDispatch(channel.Name())

	err := channel.Send(ctx, review)
	duration := time.Since(startTime)

	s.recordSendResult(requestID, channel, health, err)

	if err != nil {
		RecordFailure(channel.Name(), duration)
		slog.Warn("Channel notification failed",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Int64("post_id", review.PostID),
			slog.String("title", review.Title),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}

	RecordSuccess(channel.Name(), duration)
	slog.Info("Channel notification sent successfully",
		slog.String("request_id", requestID),
		slog.String("channel", channel.Name()),
		slog.Int64("post_id", review.PostID),
		slog.String("title", review.Title),
		slog.Duration("send_duration", duration))
}

// circuitOpenUntil reports whether the channel's circuit breaker is
// currently open and, if so, until when.
func circuitOpenUntil(health *channelHealth) (time.Time, bool) {
	health.mu.Lock()
	defer health.mu.Unlock()
	if time.Now().Before(health.disabledUntil) {
		return health.disabledUntil, true
	}
	return time.Time{}, false
}

// recordSendResult updates the circuit breaker after a send attempt:
// failures accumulate toward the threshold, any success resets the count.
func (s *service) recordSendResult(requestID string, channel Channel, health *channelHealth, err error) {
	health.mu.Lock()
	defer health.mu.Unlock()

	if err == nil {
		health.consecutiveFailures = 0
		return
	}

	health.consecutiveFailures++
	if health.consecutiveFailures >= circuitBreakerThreshold {
		health.disabledUntil = time.Now().Add(circuitBreakerTimeout)
		slog.Error("Circuit breaker opened for channel",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Int("consecutive_failures", health.consecutiveFailures))
		RecordCircuitBreakerOpen(channel.Name())
	}
}

func (s *service) getChannelHealth(channelName string) *channelHealth {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	return s.channelHealth[channelName]
}

// GetChannelHealth implements Service.
func (s *service) GetChannelHealth() []ChannelHealthStatus {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()

	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		health := s.channelHealth[ch.Name()]

		var disabledUntil *time.Time
		until, open := circuitOpenUntil(health)
		if open {
			disabledUntil = &until
		}

		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			CircuitBreakerOpen: open,
			DisabledUntil:      disabledUntil,
		})
	}

	return statuses
}

// Shutdown implements Service.
func (s *service) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down notification service")

	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Notification service shutdown complete")
		return nil
	case <-ctx.Done():
		slog.Warn("Notification service shutdown timeout")
		return ctx.Err()
	}
}
