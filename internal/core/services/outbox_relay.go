package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"time"
	"unicode/utf8"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	portsrepo "github.com/impresahub/impresa_backend/internal/core/ports/repositories"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
	"github.com/impresahub/impresa_backend/internal/platform/metrics"
)

// RelayOptions tunes the outbox relay. Zero values take the defaults.
type RelayOptions struct {
	PollInterval    time.Duration
	BatchSize       int
	MaxAttempts     int
	LockTTL         time.Duration
	MaxBackoff      time.Duration
	JitterMax       time.Duration
	DispatchTimeout time.Duration
	LastErrorMaxLen int
	// ObserveDepthEvery throttles the pending/locked gauge queries.
	ObserveDepthEvery time.Duration
	Rand              *rand.Rand
}

func (o *RelayOptions) setDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 25
	}
	if o.LockTTL <= 0 {
		o.LockTTL = time.Minute
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = time.Minute
	}
	if o.JitterMax < 0 {
		o.JitterMax = 0
	}
	if o.DispatchTimeout <= 0 {
		o.DispatchTimeout = 10 * time.Second
	}
	if o.LastErrorMaxLen <= 0 {
		o.LastErrorMaxLen = 2048
	}
	if o.ObserveDepthEvery <= 0 {
		o.ObserveDepthEvery = 15 * time.Second
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
}

// OutboxRelay claims undelivered outbox events and hands them to a dispatcher.
// Several relays may run at once; claims use SKIP LOCKED.
type OutboxRelay struct {
	BaseService
	store      portsrepo.OutboxRelayStore
	dispatcher portssvc.OutboxDispatcher
	opts       RelayOptions
}

// NewOutboxRelay creates a relay over store.
func NewOutboxRelay(store portsrepo.OutboxRelayStore, dispatcher portssvc.OutboxDispatcher, opts RelayOptions) *OutboxRelay {
	opts.setDefaults()
	return &OutboxRelay{store: store, dispatcher: dispatcher, opts: opts}
}

var _ portssvc.BackgroundWorker = (*OutboxRelay)(nil)

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	nextDepthAt := time.Now()
	r.LogInfo(ctx, "Outbox relay started", slog.Duration("poll_interval", r.opts.PollInterval))
	for {
		select {
		case <-ctx.Done():
			r.LogInfo(ctx, "Outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(nextDepthAt) {
			r.observeDepth(ctx)
			nextDepthAt = time.Now().Add(r.opts.ObserveDepthEvery)
		}

		if _, err := r.ProcessOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.LogError(ctx, err, "Outbox relay tick failed")
		}
	}
}

// ProcessOnce claims one batch and dispatches it, returning how many events were claimed.
func (r *OutboxRelay) ProcessOnce(ctx context.Context) (int, error) {
	t := time.Now()
	claimed, err := r.store.Claim(ctx, t, t.Add(-r.opts.LockTTL), r.opts.MaxAttempts, r.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	for _, ev := range claimed {
		r.handle(ctx, ev)
	}
	return len(claimed), nil
}

func (r *OutboxRelay) handle(ctx context.Context, ev domain.OutboxEvent) {
	m := metrics.Outbox()
	log := r.GetLogger(ctx).With(
		slog.String("event_id", ev.EventID),
		slog.String("topic", ev.Topic),
		slog.Int("attempts", ev.Attempts))

	dispatchCtx, cancel := context.WithTimeout(ctx, r.opts.DispatchTimeout)
	start := time.Now()
	err := r.dispatcher.Dispatch(dispatchCtx, ev)
	cancel()
	latency := time.Since(start).Seconds()

	if err == nil {
		m.DispatchTotal.WithLabelValues(ev.Topic, "success").Inc()
		m.DispatchLatency.WithLabelValues(ev.Topic, "success").Observe(latency)
		if ackErr := r.store.Ack(ctx, ev.EventID); ackErr != nil {
			log.Warn("Outbox ack failed", "error", ackErr)
		}
		return
	}

	m.DispatchTotal.WithLabelValues(ev.Topic, "failure").Inc()
	m.DispatchLatency.WithLabelValues(ev.Topic, "failure").Observe(latency)
	lastErr := truncateString(err.Error(), r.opts.LastErrorMaxLen)

	if ev.Attempts >= r.opts.MaxAttempts {
		m.DeadTotal.WithLabelValues(ev.Topic).Inc()
		log.Error("Outbox event exhausted its attempts", "error", lastErr)
		if deadErr := r.store.Dead(ctx, ev.EventID, lastErr); deadErr != nil {
			log.Warn("Outbox dead update failed", "error", deadErr)
		}
		return
	}

	next := time.Now().Add(backoff(ev.Attempts, r.opts.MaxBackoff) + jitter(r.opts.Rand, r.opts.JitterMax))
	log.Warn("Outbox dispatch failed, will retry", "error", lastErr, "next_attempt", next)
	if nackErr := r.store.Nack(ctx, ev.EventID, lastErr, next); nackErr != nil {
		log.Warn("Outbox nack failed", "error", nackErr)
	}
}

func (r *OutboxRelay) observeDepth(ctx context.Context) {
	pending, locked, err := r.store.CountUndelivered(ctx)
	if err != nil {
		r.LogDebug(ctx, "Outbox depth query failed", slog.String("error", err.Error()))
		return
	}
	metrics.Outbox().Pending.Set(float64(pending))
	metrics.Outbox().Locked.Set(float64(locked))
}

// backoff is 1s * 2^(attempts-1), capped at maxBackoff.
func backoff(attempts int, maxBackoff time.Duration) time.Duration {
	if attempts <= 0 {
		return 0
	}
	seconds := math.Pow(2, float64(attempts-1))
	d := time.Duration(seconds * float64(time.Second))
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// jitter returns a random duration in [0, maxJitter].
func jitter(r *rand.Rand, maxJitter time.Duration) time.Duration {
	if maxJitter <= 0 || r == nil {
		return 0
	}
	return time.Duration(r.Int63n(int64(maxJitter) + 1)) //nolint:gosec
}

func truncateString(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	s = s[:maxBytes]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
