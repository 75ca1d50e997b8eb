package extraction

import (
	"context"
	"log/slog"
	"time"

	"github.com/reelbites/recipe-extractor/internal/common"
)

// RetryPolicy bounds the streaming retry loop. Delay for retry n is
// BaseDelay << n, so the defaults give 2s, 4s, 8s.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: 2 * time.Second}
}

// Resilient wraps a Pipeline with the transport recovery strategy: retry
// the stream with exponential backoff on transport failures, then fall
// back to one batch call before giving up. Non-transport errors pass
// through untouched; retrying a validation failure would just fail again.
type Resilient struct {
	pipeline Pipeline
	policy   RetryPolicy
	log      *slog.Logger

	// sleep is swappable so backoff behaviour is testable without clocks.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewResilient(p Pipeline, policy RetryPolicy, logger *slog.Logger) *Resilient {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.MaxRetries <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Resilient{
		pipeline: p,
		policy:   policy,
		log:      logger,
		sleep:    sleepCtx,
	}
}

// Run drives one extraction through the recovery strategy. Every event
// observed on any stream attempt is forwarded to onEvent (which may be
// nil); a retried stream starts its event log over.
func (r *Resilient) Run(ctx context.Context, sourceURL string, opts Options, onEvent func(ExtractionEvent)) (*ExtractionResult, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		result, err := r.runStream(ctx, sourceURL, opts, onEvent)
		if err == nil {
			return result, nil
		}
		if !common.IsTransport(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		if attempt >= r.policy.MaxRetries {
			break
		}
		delay := r.policy.BaseDelay << attempt
		r.log.Warn("extraction.retry",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))
		if err := r.sleep(ctx, delay); err != nil {
			return nil, common.TransportError("retry interrupted", err)
		}
	}

	r.log.Warn("extraction.fallback_batch", slog.String("error", lastErr.Error()))
	result, err := r.pipeline.StartBatch(ctx, sourceURL, opts)
	if err != nil {
		return nil, common.TransportError("stream retries and batch fallback both failed", err)
	}
	return result, nil
}

// runStream consumes one stream attempt to its terminal event. A stream
// that ends without a terminal event is a transport failure.
func (r *Resilient) runStream(ctx context.Context, sourceURL string, opts Options, onEvent func(ExtractionEvent)) (*ExtractionResult, error) {
	_, ch, err := r.pipeline.Start(ctx, sourceURL, opts)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			return nil, common.TransportError("caller cancelled while streaming", ctx.Err())
		case ev, ok := <-ch:
			if !ok {
				return nil, common.TransportError("stream ended without a terminal event", nil)
			}
			if onEvent != nil {
				onEvent(ev)
			}
			switch ev.Event {
			case EventCompleted:
				return ev.Result, nil
			case EventError:
				return nil, common.ErrorFromCode(ev.ErrorCode, ev.ErrorMessage)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
