package assist

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds every provider call when no timeout is configured.
const DefaultTimeout = 20 * time.Second

// Recorder receives one observation per adapter request.
type Recorder interface {
	AssistRequest(op, outcome string)
}

// Adapter wraps a Provider with timeouts, de-duplication and fallbacks.
type Adapter struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
	recorder Recorder
	group    singleflight.Group
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Adapter) { a.recorder = r }
}

// NewAdapter constructs an Adapter. A nil provider behaves like Disabled.
func NewAdapter(provider Provider, opts ...Option) *Adapter {
	if provider == nil {
		provider = Disabled{}
	}
	a := &Adapter{provider: provider, timeout: DefaultTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RequestImage returns PNG bytes for prompt. Any provider failure, including
// the timeout, is reported as *GenerationError.
func (a *Adapter) RequestImage(ctx context.Context, prompt string) ([]byte, error) {
	val, err, shared := a.do(ctx, OpImage+":"+prompt, func(ctx context.Context) (any, error) {
		img, err := a.provider.GenerateImage(ctx, prompt)
		if err == nil && len(img) == 0 {
			err = ErrEmptyResult
		}
		return img, err
	})
	if err != nil {
		a.record(OpImage, OutcomeError)
		a.logger.Warn("image generation failed", slog.Any("error", err), slog.Bool("shared", shared))
		return nil, &GenerationError{Op: OpImage, Err: err}
	}
	a.record(OpImage, OutcomeOK)
	return val.([]byte), nil
}

// RequestCategorySort returns names reordered by store category. The provider
// answer is only trusted when it is a permutation of names; otherwise, and on
// any failure, the lexicographic fallback is returned. It never fails.
func (a *Adapter) RequestCategorySort(ctx context.Context, names []string) []string {
	if len(names) == 0 {
		return []string{}
	}
	val, err, _ := a.do(ctx, OpCategorySort+":"+strings.Join(names, "\x1f"), func(ctx context.Context) (any, error) {
		return a.provider.SuggestOrder(ctx, names)
	})
	if err != nil {
		a.record(OpCategorySort, OutcomeFallback)
		a.logger.Warn("category sort failed, using fallback", slog.Int("count", len(names)), slog.Any("error", err))
		return FallbackSort(names)
	}
	suggested, _ := val.([]string)
	if !IsPermutation(names, suggested) {
		a.record(OpCategorySort, OutcomeFallback)
		a.logger.Warn("category sort returned a different set of names, using fallback",
			slog.Int("want", len(names)), slog.Int("got", len(suggested)))
		return FallbackSort(names)
	}
	a.record(OpCategorySort, OutcomeOK)
	out := make([]string, len(suggested))
	copy(out, suggested)
	return out
}

// do runs fn at most once per key at a time. The shared call is detached from
// the first caller's cancellation and bounded by the adapter timeout; each
// caller still stops waiting when its own context ends.
func (a *Adapter) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	resultChan := a.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		return fn(callCtx)
	})
	wait := time.NewTimer(a.timeout)
	defer wait.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case <-wait.C:
		return nil, context.DeadlineExceeded, false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}

func (a *Adapter) record(op, outcome string) {
	if a.recorder != nil {
		a.recorder.AssistRequest(op, outcome)
	}
}
