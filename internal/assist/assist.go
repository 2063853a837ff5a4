// Package assist fronts the generative-AI provider used for product images and
// category ordering. Every call is bounded by a timeout, identical concurrent
// requests share one provider call, and category ordering degrades to a
// lexicographic sort instead of failing.
package assist

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Operation names used in errors, logs and metrics.
const (
	OpImage        = "image"
	OpCategorySort = "category_sort"
)

// Outcomes recorded per request.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

var (
	// ErrGeneration is matched by every *GenerationError.
	ErrGeneration = errors.New("assist: generation failed")
	// ErrDisabled is returned by the Disabled provider.
	ErrDisabled = errors.New("assist: provider not configured")
	// ErrEmptyResult marks a provider answer without usable content.
	ErrEmptyResult = errors.New("assist: provider returned no result")
)

// Provider performs the actual model calls.
type Provider interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	SuggestOrder(ctx context.Context, names []string) ([]string, error)
}

// GenerationError reports a failed provider call. It is safe to retry.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("assist: %s generation failed: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrGeneration and the provider cause.
func (e *GenerationError) Unwrap() []error {
	return []error{ErrGeneration, e.Err}
}

// Retryable marks the error as eligible for a later attempt.
func (e *GenerationError) Retryable() bool { return true }

// Disabled is the provider used when no API key is configured.
type Disabled struct{}

// GenerateImage always fails with ErrDisabled.
func (Disabled) GenerateImage(context.Context, string) ([]byte, error) {
	return nil, ErrDisabled
}

// SuggestOrder always fails with ErrDisabled, which triggers the fallback sort.
func (Disabled) SuggestOrder(context.Context, []string) ([]string, error) {
	return nil, ErrDisabled
}

// FallbackSort returns a lexicographically sorted copy of names.
func FallbackSort(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}

// IsPermutation reports whether got holds exactly the same multiset of names as want.
func IsPermutation(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	counts := make(map[string]int, len(want))
	for _, name := range want {
		counts[name]++
	}
	for _, name := range got {
		counts[name]--
		if counts[name] < 0 {
			return false
		}
	}
	return true
}
