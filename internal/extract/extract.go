// Package extract runs model-based field extraction: it selects the chunks
// most likely to contain a field, prompts a configured inference provider,
// and validates the structured answer back into an offset-cited candidate.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tabrev/internal/models"
	"tabrev/internal/providers"
)

var (
	// ErrInferenceTimeout reports that a provider call exceeded its per-call
	// deadline.
	ErrInferenceTimeout = errors.New("inference call timed out")
	// ErrInferenceUnavailable reports that every configured provider and
	// retry attempt was exhausted without a usable answer.
	ErrInferenceUnavailable = errors.New("inference unavailable")
)

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	BackoffFactor  float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialBackoff: 500 * time.Millisecond, BackoffFactor: 2.0}
}

type Extractor struct {
	manager     *providers.Manager
	policy      RetryPolicy
	callTimeout time.Duration
	topK        int

	// override bypasses the manager; tests use it to script provider output.
	override providers.InferenceProvider
}

func NewExtractor(manager *providers.Manager, policy RetryPolicy, callTimeout time.Duration, topK int) *Extractor {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = 1
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Extractor{manager: manager, policy: policy, callTimeout: callTimeout, topK: topK}
}

// Extract asks the configured providers for one field's value. ok=false with
// a nil error means the model judged the field absent from the document.
// Providers are tried in preferred order; retryable failures back off and
// retry within a provider, permanent ones move on to the next.
func (e *Extractor) Extract(ctx context.Context, def models.FieldDefinition, chunks []models.Chunk, prior *models.Candidate) (models.Candidate, bool, error) {
	if len(chunks) == 0 {
		return models.Candidate{}, false, nil
	}
	selected := SelectChunks(def, chunks, prior, e.topK)
	prompt, excerpts := BuildPrompt(def, selected)
	req := providers.CompletionRequest{Operation: "extract_field", Prompt: prompt, Context: excerpts}

	var lastErr error
	for _, np := range e.candidates() {
		provider, ref := np.Provider, np.Ref
		backoff := e.policy.InitialBackoff
		for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
			malformed := false
			resp, err := e.completeOnce(ctx, provider, req)
			if err == nil {
				cand, ok, perr := ParseResponse(resp.Text, selected)
				if perr == nil {
					return cand, ok, nil
				}
				// Malformed output is retried like a transient failure.
				err = perr
				malformed = true
			}
			lastErr = fmt.Errorf("provider %s attempt %d: %w", ref.Name, attempt, err)
			if ctx.Err() != nil {
				return models.Candidate{}, false, fmt.Errorf("%w: %w", ErrInferenceTimeout, ctx.Err())
			}
			retryable := malformed || errors.Is(err, ErrInferenceTimeout) || providers.ClassifyError(err).Retryable()
			if !retryable {
				break
			}
			if attempt < e.policy.MaxAttempts {
				select {
				case <-ctx.Done():
					return models.Candidate{}, false, fmt.Errorf("%w: %w", ErrInferenceTimeout, ctx.Err())
				case <-time.After(backoff):
				}
				backoff = time.Duration(float64(backoff) * e.policy.BackoffFactor)
			}
		}
	}
	return models.Candidate{}, false, fmt.Errorf("%w: %w", ErrInferenceUnavailable, lastErr)
}

func (e *Extractor) candidates() []providers.NamedProvider {
	if e.override != nil {
		return []providers.NamedProvider{{Ref: providers.ProviderRef{Raw: "override", Name: "override"}, Provider: e.override}}
	}
	out := make([]providers.NamedProvider, 0, e.manager.Count())
	for _, idx := range e.manager.PreferredOrder() {
		p, ref := e.manager.ByIndex(idx)
		out = append(out, providers.NamedProvider{Ref: ref, Provider: p})
	}
	return out
}

func (e *Extractor) completeOnce(ctx context.Context, provider providers.InferenceProvider, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	resp, _, err := provider.Complete(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return providers.CompletionResponse{}, fmt.Errorf("%w: %w", ErrInferenceTimeout, err)
		}
		return providers.CompletionResponse{}, err
	}
	return resp, nil
}
