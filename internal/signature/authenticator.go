// Package signature corroborates matched records by comparing the captured
// signature image against the registry's reference image via an external
// comparison service.
package signature

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"veridoc/internal/domain"
	"veridoc/internal/port"
)

// Score cutoffs for mapping the service's similarity score to a status.
const (
	authenticatedThreshold = 0.8
	reviewThreshold        = 0.5
)

const compareTask = "Compare these two signature images and rate their similarity from 0.0 to 1.0. " +
	"The first image is a captured signature, the second is the reference signature on file."

// Config holds fan-out and retry settings for the authenticator.
type Config struct {
	Concurrency int
	MaxRetries  int
}

// Authenticator runs signature authentication for the matched items of a
// validation run. Items fan out over a bounded semaphore; each result is
// written back by index so output order matches input order.
type Authenticator struct {
	comparer port.SignatureComparer
	fetcher  port.ImageFetcher
	cfg      Config
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(comparer port.SignatureComparer, fetcher port.ImageFetcher, cfg Config) *Authenticator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Authenticator{comparer: comparer, fetcher: fetcher, cfg: cfg}
}

// AuthenticateAll fills results[i].SignatureAuthentication for every item
// whose match produced a best candidate. Failures are isolated per item and
// never abort the rest of the run; a canceled context marks the remaining
// items as errored without touching already-computed matches.
func (a *Authenticator) AuthenticateAll(ctx context.Context, items []domain.LineItem, results []domain.MatchResult) {
	sem := make(chan struct{}, a.cfg.Concurrency)
	var wg sync.WaitGroup

	for i := range results {
		if results[i].BestMatch == nil {
			continue
		}

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }() // release

			auth := a.authenticateOne(ctx, items[idx], results[idx].BestMatch)
			results[idx].SignatureAuthentication = auth
		}(i)
	}

	wg.Wait()
}

func (a *Authenticator) authenticateOne(ctx context.Context, item domain.LineItem, ref *domain.ReferenceRecord) *domain.SignatureAuthResult {
	if ref.SignatureReferenceURL == "" {
		return &domain.SignatureAuthResult{Status: domain.SignatureNoReference}
	}
	if item.SignatureImageURL == "" {
		return &domain.SignatureAuthResult{Status: domain.SignatureNoCapturedImage}
	}

	captured, capturedType, err := a.fetcher.Fetch(ctx, item.SignatureImageURL)
	if err != nil {
		log.Printf("signature.Authenticator: fetching captured image: %v", err)
		return &domain.SignatureAuthResult{Status: domain.SignatureError, Analysis: "failed to fetch captured signature image"}
	}
	reference, referenceType, err := a.fetcher.Fetch(ctx, ref.SignatureReferenceURL)
	if err != nil {
		log.Printf("signature.Authenticator: fetching reference image: %v", err)
		return &domain.SignatureAuthResult{Status: domain.SignatureError, Analysis: "failed to fetch reference signature image"}
	}

	out, err := a.compareWithRetry(ctx, port.CompareInput{
		CapturedImage:  captured,
		CapturedType:   capturedType,
		ReferenceImage: reference,
		ReferenceType:  referenceType,
		Task:           compareTask,
	})
	if err != nil {
		return &domain.SignatureAuthResult{Status: statusForError(err), Analysis: err.Error()}
	}

	return &domain.SignatureAuthResult{
		SimilarityScore: out.SimilarityScore,
		Status:          statusForScore(out.SimilarityScore),
		Analysis:        out.Analysis,
	}
}

// compareWithRetry retries the external call with doubled backoff. Only the
// comparison service gets retries; the rest of the pipeline has none.
func (a *Authenticator) compareWithRetry(ctx context.Context, input port.CompareInput) (*port.CompareOutput, error) {
	backoff := time.Second
	var lastErr error

	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, NewAIError(ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		out, err := a.comparer.Compare(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		// Misconfiguration and malformed responses will not improve on retry.
		var cmpErr *ComparisonError
		if errors.Is(err, ErrNoAPIKey) || (errors.As(err, &cmpErr) && cmpErr.Kind == "parse_error") {
			return nil, err
		}
		log.Printf("signature.Authenticator: compare attempt %d failed: %v", attempt+1, err)
	}
	return nil, lastErr
}

func statusForScore(score float64) domain.SignatureAuthStatus {
	switch {
	case score >= authenticatedThreshold:
		return domain.SignatureAuthenticated
	case score >= reviewThreshold:
		return domain.SignatureReviewNeeded
	default:
		return domain.SignatureSuspicious
	}
}

func statusForError(err error) domain.SignatureAuthStatus {
	if errors.Is(err, ErrNoAPIKey) {
		return domain.SignatureNoAPIKey
	}
	var cmpErr *ComparisonError
	if errors.As(err, &cmpErr) {
		switch cmpErr.Kind {
		case "parse_error":
			return domain.SignatureParseError
		case "ai_error":
			return domain.SignatureAIError
		}
	}
	return domain.SignatureError
}
