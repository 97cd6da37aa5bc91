// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify confirms candidates through a DOI lookup and assigns the
// verification score: 100 when confirmed, 60 when a DOI could not be
// confirmed, 50 when there was no DOI to check.
package verify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/labscout/internal/logging"
	"github.com/pdiddy/labscout/pkg/types"
)

// Verification scores and source labels.
const (
	ScoreVerified   = 100.0
	ScoreUnverified = 60.0
	ScoreNoDOI      = 50.0

	SourceVerified = "DOI verified via CrossRef"
	SourceFailed   = "DOI lookup failed"
)

const defaultConcurrency = 8

// Verifier runs DOI lookups for a candidate set concurrently.
type Verifier struct {
	Lookup Lookuper

	// Timeout bounds each lookup (default 10s).
	Timeout     time.Duration
	Concurrency int
	Logger      *zap.Logger
}

// Verify sets Verified, VerificationScore and VerificationSource on every
// candidate. A confirmed DOI also refreshes the citation count; the
// citation score computed earlier is left as is. One failing lookup never
// affects another.
func (v *Verifier) Verify(ctx context.Context, candidates []types.Candidate) {
	log := logging.OrNop(v.Logger)
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = types.DefaultVerifyTimeout
	}
	limit := v.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range candidates {
		c := &candidates[i]
		if c.DOI == "" || v.Lookup == nil {
			c.Verified = false
			c.VerificationScore = ScoreNoDOI
			c.VerificationSource = c.Source
			continue
		}
		g.Go(func() error {
			v.verifyOne(ctx, c, timeout, log)
			return nil
		})
	}
	_ = g.Wait()

	verified := 0
	for _, c := range candidates {
		if c.Verified {
			verified++
		}
	}
	log.Info("verification finished", zap.Int("verified", verified), zap.Int("candidates", len(candidates)))
}

func (v *Verifier) verifyOne(ctx context.Context, c *types.Candidate, timeout time.Duration, log *zap.Logger) {
	c.Verified = false
	c.VerificationScore = ScoreUnverified
	c.VerificationSource = SourceFailed

	doi, ok := NormalizeDOI(c.DOI)
	if !ok {
		log.Debug("malformed DOI", zap.String("doi", c.DOI))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rec, err := v.Lookup.Lookup(ctx, doi)
	if err != nil {
		log.Warn("DOI lookup failed", zap.String("doi", doi), zap.Error(err))
		return
	}
	if !rec.Exists {
		return
	}

	c.Verified = true
	c.VerificationScore = ScoreVerified
	c.VerificationSource = SourceVerified
	if rec.Citations != nil && *rec.Citations > 0 {
		n := *rec.Citations
		c.Citations = &n
	}
}
