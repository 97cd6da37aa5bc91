// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/labscout/internal/logging"
	"github.com/pdiddy/labscout/pkg/types"
)

// maxKeywordQueryTerms is how many keywords form the keyword query.
const maxKeywordQueryTerms = 5

// minKeywordsForQuery is the keyword count that enables the keyword query.
const minKeywordsForQuery = 3

// Task is one backend call of a retrieval plan.
type Task struct {
	Backend string
	Query   string
	Limit   int
}

// Plan lists the backend calls for spec in submission order: the primary
// query against every backend, then synonym rewrites and the keyword query
// against the fast backends. backends is the fan-out order; fast backends
// not in it are ignored. Plan is pure.
func Plan(spec types.SearchSpec, backends []string, cfg types.SearchConfig) []Task {
	var tasks []Task
	primary := strings.TrimSpace(spec.PrimaryQuery)
	if primary != "" {
		for _, b := range backends {
			tasks = append(tasks, Task{Backend: b, Query: primary, Limit: cfg.PerSourceLimit})
		}
	}

	var fast []string
	for _, b := range backends {
		if slices.Contains(cfg.FastBackends, b) {
			fast = append(fast, b)
		}
	}
	if len(fast) == 0 {
		return tasks
	}

	if primary != "" {
		terms := make([]string, 0, len(spec.Synonyms))
		for term := range spec.Synonyms {
			terms = append(terms, term)
		}
		sort.Strings(terms)

		for _, term := range terms {
			if term == "" {
				continue
			}
			alts := spec.Synonyms[term]
			if len(alts) > cfg.MaxSynonymsPerTerm {
				alts = alts[:cfg.MaxSynonymsPerTerm]
			}
			for _, alt := range alts {
				rewritten := strings.ReplaceAll(primary, term, alt)
				if rewritten == primary || strings.TrimSpace(rewritten) == "" {
					continue
				}
				for _, b := range fast {
					tasks = append(tasks, Task{Backend: b, Query: rewritten, Limit: cfg.SynonymLimit})
				}
			}
		}
	}

	if len(spec.Keywords) >= minKeywordsForQuery {
		kw := spec.Keywords
		if len(kw) > maxKeywordQueryTerms {
			kw = kw[:maxKeywordQueryTerms]
		}
		query := strings.Join(kw, " ")
		for _, b := range fast {
			tasks = append(tasks, Task{Backend: b, Query: query, Limit: cfg.KeywordLimit})
		}
	}
	return tasks
}

// Retriever fans a SearchSpec out to its backends concurrently.
type Retriever struct {
	backends map[string]Backend
	order    []string
	limiters map[string]*rate.Limiter
	cfg      types.SearchConfig
	logger   *zap.Logger
}

// NewRetriever builds a Retriever. cfg is expected to carry defaults
// (see PipelineConfig.WithDefaults). When cfg.RequestsPerSecond is positive
// each backend is throttled independently.
func NewRetriever(backends []Backend, cfg types.SearchConfig, logger *zap.Logger) *Retriever {
	r := &Retriever{
		backends: make(map[string]Backend, len(backends)),
		limiters: make(map[string]*rate.Limiter, len(backends)),
		cfg:      cfg,
		logger:   logging.OrNop(logger),
	}
	for _, b := range backends {
		name := b.Name()
		if _, dup := r.backends[name]; dup {
			continue
		}
		r.backends[name] = b
		r.order = append(r.order, name)
		if cfg.RequestsPerSecond > 0 {
			r.limiters[name] = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
		}
	}
	return r
}

// Backends returns backend names in fan-out order.
func (r *Retriever) Backends() []string {
	return slices.Clone(r.order)
}

// Retrieve runs every planned task concurrently and concatenates results
// in task-submission order. A task that errors or times out contributes
// nothing; Retrieve itself never fails.
func (r *Retriever) Retrieve(ctx context.Context, spec types.SearchSpec) []types.Candidate {
	tasks := Plan(spec, r.order, r.cfg)
	results := make([][]types.Candidate, len(tasks))

	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			results[i] = r.run(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	var all []types.Candidate
	for _, res := range results {
		all = append(all, res...)
	}
	r.logger.Info("retrieval finished",
		zap.Int("tasks", len(tasks)),
		zap.Int("candidates", len(all)))
	return all
}

func (r *Retriever) run(ctx context.Context, t Task) []types.Candidate {
	timeout := r.cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultSourceTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := r.logger.With(zap.String("backend", t.Backend), zap.String("query", t.Query))

	if lim := r.limiters[t.Backend]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			log.Warn("rate limiter wait aborted", zap.Error(err))
			return nil
		}
	}

	start := time.Now()
	found, err := r.backends[t.Backend].Search(ctx, t.Query, t.Limit)
	if err != nil {
		log.Warn("backend search failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil
	}
	log.Debug("backend search", zap.Int("results", len(found)), zap.Duration("elapsed", time.Since(start)))
	return found
}
