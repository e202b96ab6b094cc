package gate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/souschef-ai/souschef/cache"
	"github.com/souschef-ai/souschef/config"
	"github.com/souschef-ai/souschef/internal/metrics"
	"github.com/souschef-ai/souschef/parser"
	"github.com/souschef-ai/souschef/quota"
	"github.com/souschef-ai/souschef/types"
)

// CompletionFunc is the injected raw completion provider. It must report a
// final success or failure exactly once per logical call; retries and
// backoff belong to the transport collaborator behind it.
type CompletionFunc func(ctx context.Context, prompt string) (string, error)

// Outcome identifies which Result variant was produced.
type Outcome string

const (
	OutcomeCacheHit    Outcome = "cache_hit"
	OutcomeQuotaDenied Outcome = "quota_denied"
	OutcomeParsed      Outcome = "parsed"
	OutcomeFailed      Outcome = "failed"
)

// Request describes one gate invocation.
type Request struct {
	Prompt   string
	Schema   *types.SchemaDescriptor
	ListMode bool
	TTL      time.Duration     // 0 means the configured default
	Model    string            // optional, part of the fingerprint
	Params   map[string]string // output-affecting parameters, part of the fingerprint
}

// Result is the single return shape of Gate.Request. Exactly one variant
// applies, identified by Outcome.
type Result struct {
	Outcome    Outcome
	Record     *types.ParsedRecord   // parsed / cache hit, single-object mode
	Records    []*types.ParsedRecord // parsed / cache hit, list mode
	Confidence types.Confidence      // parsed only
	RetryAfter time.Duration         // quota denials
	Reason     string                // failures
	FromCache  bool
}

// Gate composes the response cache, the invocation quota, the injected
// completion function, and the structured parser into one call.
type Gate struct {
	cfg      config.GateConfig
	cache    cache.ResponseCache
	quota    *quota.Quota
	parser   *parser.Parser
	complete CompletionFunc
	group    singleflight.Group
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithCache replaces the default in-memory response cache.
func WithCache(c cache.ResponseCache) Option {
	return func(g *Gate) { g.cache = c }
}

// WithQuota replaces the default quota built from the config limits.
func WithQuota(q *quota.Quota) Option {
	return func(g *Gate) { g.quota = q }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(g *Gate) { g.metrics = m }
}

// New creates a gate around the injected completion function. State is
// explicit and per-instance; multiple independent gates can coexist in one
// process.
func New(cfg config.GateConfig, complete CompletionFunc, logger *zap.Logger, opts ...Option) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gate{
		cfg:      cfg,
		complete: complete,
		logger:   logger.With(zap.String("component", "invocation_gate")),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cache == nil {
		g.cache = cache.NewMemoryCache(1000, logger)
	}
	if g.quota == nil {
		g.quota = quota.New(quota.Limits{Hourly: cfg.HourlyLimit, Daily: cfg.DailyLimit}, nil, logger)
	}
	var popts []parser.Option
	if g.metrics != nil {
		popts = append(popts, parser.WithObserver(g.metrics))
	}
	g.parser = parser.New(logger, popts...)
	return g
}

// Request runs the cache-first, quota-checked invocation flow. It never
// returns an error; every failure mode is a Result variant.
func (g *Gate) Request(ctx context.Context, req Request) *Result {
	traceID := uuid.NewString()
	log := g.logger.With(zap.String("trace_id", traceID))

	if req.Schema == nil {
		return g.failed(log, "nil schema descriptor")
	}

	fp := cache.Fingerprint(cache.Request{
		Prompt:   req.Prompt,
		Model:    req.Model,
		Schema:   req.Schema.Name,
		ListMode: req.ListMode,
		Params:   req.Params,
	})

	// 1. Cache lookup. A hit short-circuits everything: no quota check, no
	// model call, no side effects.
	if entry, err := g.cache.Get(ctx, fp); err == nil {
		if res, ok := g.decodeEntry(entry, req.ListMode); ok {
			g.count(OutcomeCacheHit)
			if g.metrics != nil {
				g.metrics.RecordCacheHit()
			}
			log.Debug("cache hit", zap.String("fingerprint", fp))
			return res
		}
		// Undecodable entry: drop it and fall through to a fresh call.
		_ = g.cache.Invalidate(ctx, fp)
	}
	if g.metrics != nil {
		g.metrics.RecordCacheMiss()
	}

	// 2. Quota check. Denial happens before the model is touched and
	// consumes nothing.
	if !g.quota.MayInvoke() {
		retry := g.quota.RetryAfter()
		g.count(OutcomeQuotaDenied)
		if g.metrics != nil {
			for _, w := range g.quota.Snapshot() {
				if w.Count >= w.Limit {
					g.metrics.RecordQuotaDenial(string(w.Kind))
				}
			}
		}
		log.Info("quota denied",
			zap.Duration("retry_after", retry),
		)
		return &Result{Outcome: OutcomeQuotaDenied, RetryAfter: retry}
	}

	// 3-5. Invoke, parse, store. Concurrent requests for the same
	// fingerprint collapse into one model call.
	v, _, _ := g.group.Do(fp, func() (any, error) {
		return g.invoke(ctx, log, req, fp), nil
	})
	return v.(*Result)
}

// invoke performs the model call, parse, and cache store.
func (g *Gate) invoke(ctx context.Context, log *zap.Logger, req Request, fp string) *Result {
	callCtx := ctx
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := g.complete(callCtx, req.Prompt)
	// Quota tracks attempts, not successes: a timed-out or failed call
	// still reached the network, and retry storms must not defeat the
	// limiter.
	g.quota.RecordInvocation()
	if g.metrics != nil {
		g.metrics.ObserveCompletion(time.Since(started).Seconds())
	}
	if err != nil {
		terr := types.NewError(types.ErrTransport, "completion call failed").WithCause(err).WithRetryable(true)
		log.Warn("completion failed", zap.Error(err))
		return g.failed(log, terr.Error())
	}

	mode := parser.ModeLenient
	if g.cfg.StrictMode {
		mode = parser.ModeStrict
	}

	var payload json.RawMessage
	res := &Result{Outcome: OutcomeParsed}
	if req.ListMode {
		records, perr := g.parser.ParseList(raw, req.Schema, mode)
		if perr != nil {
			return g.failed(log, perr.Error())
		}
		res.Records = records
		res.Confidence = listConfidence(records)
		payload, err = json.Marshal(records)
	} else {
		record, perr := g.parser.ParseOne(raw, req.Schema, mode)
		if perr != nil {
			return g.failed(log, perr.Error())
		}
		res.Record = record
		res.Confidence = record.Confidence
		payload, err = json.Marshal(record)
	}
	if err != nil {
		return g.failed(log, "marshal parsed result: "+err.Error())
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = g.cfg.DefaultTTL
	}
	if cerr := g.cache.Put(ctx, fp, payload, ttl); cerr != nil {
		// A cache write failure degrades to an uncached success.
		log.Warn("cache store failed", zap.Error(cerr))
	}

	g.count(OutcomeParsed)
	log.Debug("request parsed",
		zap.String("fingerprint", fp),
		zap.String("confidence", string(res.Confidence)),
	)
	return res
}

// decodeEntry rebuilds a Result from a cached payload.
func (g *Gate) decodeEntry(entry *cache.Entry, listMode bool) (*Result, bool) {
	res := &Result{Outcome: OutcomeCacheHit, FromCache: true}
	if listMode {
		if err := json.Unmarshal(entry.Payload, &res.Records); err != nil {
			return nil, false
		}
		res.Confidence = listConfidence(res.Records)
	} else {
		var record types.ParsedRecord
		if err := json.Unmarshal(entry.Payload, &record); err != nil {
			return nil, false
		}
		res.Record = &record
		res.Confidence = record.Confidence
	}
	return res, true
}

// failed builds the Failed variant; the gate's floor.
func (g *Gate) failed(log *zap.Logger, reason string) *Result {
	g.count(OutcomeFailed)
	log.Debug("request failed", zap.String("reason", reason))
	return &Result{Outcome: OutcomeFailed, Reason: reason}
}

func (g *Gate) count(outcome Outcome) {
	if g.metrics != nil {
		g.metrics.RecordRequest(string(outcome))
	}
}

// listConfidence is repaired when any element needed repair; an empty list
// is repaired by definition (it only arises from the fallback floor or
// from dropped elements).
func listConfidence(records []*types.ParsedRecord) types.Confidence {
	if len(records) == 0 {
		return types.ConfidenceRepaired
	}
	for _, r := range records {
		if r.Confidence == types.ConfidenceRepaired {
			return types.ConfidenceRepaired
		}
	}
	return types.ConfidenceExact
}
