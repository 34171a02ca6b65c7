package engine

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// Result is the final answer for one query.
type Result struct {
	Answer string
	Type   string
	Data   map[string]any
}

// Enricher may append anomaly/insight text to a money-domain answer. A nil
// enricher is a pass-through.
type Enricher interface {
	Enrich(ctx context.Context, res *Result, in Intent)
}

// ExternalParams are hints from an upstream classifier. They fill gaps in
// the extracted intent but never override what the message itself said.
type ExternalParams struct {
	Category string
	Merchant string
}

// Engine is the natural-language query engine: pattern-based intent
// extraction, deterministic routing, read-only execution. One ProcessQuery
// call runs to completion before the next; the registry cache is the only
// shared state and its refresh is idempotent.
type Engine struct {
	db        *sql.DB
	registry  *Registry
	extractor *Extractor
	money     *moneyHandler
	domains   *domainHandler
	enricher  Enricher
	log       *zap.Logger
	now       func() time.Time
}

// Options tunes engine construction. Zero values fall back to defaults.
type Options struct {
	Vocabulary     *Vocabulary
	CacheTTL       time.Duration
	CurrencySymbol string
	Location       *time.Location
	Enricher       Enricher
	Logger         *zap.Logger
	Now            func() time.Time
}

// New builds an engine over a read-only store handle.
func New(db *sql.DB, opts Options) *Engine {
	if opts.Vocabulary == nil {
		opts.Vocabulary = DefaultVocabulary()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	registry := NewRegistry(db, opts.Vocabulary, opts.CacheTTL, opts.Logger)
	fmtr := NewFormatter(opts.CurrencySymbol, opts.Location)
	return &Engine{
		db:        db,
		registry:  registry,
		extractor: NewExtractor(registry, opts.Vocabulary, opts.Now),
		money:     &moneyHandler{db: db, fmtr: fmtr, now: opts.Now},
		domains:   &domainHandler{db: db, fmtr: fmtr, now: opts.Now},
		enricher:  opts.Enricher,
		log:       opts.Logger,
		now:       opts.Now,
	}
}

// Registry exposes the engine's vocabulary registry, mainly so callers can
// invalidate it after bulk ingests.
func (e *Engine) Registry() *Registry { return e.registry }

var (
	actionRequestRe = regexp.MustCompile(`(?i)\b(?:remind|set|create|add|delete|remove|cancel|block|snooze|reply|send|schedule|mark|complete)\b`)
	adviceRe        = regexp.MustCompile(`(?i)\bshould\s+i\b|\brecommend\b|\bsuggest\b|\badvi[cs]e\b|\bhelp\s+me\b|\bwhat\s+should\b|\bhow\s+do\s+i\b`)
)

// IsDataQuery is the conservative pre-filter the calling layer uses before
// attempting this engine. Imperative action requests and advice-seeking
// phrasing go to the AI path even when a domain keyword also appears.
func (e *Engine) IsDataQuery(ctx context.Context, message string) bool {
	if actionRequestRe.MatchString(message) || adviceRe.MatchString(message) {
		return false
	}
	return e.extractor.Extract(ctx, message).Domain != DomainNone
}

// ExtractIntent exposes the extractor for callers that merge in externally
// parsed parameters before running the full pipeline.
func (e *Engine) ExtractIntent(ctx context.Context, message string) Intent {
	return e.extractor.Extract(ctx, message)
}

// ProcessQuery runs extraction, routing, handling and enrichment for one
// message. A nil result means "not a data query" and the caller should fall
// back. User-level failures come back as a Result of type "error"; this
// method itself never returns an error for them.
func (e *Engine) ProcessQuery(ctx context.Context, message string, external *ExternalParams) *Result {
	in := e.extractor.Extract(ctx, message)
	e.mergeExternal(&in, external)

	if in.Domain == DomainNone {
		return nil
	}

	e.log.Debug("routing query",
		zap.String("domain", string(in.Domain)),
		zap.String("action", string(in.Action)),
		zap.String("merchant", in.Params.Merchant),
		zap.String("category", in.Params.Category))

	res, err := e.route(ctx, in)
	if err != nil {
		e.log.Warn("query handler failed", zap.String("domain", string(in.Domain)), zap.Error(err))
		return &Result{Answer: fmt.Sprintf("Error processing query: %v", err), Type: "error"}
	}

	if e.enricher != nil && in.Domain == DomainMoney {
		e.enricher.Enrich(ctx, res, in)
	}
	return res
}

// mergeExternal fills gaps only: fields the message itself produced win.
func (e *Engine) mergeExternal(in *Intent, external *ExternalParams) {
	if external == nil {
		return
	}
	if in.Params.Category == "" && external.Category != "" {
		if c := e.registry.ResolveCategory(external.Category); c != "" {
			in.Params.Category = c
		}
	}
	if in.Params.Merchant == "" && external.Merchant != "" {
		m := external.Merchant
		in.Params.Merchant = m
		in.Params.Merchants = append(in.Params.Merchants, m)
	}
	if in.Domain == DomainNone && (in.Params.Merchant != "" || in.Params.Category != "") {
		in.Domain = DomainMoney
	}
}

func (e *Engine) route(ctx context.Context, in Intent) (*Result, error) {
	switch in.Domain {
	case DomainMoney:
		return e.money.handle(ctx, in)
	case DomainSubscriptions:
		return e.domains.subscriptions(ctx, in)
	case DomainEmail:
		return e.domains.email(ctx, in)
	case DomainTasks:
		return e.domains.tasks(ctx, in)
	case DomainFocus:
		return e.domains.focus(ctx, in)
	case DomainHabits:
		return e.domains.habits(ctx, in)
	case DomainCalendar:
		return e.domains.calendar(ctx, in)
	case DomainStats:
		return e.domains.stats(ctx, in)
	default:
		return nil, fmt.Errorf("no handler for domain %q", in.Domain)
	}
}
