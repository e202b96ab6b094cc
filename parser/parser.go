package parser

import (
	"go.uber.org/zap"

	"github.com/souschef-ai/souschef/recovery"
	"github.com/souschef-ai/souschef/types"
)

// Mode controls how much recovery and repair the parser accepts silently.
type Mode string

const (
	// ModeStrict surfaces any recovery beyond a direct decode, and any
	// validation error, as a parse error.
	ModeStrict Mode = "strict"
	// ModeLenient accepts repaired and partial recoveries silently, tagging
	// the result. The production default.
	ModeLenient Mode = "lenient"
)

// Observer receives parse-level events, typically a metrics collector.
type Observer interface {
	RecordRecovery(strategy string)
	RecordDroppedElement()
}

// Parser orchestrates the recovery engine and the schema validator.
type Parser struct {
	engine    *recovery.Engine
	validator *Validator
	logger    *zap.Logger
	observer  Observer
}

// Option configures a Parser.
type Option func(*Parser)

// WithObserver attaches a parse-event observer.
func WithObserver(obs Observer) Option {
	return func(p *Parser) { p.observer = obs }
}

// New creates a structured response parser.
func New(logger *zap.Logger, opts ...Option) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Parser{
		engine:    recovery.NewEngine(logger),
		validator: NewValidator(),
		logger:    logger.With(zap.String("component", "response_parser")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseOne extracts and validates a single object from raw model text.
//
// Strict mode errors on any repaired recovery or validation failure.
// Lenient mode surfaces only validation failures; recovery via the
// extraction/repair/partial strategies is accepted and tagged repaired.
func (p *Parser) ParseOne(raw string, schema *types.SchemaDescriptor, mode Mode) (*types.ParsedRecord, error) {
	res, err := p.engine.Recover(raw, false)
	if err != nil {
		return nil, types.NewError(types.ErrParse, "unrecoverable response").WithCause(err)
	}

	if mode == ModeStrict && res.Repaired() {
		return nil, types.NewError(types.ErrParse, "response required repair in strict mode")
	}

	record, err := p.validator.Validate(res.Value, schema)
	if err != nil {
		p.logger.Debug("validation failed",
			zap.String("schema", schema.Name),
			zap.Stringer("strategy", res.Strategy),
			zap.Error(err),
		)
		return nil, err
	}

	record.Strategy = int(res.Strategy)
	record.Confidence = confidenceOf(res)
	if p.observer != nil {
		p.observer.RecordRecovery(res.Strategy.String())
	}
	return record, nil
}

// ParseList extracts a JSON array from raw model text and validates each
// element independently against itemSchema.
//
// An element that fails validation is dropped with a logged reason rather
// than failing the whole list; a single malformed suggestion among many
// must not discard the rest. In strict mode a repaired recovery or any
// element failure is surfaced instead.
func (p *Parser) ParseList(raw string, itemSchema *types.SchemaDescriptor, mode Mode) ([]*types.ParsedRecord, error) {
	res, err := p.engine.Recover(raw, true)
	if err != nil {
		// List-mode recovery bottoms out at an empty array, never an error.
		return nil, types.NewError(types.ErrParse, "unrecoverable response").WithCause(err)
	}

	if mode == ModeStrict && res.Repaired() {
		return nil, types.NewError(types.ErrParse, "response required repair in strict mode")
	}

	items, ok := res.Value.([]any)
	if !ok {
		// A single object where a list was expected is wrapped rather than
		// discarded.
		if obj, isObj := res.Value.(map[string]any); isObj {
			items = []any{obj}
		} else {
			if mode == ModeStrict {
				return nil, types.NewError(types.ErrParse, "expected a JSON array")
			}
			p.logger.Warn("expected array, got scalar; returning empty list",
				zap.String("schema", itemSchema.Name),
			)
			return []*types.ParsedRecord{}, nil
		}
	}

	if p.observer != nil {
		p.observer.RecordRecovery(res.Strategy.String())
	}

	conf := confidenceOf(res)
	records := make([]*types.ParsedRecord, 0, len(items))
	for i, item := range items {
		record, err := p.validator.Validate(item, itemSchema)
		if err != nil {
			if mode == ModeStrict {
				return nil, err
			}
			p.logger.Debug("dropping invalid list element",
				zap.String("schema", itemSchema.Name),
				zap.Int("index", i),
				zap.Error(err),
			)
			if p.observer != nil {
				p.observer.RecordDroppedElement()
			}
			continue
		}
		record.Strategy = int(res.Strategy)
		record.Confidence = conf
		records = append(records, record)
	}
	return records, nil
}

func confidenceOf(res *recovery.Result) types.Confidence {
	if res.Repaired() {
		return types.ConfidenceRepaired
	}
	return types.ConfidenceExact
}
