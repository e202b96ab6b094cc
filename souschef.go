// Package souschef provides a top-level convenience entry point for turning
// raw language-model completions into schema-valid typed records.
//
// Usage:
//
//	import "github.com/souschef-ai/souschef"
//
//	schema := souschef.NewSchema("recipe").
//		NonEmptyString("nom").
//		IntegerRange("temps", true, 1, 600)
//
//	g := souschef.NewGate(souschef.DefaultConfig().Gate, complete, logger)
//	res := g.Request(ctx, souschef.Request{Prompt: prompt, Schema: schema})
//
// This is a thin wrapper around [gate.New]; both produce identical results.
// Use this package when you prefer the shorter import path.
package souschef

import (
	"go.uber.org/zap"

	"github.com/souschef-ai/souschef/config"
	"github.com/souschef-ai/souschef/gate"
	"github.com/souschef-ai/souschef/types"
)

// Request is the gate's request shape.
type Request = gate.Request

// Result is the gate's single return shape.
type Result = gate.Result

// CompletionFunc is the injected raw completion provider.
type CompletionFunc = gate.CompletionFunc

// Option configures the gate created by [NewGate].
type Option = gate.Option

// NewGate creates a [gate.Gate] around the injected completion function.
func NewGate(cfg config.GateConfig, complete CompletionFunc, logger *zap.Logger, opts ...Option) *gate.Gate {
	return gate.New(cfg, complete, logger, opts...)
}

// NewSchema creates an empty [types.SchemaDescriptor].
func NewSchema(name string) *types.SchemaDescriptor {
	return types.NewSchema(name)
}

// DefaultConfig returns the configuration used when nothing is supplied.
func DefaultConfig() *config.Config {
	return config.Default()
}

// LoadConfig builds a configuration from defaults, an optional YAML file,
// and SOUSCHEF_* environment overrides.
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}

// Re-export gate collaborators so callers never need to import gate/.

// WithCache replaces the gate's default in-memory response cache.
var WithCache = gate.WithCache

// WithQuota replaces the gate's default quota.
var WithQuota = gate.WithQuota

// WithMetrics attaches a metrics collector to the gate.
var WithMetrics = gate.WithMetrics
