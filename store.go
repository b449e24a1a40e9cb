// Package corewasm is the embedder-facing API: a standalone WebAssembly
// execution engine modeled on wasmer-rust's Store/Engine/Module/Instance
// object graph, built on the internal/* packages that implement
// translation, compilation-artifact bookkeeping, and instantiation.
//
// Modeled on wazero's runtime.go/config.go top-level API shape
// (RuntimeConfig builder, Runtime owning compiled modules) generalized to
// a Store-owns-Engine, Engine-owns-compiled-pages, Artifact-shared-by-
// Instances ownership model.
package corewasm

import (
	"github.com/sirupsen/logrus"

	"github.com/corewasm/corewasm/internal/binary"
	"github.com/corewasm/corewasm/internal/compiler"
	"github.com/corewasm/corewasm/internal/instance"
)

// Logger is the package-level diagnostic logger every corewasm component
// defers to. StoreConfig.WithLogger propagates a replacement down into
// internal/binary and internal/instance, which hold their own copies
// (logrus.FieldLogger, not *logrus.Logger, so a caller can hand in a
// logrus.Entry with fields already attached).
var Logger logrus.FieldLogger = logrus.StandardLogger()

func applyLogger(l logrus.FieldLogger) {
	Logger = l
	binary.Logger = l
	instance.Logger = l
}

// StoreConfig is an immutable, chained-`With*` builder, matching wazero's
// RuntimeConfig.clone() pattern: every With* method returns a new value,
// never mutates its receiver.
type StoreConfig struct {
	logger         logrus.FieldLogger
	compilerConfig compiler.CompilerConfig
	target         compiler.Target
}

// NewStoreConfig returns a StoreConfig with logrus.StandardLogger() and
// compiler.DefaultTarget(), and no CompilerConfig set — Engine falls back
// to internal/refcompiler when none is supplied.
func NewStoreConfig() *StoreConfig {
	return &StoreConfig{logger: logrus.StandardLogger(), target: compiler.DefaultTarget()}
}

func (c *StoreConfig) clone() *StoreConfig {
	cp := *c
	return &cp
}

// WithLogger returns a copy of c using l for every subsequent diagnostic.
func (c *StoreConfig) WithLogger(l logrus.FieldLogger) *StoreConfig {
	cp := c.clone()
	cp.logger = l
	return cp
}

// WithCompiler returns a copy of c that builds its Engine around cc
// instead of the reference interpreter backend.
func (c *StoreConfig) WithCompiler(cc compiler.CompilerConfig) *StoreConfig {
	cp := c.clone()
	cp.compilerConfig = cc
	return cp
}

// WithTarget returns a copy of c compiling for t instead of
// compiler.DefaultTarget().
func (c *StoreConfig) WithTarget(t compiler.Target) *StoreConfig {
	cp := c.clone()
	cp.target = t
	return cp
}

// Store owns an Engine. Stores are shareable across goroutines; all the
// synchronization they need is already internal to Engine/Artifact.
type Store struct {
	engine *Engine
}

// NewStore wraps engine.
func NewStore(engine *Engine) *Store {
	return &Store{engine: engine}
}

// Engine returns the Store's Engine.
func (s *Store) Engine() *Engine { return s.engine }
