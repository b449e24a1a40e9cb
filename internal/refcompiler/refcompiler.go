// Package refcompiler is the reference CompilerConfig/Compiler pair this
// engine ships so exported functions can actually run without a real
// Cranelift/LLVM backend. It does not lower Wasm bytecode to machine
// code at all: it
// passes each function's body straight through, unchanged, to be executed
// later by internal/exec's bytecode interpreter. Every other backend
// concern the compiler.Compiler contract specifies — relocations, a trap
// map, jump tables, unwind info — is legitimately empty here, because
// there is no machine code for any of those to describe.
package refcompiler

import (
	"context"

	"github.com/corewasm/corewasm/internal/compiler"
	"github.com/corewasm/corewasm/internal/unwind"
	"github.com/corewasm/corewasm/internal/wasm"
)

// Compiler implements compiler.Compiler by passthrough.
type Compiler struct{}

// New returns a ready-to-use reference Compiler.
func New() *Compiler { return &Compiler{} }

// CompileFunction implements compiler.Compiler.
func (c *Compiler) CompileFunction(_ context.Context, _ *wasm.ModuleInfo, _ wasm.DefinedFuncIndex, body wasm.FuncBody, _ *wasm.FuncType) (compiler.FunctionCompilation, error) {
	return compiler.FunctionCompilation{
		Body:   body.Bytes,
		Unwind: unwind.None(),
	}, nil
}

// Config is a compiler.CompilerConfig wrapping Compiler, for callers that
// want to go through the same Features()/Target() surface a real backend
// adapter would expose rather than constructing a Compiler directly.
type Config struct {
	features compiler.Features
	target   compiler.Target
	compiler *Compiler
}

// NewConfig returns a Config for target, with DefaultFeatures enabled.
func NewConfig(target compiler.Target) *Config {
	return &Config{features: compiler.DefaultFeatures(), target: target, compiler: New()}
}

func (c *Config) Features() compiler.Features     { return c.features }
func (c *Config) FeaturesMut() *compiler.Features { return &c.features }
func (c *Config) Target() compiler.Target         { return c.target }
func (c *Config) TargetMut() *compiler.Target     { return &c.target }
func (c *Config) Compiler() compiler.Compiler     { return c.compiler }
