// Package compiler specifies the backend-facing contract and the
// artifacts a backend produces. Concrete ISA codegen (Cranelift/LLVM
// adapters) is out of scope — this package only specifies the interface
// such adapters must satisfy, plus one reference backend (see
// internal/refcompiler) good enough to make exported functions
// observable without a real JIT.
package compiler

import (
	"context"

	"github.com/corewasm/corewasm/internal/tunables"
	"github.com/corewasm/corewasm/internal/wasm"
)

// Target names the triple and CPU feature set a CompilerConfig will lower
// for.
type Target struct {
	Triple       string // e.g. "x86_64-unknown-linux-gnu"
	CPUFeatures  []string
	PointerWidth int // 4 or 8
}

// DefaultTarget returns a placeholder Target with triple "host" at 8-byte
// pointer width (the only width this repo's reference backend runs on).
// It does not inspect the process's GOARCH/GOOS.
func DefaultTarget() Target {
	return Target{Triple: "host", PointerWidth: 8}
}

// CompilerConfig is the interface a backend adapter must expose:
// accessors for the Wasm proposal flags and target it will compile for,
// and a factory for the Compiler that actually lowers function bodies.
type CompilerConfig interface {
	Features() Features
	FeaturesMut() *Features
	Target() Target
	TargetMut() *Target

	// Compiler returns the object that performs compilation. Called once
	// per Module compiled (corewasm.NewModule).
	Compiler() Compiler
}

// Compiler lowers one translated module into a Compilation. A concrete
// backend is free to parallelize across functions internally; this
// interface only specifies the unit of work and its result.
type Compiler interface {
	// CompileFunction lowers one function body. idx is its DefinedFuncIndex;
	// sig is its signature, already resolved from the module's Type
	// section.
	CompileFunction(ctx context.Context, module *wasm.ModuleInfo, idx wasm.DefinedFuncIndex, body wasm.FuncBody, sig *wasm.FuncType) (FunctionCompilation, error)
}

// baseConfig is embedded by concrete CompilerConfig implementations to
// avoid repeating the four accessor methods.
type baseConfig struct {
	features Features
	target   Target
}

func (c *baseConfig) Features() Features     { return c.features }
func (c *baseConfig) FeaturesMut() *Features { return &c.features }
func (c *baseConfig) Target() Target         { return c.target }
func (c *baseConfig) TargetMut() *Target     { return &c.target }

// CraneliftConfig is a CompilerConfig shaped like a Cranelift-backed
// backend would be: an optimization level and whether to run Cranelift's
// own IR verifier after lowering. It has no codegen of its own — concrete
// ISA backends are external collaborators; this type only proves
// CompilerConfig is pluggable.
type CraneliftConfig struct {
	baseConfig
	OptLevel       OptLevel
	EnableVerifier bool
	compiler       Compiler
}

// NewCraneliftConfig builds a CraneliftConfig wrapping the given Compiler
// (normally supplied by an external Cranelift adapter; tests and the
// reference engine wire in internal/refcompiler instead).
func NewCraneliftConfig(c Compiler) *CraneliftConfig {
	return &CraneliftConfig{
		baseConfig: baseConfig{features: DefaultFeatures(), target: DefaultTarget()},
		OptLevel:   OptLevelSpeed,
		compiler:   c,
	}
}

func (c *CraneliftConfig) Compiler() Compiler { return c.compiler }

// LLVMConfig is the LLVM-shaped analogue of CraneliftConfig.
type LLVMConfig struct {
	baseConfig
	OptLevel       OptLevel
	EnableVerifier bool
	compiler       Compiler
}

// NewLLVMConfig builds an LLVMConfig wrapping the given Compiler.
func NewLLVMConfig(c Compiler) *LLVMConfig {
	return &LLVMConfig{
		baseConfig: baseConfig{features: DefaultFeatures(), target: DefaultTarget()},
		OptLevel:   OptLevelSpeed,
		compiler:   c,
	}
}

func (c *LLVMConfig) Compiler() Compiler { return c.compiler }

// OptLevel is shared vocabulary between the two concrete configs above.
type OptLevel byte

const (
	OptLevelNone OptLevel = iota
	OptLevelSpeed
	OptLevelSpeedAndSize
)

// TunablesFor derives Tunables from a Target, the way an Engine derives its
// memory/table sizing policy from whichever CompilerConfig it was built
// with.
func TunablesFor(t Target) tunables.Tunables {
	return tunables.New(tunables.Target{PointerSize: t.PointerWidth})
}
