package corewasm

import (
	"github.com/corewasm/corewasm/internal/compiler"
	"github.com/corewasm/corewasm/internal/refcompiler"
	"github.com/corewasm/corewasm/internal/tunables"
)

// Engine owns the compiled pages produced from every Module it creates:
// a CompilerConfig (the real backend contract — see
// internal/compiler — or internal/refcompiler's reference interpreter
// backend when none is configured) and the Tunables derived from its
// target's pointer width.
type Engine struct {
	compilerConfig compiler.CompilerConfig
	tunables       tunables.Tunables
}

// NewEngine builds an Engine from config (nil selects every StoreConfig
// default: the reference interpreter backend at compiler.DefaultTarget()).
func NewEngine(config *StoreConfig) *Engine {
	if config == nil {
		config = NewStoreConfig()
	}
	applyLogger(config.logger)

	cc := config.compilerConfig
	if cc == nil {
		cc = refcompiler.NewConfig(config.target)
	}
	tun := compiler.TunablesFor(cc.Target())

	return &Engine{compilerConfig: cc, tunables: tun}
}

// CompilerConfig returns the backend this Engine compiles with.
func (e *Engine) CompilerConfig() compiler.CompilerConfig { return e.compilerConfig }

// Tunables returns the memory/table sizing policy this Engine's Modules
// are compiled against.
func (e *Engine) Tunables() tunables.Tunables { return e.tunables }
