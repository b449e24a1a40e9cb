package compiler

import (
	"os"
	"strings"
)

// Features is the set of Wasm proposal flags a CompilerConfig exposes,
// adapted from wazero's global WAZEROFEATURES flag registry
// (internal/features) into a per-CompilerConfig struct: this project's
// Features gate per-module lowering choices, not process-wide
// properties, so they live on the value a CompilerConfig owns rather than
// behind a package-level lock.
type Features struct {
	SignExtension        bool
	BulkMemoryOperations bool
	ReferenceTypes       bool
	MultiValue           bool
	SIMD                 bool
	Threads              bool
}

// featureEnvVar mirrors wazero's WAZEROFEATURES convention for
// opting into features from the process environment.
const featureEnvVar = "COREWASM_FEATURES"

func (f *Features) table() map[string]*bool {
	return map[string]*bool{
		"sign-extension":  &f.SignExtension,
		"bulk-memory":     &f.BulkMemoryOperations,
		"reference-types": &f.ReferenceTypes,
		"multi-value":     &f.MultiValue,
		"simd":            &f.SIMD,
		"threads":         &f.Threads,
	}
}

// EnableFromEnvironment turns on every feature named in COREWASM_FEATURES
// (comma separated). Idempotent; unrecognized names are ignored.
func (f *Features) EnableFromEnvironment() {
	raw := os.Getenv(featureEnvVar)
	if raw == "" {
		return
	}
	f.Enable(strings.Split(raw, ",")...)
}

// Enable turns on the named features (same vocabulary as
// EnableFromEnvironment), ignoring unrecognized names.
func (f *Features) Enable(names ...string) {
	table := f.table()
	for _, name := range names {
		if p, ok := table[strings.TrimSpace(name)]; ok {
			*p = true
		}
	}
}

// DefaultFeatures is the WebAssembly 1.0 (20191205) MVP plus the
// sign-extension and multi-value proposals; every other proposal is off.
func DefaultFeatures() Features {
	return Features{SignExtension: true, MultiValue: true}
}
