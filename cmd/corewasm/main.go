// Command corewasm is a small CLI over the corewasm embedder API: translate
// and optionally run a Wasm binary. Grounded in the cross-repo convention of
// driving a runtime's CLI with cobra+pflag (k6, OPA, moby all do this), per
// SPEC_FULL.md's AMBIENT STACK section.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corewasm/corewasm"
	"github.com/corewasm/corewasm/internal/binary"
	"github.com/corewasm/corewasm/internal/wasm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "corewasm",
		Short:         "A standalone WebAssembly execution engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd(), newValidateCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate module.wasm",
		Short: "Translate a module and report any WasmError",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := binary.Translate(f); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var invoke string
	var rawArgs string

	cmd := &cobra.Command{
		Use:   "run module.wasm",
		Short: "Instantiate a module and invoke an exported function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			store := corewasm.NewStore(corewasm.NewEngine(nil))
			module, err := corewasm.NewModule(ctx, store, data)
			if err != nil {
				return err
			}
			defer module.Close()

			inst, err := module.Instantiate(ctx, nil)
			if err != nil {
				return err
			}

			if invoke == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "module instantiated")
				return nil
			}

			fn, err := inst.GetFunction(invoke)
			if err != nil {
				return err
			}

			callArgs, err := parseArgs(rawArgs, fn.Type().Params)
			if err != nil {
				return err
			}

			results, err := fn.Call(ctx, callArgs)
			if err != nil {
				if rt, ok := err.(*corewasm.RuntimeError); ok {
					return fmt.Errorf("trap: %s", rt.Error())
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatResults(results))
			return nil
		},
	}
	cmd.Flags().StringVar(&invoke, "invoke", "", "name of the exported function to call")
	cmd.Flags().StringVar(&rawArgs, "args", "", "comma-separated integer arguments")
	return cmd
}

func parseArgs(raw string, params []wasm.ValueType) ([]uint64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != len(params) {
		return nil, fmt.Errorf("expected %d args, got %d", len(params), len(parts))
	}
	out := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		out[i] = uint64(v)
	}
	return out, nil
}

func formatResults(results []uint64) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = strconv.FormatUint(r, 10)
	}
	return strings.Join(parts, ", ")
}
