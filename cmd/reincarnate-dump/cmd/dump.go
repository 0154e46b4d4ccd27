package cmd

import (
	"fmt"
	"os"
	"strings"

	"reincarnate/internal/hast"
	"reincarnate/internal/ir"
	"reincarnate/internal/linear"
	"reincarnate/internal/pipeline"
	"reincarnate/internal/structurize"
	"reincarnate/internal/transforms"

	"github.com/spf13/cobra"
)

var (
	presetName   string
	skipPasses   []string
	functionName string
	dumpIR       bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Run the pipeline over the sample module and print IR and lowered AST",
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringVar(&presetName, "preset", "optimized", "lowering preset: literal or optimized")
	dumpCmd.Flags().StringSliceVar(&skipPasses, "skip-pass", nil, "pass names to skip (see "+strings.Join(pipeline.PassNames, ", ")+")")
	dumpCmd.Flags().StringVar(&functionName, "function", "", "only dump functions whose name matches this filter")
	dumpCmd.Flags().BoolVar(&dumpIR, "dump-ir", false, "print the transformed IR before lowering")
}

func runDump(_ *cobra.Command, _ []string) error {
	passCfg, lowering, ok := pipeline.Preset(presetName).Resolve(skipPasses)
	if !ok {
		return fmt.Errorf("unknown preset %q (want %q or %q)", presetName, pipeline.PresetLiteral, pipeline.PresetOptimized)
	}

	module := buildSampleModule()
	tp := transforms.DefaultPipeline(passCfg)
	tp.Logf = func(format string, args ...any) { fmt.Fprintf(os.Stderr, format+"\n", args...) }

	out, err := tp.Run(module)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	if out.Warning != nil {
		fmt.Fprintln(os.Stderr, out.Warning.Error())
	}

	debug := pipeline.DebugConfig{FunctionFilter: functionName}
	if dumpIR {
		fmt.Println(ir.Print(out.Module))
	}

	out.Module.Functions.Range(func(_ ir.FuncId, f ir.Function) {
		if !debug.ShouldDump(f.Name) {
			return
		}
		fmt.Printf("== %s ==\n", f.Name)
		fmt.Println(lowerFunction(&f, lowering))
	})

	return nil
}

// lowerFunction runs the structurizer, linear lowering, AST emission,
// and the three AST rewrites (ternary and minmax gated by lowering,
// compound-assign always) over a single function, returning its final printed form — the part of the
// pipeline that runs after TransformPipeline.Run and only when
// PipelineOutput.StoppedEarly is false (spec §4.14-§4.17).
func lowerFunction(f *ir.Function, lowering pipeline.LoweringConfig) string {
	shape := structurize.Structurize(f)
	stmts := linear.Linearize(f, shape)
	resolved := linear.Resolve(f, stmts)
	body := hast.Emit(f, resolved, hast.EmitConfig{
		WhileConditionHoisting: lowering.WhileConditionHoisting,
		LogicalOperators:       lowering.LogicalOperators,
	})

	if lowering.Ternary {
		body = hast.RewriteTernary(body)
	}
	if lowering.Minmax {
		body = hast.RewriteMinMax(body)
	}
	body = hast.RewriteCompoundAssign(body)

	return hast.Print(body)
}
