package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ccms-ucsd/resultview/internal/core/ports/driving"
	"github.com/ccms-ucsd/resultview/internal/logger"
)

var (
	buildTask    string
	buildSpec    string
	buildTempDir string
	buildParams  map[string]string
)

var buildCmd = &cobra.Command{
	Use:   "build <block> <result-file> <output-dir> [<block> <result-file> <output-dir>...]",
	Short: "Pre-build the artifacts of result view blocks",
	Long: `Builds the derived artifact of each given block: a sorted copy of its
row file, an SQLite database, or nothing for plain tabular blocks.

Blocks are given as triples of block id, raw result file and output
directory. Building stops at the first block that fails.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildTask, "task", "", "task ID the result files belong to")
	buildCmd.Flags().StringVar(&buildSpec, "spec", "", "result specification document (XML or YAML)")
	buildCmd.Flags().StringVar(&buildTempDir, "temp", "", "directory for intermediate files (default from settings)")
	buildCmd.Flags().StringToStringVar(&buildParams, "param", nil, "specification parameter as key=value")
	_ = buildCmd.MarkFlagRequired("task")
	_ = buildCmd.MarkFlagRequired("spec")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := requireBuilder(); err != nil {
		return err
	}

	targets, err := parseTargets(args)
	if err != nil {
		return err
	}
	doc, err := specLoader.Load(buildSpec)
	if err != nil {
		return fmt.Errorf("loading specification: %w", err)
	}
	tempDir, err := resolveTempDir(buildTempDir)
	if err != nil {
		return err
	}

	report, err := resultBuilder.Build(cmd.Context(), driving.BuildRequest{
		TaskID:  buildTask,
		Spec:    doc,
		TempDir: tempDir,
		Params:  buildParams,
		Targets: targets,
	})
	printReport(cmd, report)
	if err != nil {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "build failed: %v\n", err)
		return err
	}
	logger.Info("run %s built %d block(s)", report.RunID, len(report.Results))
	return nil
}

func printReport(cmd *cobra.Command, report *driving.BuildReport) {
	if report == nil {
		return
	}
	ok := color.New(color.FgGreen)
	for _, r := range report.Results {
		ok.Fprint(cmd.OutOrStdout(), "built")
		resource := r.Resource
		if resource == "" {
			resource = "(no artifact)"
		}
		cmd.Printf(" %s [%s] %s\n", r.Block, r.Kind, resource)
	}
}

// parseTargets groups positional arguments into block triples.
func parseTargets(args []string) ([]driving.BlockTarget, error) {
	if len(args) == 0 || len(args)%3 != 0 {
		return nil, fmt.Errorf("expected <block> <result-file> <output-dir> triples, got %d argument(s)", len(args))
	}
	targets := make([]driving.BlockTarget, 0, len(args)/3)
	for i := 0; i < len(args); i += 3 {
		targets = append(targets, driving.BlockTarget{
			Block:      args[i],
			ResultFile: args[i+1],
			OutputDir:  args[i+2],
		})
	}
	return targets, nil
}

// resolveTempDir prefers the flag, then the configured directory.
func resolveTempDir(flag string) (string, error) {
	if flag != "" || settingsService == nil {
		return flag, nil
	}
	settings, err := settingsService.Get()
	if err != nil {
		return "", fmt.Errorf("reading settings: %w", err)
	}
	return settings.Build.TempDir, nil
}
