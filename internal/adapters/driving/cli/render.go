package cli

import (
	"fmt"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/ccms-ucsd/resultview/internal/core/ports/driving"
)

// blockFlags are the flags shared by commands working on one block.
type blockFlags struct {
	task    string
	spec    string
	block   string
	file    string
	outDir  string
	tempDir string
	params  map[string]string
}

func (f *blockFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.task, "task", "", "task ID the result file belongs to")
	cmd.Flags().StringVar(&f.spec, "spec", "", "result specification document (XML or YAML)")
	cmd.Flags().StringVar(&f.block, "block", "", "id of the block to render")
	cmd.Flags().StringVar(&f.file, "file", "", "raw result file of the block")
	cmd.Flags().StringVar(&f.outDir, "outdir", ".", "output directory for derived artifacts")
	cmd.Flags().StringVar(&f.tempDir, "temp", "", "directory for intermediate files (default from settings)")
	cmd.Flags().StringToStringVar(&f.params, "param", nil, "specification parameter as key=value")
	_ = cmd.MarkFlagRequired("spec")
	_ = cmd.MarkFlagRequired("block")
}

func (f *blockFlags) request() (driving.RenderRequest, error) {
	doc, err := specLoader.Load(f.spec)
	if err != nil {
		return driving.RenderRequest{}, fmt.Errorf("loading specification: %w", err)
	}
	tempDir, err := resolveTempDir(f.tempDir)
	if err != nil {
		return driving.RenderRequest{}, err
	}
	return driving.RenderRequest{
		TaskID:  f.task,
		Spec:    doc,
		TempDir: tempDir,
		Params:  f.params,
		Target: driving.BlockTarget{
			Block:      f.block,
			ResultFile: f.file,
			OutputDir:  f.outDir,
		},
	}, nil
}

var (
	renderFlags  blockFlags
	renderPretty bool
	renderSelect string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the JSON data of a result view block",
	Long: `Creates the result of one block and prints its data as JSON: an array
with one object per row, keyed by field and attribute names, plus an "id"
key holding the row index.

Use --select with a JSONPath expression to print only matching values.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderFlags.register(renderCmd)
	renderCmd.Flags().BoolVar(&renderPretty, "pretty", false, "indent the output and sort object keys")
	renderCmd.Flags().StringVar(&renderSelect, "select", "", "JSONPath expression applied to the data")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	if err := requireBuilder(); err != nil {
		return err
	}

	req, err := renderFlags.request()
	if err != nil {
		return err
	}
	data, err := resultBuilder.Render(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if !renderPretty && renderSelect == "" {
		cmd.Println(data)
		return nil
	}
	return printJSON(cmd, data)
}

// printJSON reformats data, applying --select and --pretty.
func printJSON(cmd *cobra.Command, data string) error {
	if data == "" {
		return nil
	}
	value, err := oj.ParseString(data)
	if err != nil {
		return fmt.Errorf("parsing result data: %w", err)
	}

	opts := &ojg.Options{}
	if renderPretty {
		opts.Indent = 2
		opts.Sort = true
	}

	if renderSelect == "" {
		cmd.Println(oj.JSON(value, opts))
		return nil
	}
	path, err := jp.ParseString(renderSelect)
	if err != nil {
		return fmt.Errorf("invalid --select expression: %w", err)
	}
	for _, match := range path.Get(value) {
		cmd.Println(oj.JSON(match, opts))
	}
	return nil
}
