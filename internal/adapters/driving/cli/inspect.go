package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
)

var inspectFlags blockFlags

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Describe the result of a result view block",
	Long: `Creates the result of one block and prints what it is: its kind, the
file it reads, the artifact it builds, and for tabular results the field
names, the attributes added by processors and the row count.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectFlags.register(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}

// inspectStyles renders the summary.
type inspectStyles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	muted lipgloss.Style
}

func newInspectStyles() inspectStyles {
	return inspectStyles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		value: lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")),
		muted: lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
	}
}

func runInspect(cmd *cobra.Command, _ []string) error {
	if err := requireBuilder(); err != nil {
		return err
	}

	req, err := inspectFlags.request()
	if err != nil {
		return err
	}
	summary, err := resultBuilder.Describe(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}

	cmd.Println(renderSummary(summary, newInspectStyles()))
	return nil
}

func renderSummary(s *domain.ResultSummary, st inspectStyles) string {
	var b strings.Builder
	b.WriteString(st.title.Render("Block " + s.Block))
	b.WriteString("\n")

	line := func(label, value string) {
		if value == "" {
			b.WriteString(st.label.Render(label+":") + " " + st.muted.Render("-") + "\n")
			return
		}
		b.WriteString(st.label.Render(label+":") + " " + st.value.Render(value) + "\n")
	}

	line("Kind", s.Kind)
	line("File", s.File)
	line("Artifact", s.Resource)
	if s.Size > 0 {
		line("Size", fmt.Sprintf("%d bytes", s.Size))
	}
	if len(s.Fields) > 0 {
		line("Rows", fmt.Sprintf("%d", s.Rows))
		line("Fields", strings.Join(s.Fields, ", "))
		line("Attributes", strings.Join(s.Attributes, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
