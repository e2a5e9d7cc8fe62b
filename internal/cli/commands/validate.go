package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/weft-lang/weft/internal/cli/ui"
)

var (
	validateMetamodel string
	validateVerbose   bool
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a document against the metamodel's multiplicity bounds",
		Long: `Parse a document and check every object's required features.

Upper bounds are enforced during parsing; validate adds the lower-bound
check a finished model must satisfy.`,
		Example: `  weft validate models/team.xmi
  weft validate models/team.xmi --metamodel schemas/org.weft.json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runValidate,
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&validateMetamodel, "metamodel", "m", "", "Metamodel JSON file (default: from weft.yml)")
	cmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "Show load activity")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(validateMetamodel)
	if err != nil {
		return err
	}

	r, uri, err := openRepo(reg, args[0], validateVerbose)
	if err != nil {
		return err
	}

	res, err := r.Load(context.Background(), uri)
	if err != nil {
		return reportParseError(cmd, reg, err)
	}

	violations := r.Validate(res)
	if len(violations) == 0 {
		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (%d object(s))\n",
			args[0], res.Len())
		return nil
	}

	table := ui.NewTable(cmd.OutOrStdout(), []string{"CLASS", "FEATURE", "PROBLEM"}, nil)
	for _, v := range violations {
		table.AddRow(v.Class, v.Feature, v.Message)
	}
	table.Render()
	return fmt.Errorf("%d violation(s) in %s", len(violations), args[0])
}
