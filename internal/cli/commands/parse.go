package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/weft-lang/weft/internal/cli/ui"
	"github.com/weft-lang/weft/metamodel"
	"github.com/weft-lang/weft/xmi"
)

var (
	parseMetamodel string
	parseJSON      bool
	parseVerbose   bool
)

// NewParseCommand creates the parse command
func NewParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse an XMI document against the metamodel",
		Long: `Parse an XMI document and report its object and root counts.

Exits non-zero when the document does not conform to the metamodel; parse
errors carry file, line, and column.`,
		Example: `  # Parse with the workspace metamodel (weft.yml)
  weft parse models/team.xmi

  # Parse against an explicit metamodel
  weft parse models/team.xmi --metamodel schemas/org.weft.json

  # Emit structured errors for tooling
  weft parse models/team.xmi --json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runParse,
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&parseMetamodel, "metamodel", "m", "", "Metamodel JSON file (default: from weft.yml)")
	cmd.Flags().BoolVar(&parseJSON, "json", false, "Output errors in JSON format")
	cmd.Flags().BoolVarP(&parseVerbose, "verbose", "v", false, "Show load activity")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(parseMetamodel)
	if err != nil {
		return err
	}

	r, uri, err := openRepo(reg, args[0], parseVerbose)
	if err != nil {
		return err
	}

	res, err := r.Load(context.Background(), uri)
	if err != nil {
		return reportParseError(cmd, reg, err)
	}

	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Fprintf(cmd.OutOrStdout(), "✓ %s\n", args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "  %d object(s), %d root(s)\n",
		res.Len(), len(res.RootObjects()))
	return nil
}

// reportParseError renders a structured parse failure and returns a terse
// error so the process exits non-zero without repeating the details.
func reportParseError(cmd *cobra.Command, reg *metamodel.Registry, err error) error {
	var perr *xmi.ParseError
	if parseJSON {
		list := &xmi.ErrorList{}
		if errors.As(err, &perr) {
			list.Add(perr)
		}
		out, merr := json.MarshalIndent(list, "", "  ")
		if merr != nil {
			return merr
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return fmt.Errorf("parse failed")
	}

	if errors.As(err, &perr) {
		opts := ui.ErrorOptions{
			Level:   ui.ErrorLevelError,
			Context: fmt.Sprintf("PARSE ERROR [%s]", perr.Code),
			Problem: perr.Error(),
		}
		if perr.Code == xmi.ErrUnknownClass {
			if name := quotedName(perr.Message); name != "" {
				opts.Suggestions = ui.FindSimilar(name, classNames(reg), nil)
			}
			opts.HelpCommands = []string{"List classes: weft classes"}
		}
		fmt.Fprint(cmd.ErrOrStderr(), ui.FormatError(opts))
		return fmt.Errorf("parse failed")
	}
	return err
}

// quotedName extracts the first double-quoted token from a message.
func quotedName(msg string) string {
	i := strings.Index(msg, `"`)
	if i < 0 {
		return ""
	}
	rest := msg[i+1:]
	j := strings.Index(rest, `"`)
	if j < 0 {
		return ""
	}
	return rest[:j]
}
