package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/weft-lang/weft/internal/cli/ui"
	"github.com/weft-lang/weft/metamodel"
)

var classesMetamodel string

// NewClassesCommand creates the classes command
func NewClassesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List the metamodel's classes and their features",
		Example: `  weft classes
  weft classes --metamodel schemas/org.weft.json`,
		Args:         cobra.NoArgs,
		RunE:         runClasses,
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&classesMetamodel, "metamodel", "m", "", "Metamodel JSON file (default: from weft.yml)")

	return cmd
}

func runClasses(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(classesMetamodel)
	if err != nil {
		return err
	}

	table := ui.NewTable(cmd.OutOrStdout(), []string{"CLASS", "PACKAGE", "FEATURE", "KIND", "TYPE", "BOUNDS"}, nil)
	for _, class := range reg.Classes() {
		feats, err := reg.AllFeatures(class.Name)
		if err != nil {
			return err
		}
		if len(feats) == 0 {
			table.AddRow(class.Name, class.Package, "", "", "", "")
			continue
		}
		for i, f := range feats {
			name, pkg := "", ""
			if i == 0 {
				name, pkg = class.Name, class.Package
			}
			table.AddRow(name, pkg, f.Name, string(f.Kind), featureType(f), bounds(f.Multiplicity))
		}
	}
	table.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d class(es)\n", len(reg.Classes()))
	return nil
}

func featureType(f metamodel.Feature) string {
	if f.IsReference() {
		if f.Containment {
			return f.Target + " (contained)"
		}
		return f.Target
	}
	return string(f.Type)
}

func bounds(m metamodel.Multiplicity) string {
	upper := "*"
	if m.Upper != metamodel.Unbounded {
		upper = strconv.Itoa(m.Upper)
	}
	return fmt.Sprintf("%d..%s", m.Lower, upper)
}
