package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/weft-lang/weft/internal/cli/config"
	"github.com/weft-lang/weft/model"
	"github.com/weft-lang/weft/repo"
)

var (
	roundtripMetamodel string
	roundtripOutput    string
	roundtripVerbose   bool
)

// NewRoundtripCommand creates the roundtrip command
func NewRoundtripCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roundtrip <file>",
		Short: "Parse, serialize, and reparse a document, checking equality",
		Long: `Parse a document, serialize it back, parse the output again, and
verify the two models are observably equal: same classes, same feature
order, same values, same containment shape. The serialized form is
byte-stable, so a second pass reproduces it exactly.`,
		Example: `  weft roundtrip models/team.xmi
  weft roundtrip models/team.xmi -o out/team.xmi`,
		Args:         cobra.ExactArgs(1),
		RunE:         runRoundtrip,
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&roundtripMetamodel, "metamodel", "m", "", "Metamodel JSON file (default: from weft.yml)")
	cmd.Flags().StringVarP(&roundtripOutput, "output", "o", "", "Write the serialized document here")
	cmd.Flags().BoolVarP(&roundtripVerbose, "verbose", "v", false, "Show load activity")

	return cmd
}

func runRoundtrip(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry(roundtripMetamodel)
	if err != nil {
		return err
	}

	r, uri, err := openRepo(reg, args[0], roundtripVerbose)
	if err != nil {
		return err
	}

	ctx := context.Background()
	res, err := r.Load(ctx, uri)
	if err != nil {
		return reportParseError(cmd, reg, err)
	}

	out, err := r.Serialize(res)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", args[0], err)
	}

	// reparse the output in a fresh repository
	r2 := repo.New(reg, repo.WithLoader(memoryLoader{uri: out}))
	again, err := r2.Load(ctx, uri)
	if err != nil {
		return fmt.Errorf("reparse of serialized output failed: %w", err)
	}

	if err := compareResources(res, again); err != nil {
		return fmt.Errorf("round trip of %s is not faithful: %w", args[0], err)
	}

	if roundtripOutput != "" {
		if err := r.Save(ctx, res, roundtripOutput); err != nil {
			return err
		}
	} else if cfgOut := defaultOutputPath(args[0]); roundtripVerbose && cfgOut != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "use -o %s to write the serialized form\n", cfgOut)
	}

	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Fprintf(cmd.OutOrStdout(), "✓ %s round-trips (%d object(s))\n",
		args[0], res.Len())
	return nil
}

// defaultOutputPath suggests a destination under the configured output dir.
func defaultOutputPath(file string) string {
	cfg, err := config.Load()
	if err != nil || cfg.Output.Dir == "" {
		return ""
	}
	return filepath.Join(cfg.Output.Dir, filepath.Base(file))
}

// memoryLoader serves a single in-memory document.
type memoryLoader map[string]string

func (l memoryLoader) Load(_ context.Context, uri string) ([]byte, error) {
	doc, ok := l[uri]
	if !ok {
		return nil, fmt.Errorf("no document for %s", uri)
	}
	return []byte(doc), nil
}

// compareResources checks observable equality, translating identifiers
// through containment fragments.
func compareResources(a, b *model.Resource) error {
	if a.Len() != b.Len() {
		return fmt.Errorf("object count changed: %d -> %d", a.Len(), b.Len())
	}
	if len(a.RootObjects()) != len(b.RootObjects()) {
		return fmt.Errorf("root count changed")
	}
	for _, aid := range a.AllObjects() {
		frag, ok := a.FragmentOf(aid)
		if !ok {
			return fmt.Errorf("object %s has no containment path", aid)
		}
		bid, ok := b.ResolveFragment(frag)
		if !ok {
			return fmt.Errorf("fragment %s missing after reparse", frag)
		}
		aClass, _ := a.ClassOf(aid)
		bClass, _ := b.ClassOf(bid)
		if aClass != bClass {
			return fmt.Errorf("class at %s changed: %s -> %s", frag, aClass, bClass)
		}
		aOrder := a.FeatureOrder(aid)
		bOrder := b.FeatureOrder(bid)
		if len(aOrder) != len(bOrder) {
			return fmt.Errorf("feature count at %s changed", frag)
		}
		for i, feat := range aOrder {
			if bOrder[i] != feat {
				return fmt.Errorf("feature order at %s changed: %v -> %v", frag, aOrder, bOrder)
			}
			if err := compareValues(a, b, a.Get(aid, feat), b.Get(bid, feat)); err != nil {
				return fmt.Errorf("feature %s at %s: %w", feat, frag, err)
			}
		}
	}
	return nil
}

func compareValues(a, b *model.Resource, av, bv model.Value) error {
	if av.Kind() != bv.Kind() {
		return fmt.Errorf("value kind changed: %v -> %v", av.Kind(), bv.Kind())
	}
	switch av.Kind() {
	case model.KindRef:
		aid, _ := av.AsRef()
		bid, _ := bv.AsRef()
		afrag, _ := a.FragmentOf(aid)
		bfrag, _ := b.FragmentOf(bid)
		if afrag != bfrag {
			return fmt.Errorf("reference target changed: %s -> %s", afrag, bfrag)
		}
	case model.KindList:
		al, _ := av.AsList()
		bl, _ := bv.AsList()
		if len(al) != len(bl) {
			return fmt.Errorf("list length changed: %d -> %d", len(al), len(bl))
		}
		for i := range al {
			if err := compareValues(a, b, al[i], bl[i]); err != nil {
				return err
			}
		}
	default:
		if !av.Equal(bv) {
			return fmt.Errorf("value changed: %s -> %s", av, bv)
		}
	}
	return nil
}
