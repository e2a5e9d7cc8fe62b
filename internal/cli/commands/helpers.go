package commands

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/weft-lang/weft/internal/cli/config"
	"github.com/weft-lang/weft/metamodel"
	"github.com/weft-lang/weft/model"
	"github.com/weft-lang/weft/repo"
)

// loadRegistry resolves the metamodel path from the --metamodel flag or the
// workspace config and loads it.
func loadRegistry(flagValue string) (*metamodel.Registry, error) {
	path := flagValue
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.Metamodel
	}
	reg, err := metamodel.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load metamodel: %w", err)
	}
	return reg, nil
}

// openRepo builds a repository rooted at the document's directory, so
// relative hrefs inside the document resolve next to it.
func openRepo(reg *metamodel.Registry, file string, verbose bool) (*repo.Repo, string, error) {
	opts := []repo.Option{
		repo.WithLoader(model.FileLoader{Base: filepath.Dir(file)}),
	}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, "", err
		}
		opts = append(opts, repo.WithLogger(logger))
	}
	return repo.New(reg, opts...), filepath.Base(file), nil
}

// classNames lists registry classes for fuzzy suggestions.
func classNames(reg *metamodel.Registry) []string {
	classes := reg.Classes()
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	return names
}
