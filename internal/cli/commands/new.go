package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	newInteractive bool
	newPackage     string
	newURI         string
)

// validateWorkspaceName validates workspace name with security checks
func validateWorkspaceName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) == 0 || len(name) > 100 {
		return fmt.Errorf("workspace name must be 1-100 characters")
	}

	if filepath.IsAbs(name) {
		return fmt.Errorf("workspace name cannot be an absolute path")
	}

	// Only allow alphanumeric, dash, and underscore. This also rules out
	// dots, so ".." can never appear.
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_-]+$`, name)
	if !matched {
		return fmt.Errorf("workspace name can only contain letters, numbers, dashes, and underscores")
	}

	return nil
}

// NewNewCommand creates the new command
func NewNewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [workspace-name]",
		Short: "Create a new Weft workspace",
		Long: `Create a new Weft workspace with a starter metamodel and sample model.

If no workspace name is provided, you will be prompted to enter one.

The workspace contains:
  weft.yml          - workspace configuration
  model.weft.json   - starter metamodel (Person, Team)
  models/team.xmi   - sample document

Examples:
  weft new org-models
  weft new org-models --package org --uri http://example.com/org
  weft new --interactive`,
		RunE:         runNew,
		SilenceUsage: true,
	}

	cmd.Flags().BoolVarP(&newInteractive, "interactive", "i", false, "Interactive workspace setup with prompts")
	cmd.Flags().StringVar(&newPackage, "package", "org", "Metamodel package name (also the namespace prefix)")
	cmd.Flags().StringVar(&newURI, "uri", "", "Namespace URI (default: http://example.com/<package>)")

	return cmd
}

func runNew(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	if name == "" || newInteractive {
		prompts := []*survey.Question{}
		if name == "" {
			prompts = append(prompts, &survey.Question{
				Name:     "name",
				Prompt:   &survey.Input{Message: "Workspace name:"},
				Validate: func(v interface{}) error { return validateWorkspaceName(v.(string)) },
			})
		}
		if newInteractive {
			prompts = append(prompts,
				&survey.Question{
					Name:   "package",
					Prompt: &survey.Input{Message: "Package name:", Default: newPackage},
				},
				&survey.Question{
					Name:   "uri",
					Prompt: &survey.Input{Message: "Namespace URI:", Default: defaultURI(newPackage)},
				})
		}
		answers := struct {
			Name    string
			Package string
			URI     string
		}{Name: name, Package: newPackage, URI: newURI}
		if len(prompts) > 0 {
			if err := survey.Ask(prompts, &answers); err != nil {
				return err
			}
		}
		name, newPackage, newURI = answers.Name, answers.Package, answers.URI
	}

	if err := validateWorkspaceName(name); err != nil {
		return err
	}
	if newURI == "" {
		newURI = defaultURI(newPackage)
	}

	if _, err := os.Stat(name); err == nil {
		return fmt.Errorf("directory %s already exists", name)
	}

	files := map[string]string{
		"weft.yml":        workspaceConfig(name),
		"model.weft.json": starterMetamodel(newPackage, newURI),
		filepath.Join("models", "team.xmi"): sampleModel(newPackage, newURI),
	}
	for rel, content := range files {
		dest := filepath.Join(name, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
		}
		if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}
	}

	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)
	successColor.Fprintf(cmd.OutOrStdout(), "✓ Created workspace %s\n", name)
	infoColor.Fprintf(cmd.OutOrStdout(), "  cd %s && weft parse models/team.xmi\n", name)
	return nil
}

func defaultURI(pkg string) string {
	return "http://example.com/" + pkg
}

func workspaceConfig(name string) string {
	return fmt.Sprintf(`project_name: %s
metamodel: model.weft.json
output:
  dir: out
`, name)
}

func starterMetamodel(pkg, uri string) string {
	return fmt.Sprintf(`{
  "version": "1",
  "packages": [
    {"name": %[1]q, "uri": %[2]q, "prefix": %[1]q}
  ],
  "classes": [
    {
      "name": "Person",
      "package": %[1]q,
      "features": [
        {"name": "name", "kind": "attribute", "type": "string",
         "multiplicity": {"lower": 1, "upper": 1}},
        {"name": "age", "kind": "attribute", "type": "int"}
      ]
    },
    {
      "name": "Team",
      "package": %[1]q,
      "features": [
        {"name": "name", "kind": "attribute", "type": "string"},
        {"name": "members", "kind": "reference", "target": "Person",
         "containment": true, "multiplicity": {"upper": -1}},
        {"name": "leader", "kind": "reference", "target": "Person"}
      ]
    }
  ]
}
`, pkg, uri)
}

func sampleModel(pkg, uri string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<%[1]s:Team xmlns:%[1]s=%[2]q name="Engineering">
  <members name="Alice" age="34"/>
  <members name="Bob" age="28"/>
  <leader href="#//@members.0"/>
</%[1]s:Team>
`, pkg, uri)
}
