package ui

import (
	"strings"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"Person", "Person", 0},
		{"Persn", "Person", 1},
		{"Team", "Dream", 2},
		{"kitten", "sitting", 3},
		{"", "abc", 3},
	}
	for _, tt := range tests {
		if got := LevenshteinDistance(tt.s1, tt.s2); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
		}
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"Person", "Team", "Department", "Manager"}

	got := FindSimilar("Persn", candidates, nil)
	if len(got) == 0 || got[0] != "Person" {
		t.Errorf("expected Person first, got %v", got)
	}

	if got := FindSimilar("zzzzzzzzzz", candidates, nil); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestFindBestMatch(t *testing.T) {
	candidates := []string{"Person", "Team"}
	if got := FindBestMatch("team", candidates, nil); got != "Team" {
		t.Errorf("expected case-insensitive match Team, got %q", got)
	}
	if got := FindBestMatch("xxxxxxxxx", candidates, nil); got != "" {
		t.Errorf("expected empty match, got %q", got)
	}
}

func TestFormatError(t *testing.T) {
	out := FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "UNKNOWN CLASS: Persn",
		Problem:      "No class named 'Persn' in the metamodel.",
		Suggestions:  []string{"Person"},
		HelpCommands: []string{"List classes: weft classes"},
		NoColor:      true,
	})

	for _, want := range []string{
		"UNKNOWN CLASS: Persn",
		"Did you mean: Person?",
		"→ List classes: weft classes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestTableRender(t *testing.T) {
	var b strings.Builder
	table := NewTable(&b, []string{"OBJECT", "FEATURE", "PROBLEM"}, &TableOptions{NoColor: true})
	table.AddRow("Person", "name", "requires at least 1 value(s), has 0")
	table.AddRow("Team", "members", "requires at least 2 value(s), has 1")
	table.Render()

	out := b.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator, and 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "OBJECT") {
		t.Errorf("expected header row, got %q", lines[0])
	}
	if !strings.Contains(lines[2], "Person") || !strings.Contains(lines[3], "Team") {
		t.Errorf("rows out of order:\n%s", out)
	}
}

func TestTableEmptyHeaders(t *testing.T) {
	var b strings.Builder
	table := NewTable(&b, nil, nil)
	table.AddRow("x")
	table.Render()
	if b.Len() != 0 {
		t.Errorf("expected no output for headerless table, got %q", b.String())
	}
}
