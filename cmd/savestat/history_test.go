package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/savestat/internal/model"
)

// seedHistory parses saves holding the given constructor counts, in order,
// into a fresh database and returns its directory.
func seedHistory(t *testing.T, counts ...int) string {
	t.Helper()

	dbDir := t.TempDir()
	for _, n := range counts {
		path := writeSave(t, "Test_autosave_0.sav", constructorSave(t, n))
		if _, _, err := runCLI(t, "parse", "--db-dir", dbDir, path); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}
	}
	return dbDir
}

func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	if cmd.Use != "history [session]" {
		t.Errorf("expected use 'history [session]', got %q", cmd.Use)
	}
	if len(cmd.Aliases) != 1 || cmd.Aliases[0] != "compare" {
		t.Errorf("expected alias 'compare', got %v", cmd.Aliases)
	}

	for name, shorthand := range map[string]string{
		"list":          "l",
		"list-sessions": "L",
		"with-id":       "i",
		"since":         "s",
		"json":          "j",
		"markdown":      "m",
	} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if flag.Shorthand != shorthand {
			t.Errorf("%s: expected shorthand %q, got %q", name, shorthand, flag.Shorthand)
		}
	}
}

func TestHistoryComparison(t *testing.T) {
	t.Parallel()

	dbDir := seedHistory(t, 1, 3)

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "history", "--db-dir", dbDir, "Test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Inventory Comparison: Test",
			"Factory: GREW (+2)",
			"[+] [machines] Constructor: 1 -> 3 (+2)",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "history", "--db-dir", dbDir, "--json", "Test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var c model.Comparison
		if err := json.Unmarshal([]byte(stdout), &c); err != nil {
			t.Fatalf("stdout is not JSON: %v", err)
		}
		if c.Growth.Direction != model.DirectionGrew || c.Growth.Delta != 2 {
			t.Errorf("unexpected growth: %+v", c.Growth)
		}
		if c.Previous.Totals.All != 1 || c.Current.Totals.All != 3 {
			t.Errorf("unexpected totals: %d -> %d", c.Previous.Totals.All, c.Current.Totals.All)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "history", "--db-dir", dbDir, "-m", "Test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "# Inventory Comparison: Test") {
			t.Errorf("expected markdown comparison, got:\n%s", stdout)
		}
	})

	t.Run("compare alias", func(t *testing.T) {
		t.Parallel()

		if _, _, err := runCLI(t, "compare", "--db-dir", dbDir, "Test"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()

		if _, _, err := runCLI(t, "history", "--db-dir", dbDir, "-j", "-m", "Test"); err == nil {
			t.Error("expected error for --json with --markdown")
		}
	})
}

func TestHistoryListing(t *testing.T) {
	t.Parallel()

	dbDir := seedHistory(t, 1, 2)

	t.Run("list sessions", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "history", "--db-dir", dbDir, "--list-sessions")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Stored sessions (1)") || !strings.Contains(stdout, "• Test") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("list runs", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "history", "--db-dir", dbDir, "--list", "Test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "History for Test (2 runs)") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
		if !strings.Contains(stdout, "all:2 machines:2") {
			t.Errorf("expected totals of the latest run, got:\n%s", stdout)
		}
	})

	t.Run("list unknown session", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "history", "--db-dir", dbDir, "--list", "Nope")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No stored runs found for Nope") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "history", "--db-dir", t.TempDir(), "--list-sessions")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No sessions found") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})
}

func TestHistoryErrors(t *testing.T) {
	t.Parallel()

	single := seedHistory(t, 1)
	double := seedHistory(t, 1, 2)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "session required",
			args:    []string{"history", "--db-dir", single},
			wantErr: errSessionRequired,
		},
		{
			name:    "single run",
			args:    []string{"history", "--db-dir", single, "Test"},
			wantErr: errNotEnoughHistory,
		},
		{
			name:    "unknown session",
			args:    []string{"history", "--db-dir", single, "Nope"},
			wantMsg: "no stored runs found for Nope",
		},
		{
			name:    "unknown id",
			args:    []string{"history", "--db-dir", double, "--with-id", "999", "Test"},
			wantMsg: "run with ID 999 not found",
		},
		{
			name:    "bad since date",
			args:    []string{"history", "--db-dir", double, "--since", "01/02/2025", "Test"},
			wantMsg: "invalid date format",
		},
		{
			name:    "since in the future",
			args:    []string{"history", "--db-dir", double, "--since", "2999-01-01", "Test"},
			wantMsg: "no stored runs since 2999-01-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := runCLI(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestHistoryWithIDAndSince(t *testing.T) {
	t.Parallel()

	dbDir := seedHistory(t, 1, 2, 5)

	t.Run("with id compares against the first run", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "history", "--db-dir", dbDir, "--json", "--with-id", "1", "Test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var c model.Comparison
		if err := json.Unmarshal([]byte(stdout), &c); err != nil {
			t.Fatalf("stdout is not JSON: %v", err)
		}
		if c.Growth.Delta != 4 {
			t.Errorf("delta = %d, want 4", c.Growth.Delta)
		}
	})

	t.Run("since picks the oldest run on or after the date", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "history", "--db-dir", dbDir, "--json", "--since", "2000-01-01", "Test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var c model.Comparison
		if err := json.Unmarshal([]byte(stdout), &c); err != nil {
			t.Fatalf("stdout is not JSON: %v", err)
		}
		if c.Previous.Totals.All != 1 {
			t.Errorf("previous totals = %d, want 1", c.Previous.Totals.All)
		}
	})
}

func TestFormatTotals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		totals model.Totals
		want   string
	}{
		{name: "empty", totals: model.Totals{}, want: "all:0"},
		{
			name: "categories",
			totals: model.Totals{
				Categories: model.Tally{{Name: "machines", Count: 3}, {Name: "power", Count: 1}},
				All:        4,
			},
			want: "all:4 machines:3 power:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatTotals(tt.totals); got != tt.want {
				t.Errorf("formatTotals() = %q, want %q", got, tt.want)
			}
		})
	}
}
