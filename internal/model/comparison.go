package model

import (
	"sort"
	"time"
)

// Growth directions reported by Compare.
const (
	DirectionGrew      = "grew"
	DirectionShrank    = "shrank"
	DirectionUnchanged = "unchanged"
)

// Comparison is the inventory difference between two runs of the same session.
type Comparison struct {
	// SessionName is the session both runs belong to.
	SessionName string `json:"sessionName"`

	// Previous describes the older run.
	Previous RunSummary `json:"previous"`

	// Current describes the newer run.
	Current RunSummary `json:"current"`

	// Changes lists every display name whose count differs, ordered by
	// category and then by the size of the change.
	Changes []Change `json:"changes,omitempty"`

	// UnchangedCount is the number of display names with equal counts.
	UnchangedCount int `json:"unchangedCount"`

	// Growth summarizes the change of the grand total.
	Growth Growth `json:"growth"`
}

// RunSummary identifies one side of a Comparison.
type RunSummary struct {
	RunID     string    `json:"runId"`
	SaveName  string    `json:"saveName"`
	ParsedAt  time.Time `json:"parsedAt"`
	PlayTime  string    `json:"playTime"`
	Totals    Totals    `json:"totals"`
	FileLabel string    `json:"file,omitempty"`
}

// Change is the difference for a single display name.
type Change struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Before   int      `json:"before"`
	After    int      `json:"after"`
	Delta    int      `json:"delta"`
}

// Growth summarizes the grand-total change and its per-category split.
type Growth struct {
	// Direction is "grew", "shrank", or "unchanged".
	Direction string `json:"direction"`

	// Delta is the change of totals.all.
	Delta int `json:"delta"`

	// Categories holds the non-zero per-category deltas in category order.
	Categories Tally `json:"categories,omitempty"`
}

// Compare computes the inventory difference from previous to current.
func Compare(previous, current *Report) *Comparison {
	result := &Comparison{
		SessionName: current.Header.SessionName,
		Previous:    summarizeRun(previous),
		Current:     summarizeRun(current),
	}

	type key struct {
		category Category
		name     string
	}
	before := make(map[key]int)
	after := make(map[key]int)
	for _, ct := range previous.Factory {
		for _, c := range ct.Items {
			before[key{ct.Category, c.Name}] += c.Count
		}
	}
	for _, ct := range current.Factory {
		for _, c := range ct.Items {
			after[key{ct.Category, c.Name}] += c.Count
		}
	}

	seen := make(map[key]struct{}, len(before)+len(after))
	visit := func(k key) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		b, a := before[k], after[k]
		if a == b {
			result.UnchangedCount++
			return
		}
		result.Changes = append(result.Changes, Change{
			Category: k.category,
			Name:     k.name,
			Before:   b,
			After:    a,
			Delta:    a - b,
		})
	}
	for k := range before {
		visit(k)
	}
	for k := range after {
		visit(k)
	}

	sort.Slice(result.Changes, func(i, j int) bool {
		ci, cj := result.Changes[i], result.Changes[j]
		if ci.Category != cj.Category {
			return ci.Category.Rank() < cj.Category.Rank()
		}
		di, dj := abs(ci.Delta), abs(cj.Delta)
		if di != dj {
			return di > dj
		}
		return ci.Name < cj.Name
	})

	result.Growth = computeGrowth(previous.Totals, current.Totals)
	return result
}

func summarizeRun(r *Report) RunSummary {
	return RunSummary{
		RunID:     r.Source.RunID,
		SaveName:  r.Header.SaveName,
		ParsedAt:  r.Source.ParsedAt,
		PlayTime:  r.Header.PlayTime,
		Totals:    r.Totals,
		FileLabel: r.Source.Path,
	}
}

func computeGrowth(previous, current Totals) Growth {
	g := Growth{Delta: current.All - previous.All}
	for _, c := range CategoryOrder {
		if d := current.Get(c) - previous.Get(c); d != 0 {
			g.Categories = append(g.Categories, Count{Name: c.String(), Count: d})
		}
	}

	switch {
	case g.Delta > 0:
		g.Direction = DirectionGrew
	case g.Delta < 0:
		g.Direction = DirectionShrank
	default:
		g.Direction = DirectionUnchanged
	}
	return g
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
