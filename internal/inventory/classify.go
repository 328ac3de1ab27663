package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nao1215/savestat/internal/model"
)

const (
	// DefaultMinUnmappedCount is the smallest count at which an unresolved
	// base name is reported as unmapped.
	DefaultMinUnmappedCount = 3

	// DefaultMaxUnmapped is the number of unmapped entries kept.
	DefaultMaxUnmapped = 30
)

// Inventory is the classified, aggregated view of an Extraction.
type Inventory struct {
	// Factory holds the non-empty categories in model.CategoryOrder.
	Factory model.Factory

	// Totals holds per-category totals and the grand total.
	Totals model.Totals

	// Unmapped lists unresolved base names, largest first.
	Unmapped model.Tally

	// Summary is the one-line digest, e.g. "12 total buildings (10 machines, 2 extractors)".
	Summary string
}

// Classifier maps base class names to display names and categories.
// Its rule tables are fixed at construction; a Classifier is safe for
// concurrent use.
type Classifier struct {
	displayRules  []DisplayRule
	exact         map[string]string
	categoryRules []categoryMatcher
	minUnmapped   int
	maxUnmapped   int
}

type categoryMatcher struct {
	category model.Category
	keywords []string
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*classifierConfig)

type classifierConfig struct {
	extraDisplay  []DisplayRule
	extraCategory []CategoryRule
	minUnmapped   int
	maxUnmapped   int
}

// WithDisplayRules adds rules ahead of the built-in display rules.
// Rules with an empty class or display name are ignored.
func WithDisplayRules(rules ...DisplayRule) ClassifierOption {
	return func(c *classifierConfig) {
		c.extraDisplay = append(c.extraDisplay, rules...)
	}
}

// WithCategoryRules adds rules ahead of the built-in category rules.
// Rules naming an unknown category are ignored.
func WithCategoryRules(rules ...CategoryRule) ClassifierOption {
	return func(c *classifierConfig) {
		c.extraCategory = append(c.extraCategory, rules...)
	}
}

// WithMinUnmappedCount sets the unmapped reporting threshold.
// Values below 1 are ignored.
func WithMinUnmappedCount(n int) ClassifierOption {
	return func(c *classifierConfig) {
		if n >= 1 {
			c.minUnmapped = n
		}
	}
}

// WithMaxUnmapped sets how many unmapped entries are kept.
// Values below 0 are ignored.
func WithMaxUnmapped(n int) ClassifierOption {
	return func(c *classifierConfig) {
		if n >= 0 {
			c.maxUnmapped = n
		}
	}
}

// NewClassifier builds a Classifier from the built-in tables plus any
// prepended rules. The package defaults are never modified.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	cfg := classifierConfig{
		minUnmapped: DefaultMinUnmappedCount,
		maxUnmapped: DefaultMaxUnmapped,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	display := make([]DisplayRule, 0, len(cfg.extraDisplay)+len(defaultDisplayRules))
	for _, r := range cfg.extraDisplay {
		// An empty class would match every base name in the fallback.
		if r.Class != "" && r.Display != "" {
			display = append(display, r)
		}
	}
	display = append(display, defaultDisplayRules...)

	exact := make(map[string]string, len(display))
	for _, r := range display {
		if _, ok := exact[r.Class]; !ok {
			exact[r.Class] = r.Display
		}
	}

	categories := make([]categoryMatcher, 0, len(cfg.extraCategory)+len(defaultCategoryRules))
	for _, rules := range [][]CategoryRule{cfg.extraCategory, defaultCategoryRules} {
		for _, r := range rules {
			if !r.Category.IsValid() {
				continue
			}
			m := categoryMatcher{category: r.Category}
			for _, kw := range r.Keywords {
				if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
					m.keywords = append(m.keywords, kw)
				}
			}
			categories = append(categories, m)
		}
	}

	return &Classifier{
		displayRules:  display,
		exact:         exact,
		categoryRules: categories,
		minUnmapped:   cfg.minUnmapped,
		maxUnmapped:   cfg.maxUnmapped,
	}
}

// DisplayName resolves a base class name. An exact rule wins; otherwise the
// first rule in table order whose class contains, or is contained in, the
// base name.
func (c *Classifier) DisplayName(base string) (string, bool) {
	if name, ok := c.exact[base]; ok {
		return name, true
	}
	for _, r := range c.displayRules {
		if strings.Contains(base, r.Class) || strings.Contains(r.Class, base) {
			return r.Display, true
		}
	}
	return "", false
}

// Category returns the category of a display name, or model.CategoryOther.
func (c *Classifier) Category(display string) model.Category {
	lower := strings.ToLower(display)
	for _, r := range c.categoryRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return model.CategoryOther
}

// Classify resolves and aggregates per-base-name counts.
// Identical input always yields identical output.
func (c *Classifier) Classify(counts map[string]int) *Inventory {
	bases := make([]string, 0, len(counts))
	for base, n := range counts {
		if n > 0 {
			bases = append(bases, base)
		}
	}
	sort.Strings(bases)

	byCategory := make(map[model.Category]map[string]int)
	unmapped := make(map[string]int)

	for _, base := range bases {
		n := counts[base]
		display, ok := c.DisplayName(base)
		if !ok {
			if n >= c.minUnmapped {
				unmapped[base] = n
			}
			continue
		}
		cat := c.Category(display)
		if byCategory[cat] == nil {
			byCategory[cat] = make(map[string]int)
		}
		byCategory[cat][display] += n
	}

	inv := &Inventory{
		Factory: model.Factory{},
		Totals:  model.Totals{Categories: model.Tally{}},
	}

	for _, cat := range model.CategoryOrder {
		items, ok := byCategory[cat]
		if !ok {
			continue
		}
		tally := model.TallyFromMap(items)
		total := tally.Total()
		inv.Factory = append(inv.Factory, model.CategoryTally{Category: cat, Items: tally})
		inv.Totals.Categories = append(inv.Totals.Categories, model.Count{Name: cat.String(), Count: total})
		inv.Totals.All += total
	}

	if len(unmapped) > 0 {
		inv.Unmapped = model.TallyFromMap(unmapped)
		if len(inv.Unmapped) > c.maxUnmapped {
			inv.Unmapped = inv.Unmapped[:c.maxUnmapped]
		}
		if len(inv.Unmapped) == 0 {
			inv.Unmapped = nil
		}
	}

	inv.Summary = summarize(inv.Totals)
	return inv
}

func summarize(totals model.Totals) string {
	parts := make([]string, 0, len(model.SummaryCategories))
	for _, cat := range model.SummaryCategories {
		if n := totals.Get(cat); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, cat))
		}
	}
	return fmt.Sprintf("%d total buildings (%s)", totals.All, strings.Join(parts, ", "))
}
