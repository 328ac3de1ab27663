package config

import (
	"fmt"

	"github.com/nao1215/savestat/internal/inventory"
	"github.com/nao1215/savestat/internal/model"
)

// DecoderSection holds container decoding settings.
type DecoderSection struct {
	// Lenient is a pointer so that an explicit "false" can be told apart
	// from an absent key.
	Lenient            *bool `yaml:"lenient,omitempty"`
	RepeatedSizesWidth int   `yaml:"repeatedSizesWidth,omitempty"`
	MaxStringBytes     int   `yaml:"maxStringBytes,omitempty"`
}

// DisplayName maps one base class name to a display name.
type DisplayName struct {
	Class   string `yaml:"class"`
	Display string `yaml:"display"`
}

// CategoryKeywords assigns a category to display names containing any of
// the keywords.
type CategoryKeywords struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// ClassifierSection holds classification settings. Rules listed here take
// priority over the built-in tables.
type ClassifierSection struct {
	MinUnmappedCount int `yaml:"minUnmappedCount,omitempty"`

	// MaxUnmapped is a pointer because 0 is meaningful: it hides the
	// unmapped section.
	MaxUnmapped  *int               `yaml:"maxUnmapped,omitempty"`
	DisplayNames []DisplayName      `yaml:"displayNames,omitempty"`
	Categories   []CategoryKeywords `yaml:"categories,omitempty"`
}

// File represents the structure of the .savestat configuration file.
type File struct {
	Decoder    DecoderSection    `yaml:"decoder,omitempty"`
	Classifier ClassifierSection `yaml:"classifier,omitempty"`
}

// Validate reports the first invalid entry in the file.
func (f *File) Validate() error {
	if w := f.Decoder.RepeatedSizesWidth; w != 0 && w != 16 && w != 24 {
		return ErrInvalidRepeatedWidth
	}
	if f.Decoder.MaxStringBytes < 0 {
		return ErrInvalidMaxStringBytes
	}
	if f.Classifier.MinUnmappedCount < 0 {
		return ErrInvalidMinUnmapped
	}
	if f.Classifier.MaxUnmapped != nil && *f.Classifier.MaxUnmapped < 0 {
		return ErrInvalidMaxUnmapped
	}
	for i, d := range f.Classifier.DisplayNames {
		if d.Class == "" || d.Display == "" {
			return fmt.Errorf("displayNames[%d]: %w", i, ErrInvalidDisplayRule)
		}
	}
	for i, c := range f.Classifier.Categories {
		if _, ok := model.ParseCategory(c.Category); !ok {
			return fmt.Errorf("categories[%d]: %w: %q", i, ErrUnknownCategory, c.Category)
		}
	}
	return nil
}

// DisplayRules converts the configured display names into classifier rules.
func (f *File) DisplayRules() []inventory.DisplayRule {
	if f == nil {
		return nil
	}
	rules := make([]inventory.DisplayRule, 0, len(f.Classifier.DisplayNames))
	for _, d := range f.Classifier.DisplayNames {
		rules = append(rules, inventory.DisplayRule{Class: d.Class, Display: d.Display})
	}
	return rules
}

// CategoryRules converts the configured categories into classifier rules.
// Entries naming an unknown category are dropped.
func (f *File) CategoryRules() []inventory.CategoryRule {
	if f == nil {
		return nil
	}
	rules := make([]inventory.CategoryRule, 0, len(f.Classifier.Categories))
	for _, c := range f.Classifier.Categories {
		cat, ok := model.ParseCategory(c.Category)
		if !ok {
			continue
		}
		rules = append(rules, inventory.CategoryRule{
			Category: cat,
			Keywords: append([]string(nil), c.Keywords...),
		})
	}
	return rules
}
