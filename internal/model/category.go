package model

import "strings"

// Category is a coarse grouping of placed world objects.
type Category string

// Category constants.
const (
	// CategoryMachines covers production buildings.
	CategoryMachines Category = "machines"
	// CategoryExtractors covers miners, pumps and resource wells.
	CategoryExtractors Category = "extractors"
	// CategoryGenerators covers power generation.
	CategoryGenerators Category = "generators"
	// CategoryLogistics covers belts, lifts, pipes and their attachments.
	CategoryLogistics Category = "logistics"
	// CategoryStorage covers containers and fluid buffers.
	CategoryStorage Category = "storage"
	// CategoryPower covers power distribution.
	CategoryPower Category = "power"
	// CategoryTransport covers stations and railways.
	CategoryTransport Category = "transport"
	// CategoryVehicles covers drivable and autonomous vehicles.
	CategoryVehicles Category = "vehicles"
	// CategoryOther is the catch-all for resolved names no rule claims.
	CategoryOther Category = "other"
)

// CategoryOrder is the order in which categories appear in reports.
var CategoryOrder = []Category{
	CategoryMachines,
	CategoryExtractors,
	CategoryGenerators,
	CategoryLogistics,
	CategoryStorage,
	CategoryPower,
	CategoryTransport,
	CategoryVehicles,
	CategoryOther,
}

// SummaryCategories are the categories listed in the one-line summary.
var SummaryCategories = []Category{
	CategoryMachines,
	CategoryExtractors,
	CategoryGenerators,
}

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// IsValid returns true if this is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryMachines, CategoryExtractors, CategoryGenerators,
		CategoryLogistics, CategoryStorage, CategoryPower,
		CategoryTransport, CategoryVehicles, CategoryOther:
		return true
	default:
		return false
	}
}

// Rank returns the position of c in CategoryOrder, or len(CategoryOrder)
// for unknown categories.
func (c Category) Rank() int {
	for i, known := range CategoryOrder {
		if known == c {
			return i
		}
	}
	return len(CategoryOrder)
}

// ParseCategory parses a string into a Category.
// Matching is case-insensitive; unknown values return false.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", false
	}
	return c, true
}
