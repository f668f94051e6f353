package grocery

import (
	"strings"

	"github.com/fdg312/preppair/internal/storage"
)

// DefaultCategory is used for ingredient lines without a category.
const DefaultCategory = "Other"

// AggregatedLine is one merged shopping line.
type AggregatedLine struct {
	Name     string
	Quantity float64
	Unit     string
	Category string
}

type lineKey struct {
	name string
	unit string
}

// Aggregate merges the ingredient lines of every planned meal into one line
// per (name, unit), both compared case-insensitively. The first line seen for
// a key supplies the display name, unit and category; quantities are summed
// with a missing quantity counting as zero. Output keeps first-seen order.
func Aggregate(meals []storage.PlannedMeal) []AggregatedLine {
	index := make(map[lineKey]int)
	lines := []AggregatedLine{}

	for _, meal := range meals {
		if meal.RecipeID == nil {
			continue
		}
		for _, ing := range meal.Ingredients {
			unit := ""
			if ing.Unit != nil {
				unit = *ing.Unit
			}
			qty := 0.0
			if ing.Quantity != nil {
				qty = *ing.Quantity
			}

			key := lineKey{
				name: strings.ToLower(strings.TrimSpace(ing.Name)),
				unit: strings.ToLower(unit),
			}
			if i, ok := index[key]; ok {
				lines[i].Quantity += qty
				continue
			}

			category := DefaultCategory
			if ing.Category != nil {
				category = *ing.Category
			}
			index[key] = len(lines)
			lines = append(lines, AggregatedLine{
				Name:     ing.Name,
				Quantity: qty,
				Unit:     unit,
				Category: category,
			})
		}
	}

	return lines
}

func toDrafts(lines []AggregatedLine) []storage.GroceryItemDraft {
	drafts := make([]storage.GroceryItemDraft, len(lines))
	for i, line := range lines {
		qty := line.Quantity
		unit := line.Unit
		category := line.Category
		drafts[i] = storage.GroceryItemDraft{
			IngredientName: line.Name,
			TotalQuantity:  &qty,
			Unit:           &unit,
			Category:       &category,
		}
	}
	return drafts
}
