package planner

import (
	"math"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

// TotalSlots is the size of the week grid: 7 days x 3 meals.
const TotalSlots = 21

// Summarize computes the week totals. costs maps recipe id to its estimated
// cost; recipes without a cost are absent.
func Summarize(slots []storage.MealSlot, costs map[uuid.UUID]float64) SummaryDTO {
	summary := SummaryDTO{TotalSlots: TotalSlots}

	for _, slot := range slots {
		switch slot.Status {
		case storage.SlotStatusCooked:
			summary.Cooked++
		case storage.SlotStatusSkipped:
			summary.Skipped++
		}
		if slot.RecipeID == nil {
			continue
		}
		summary.Planned++
		summary.EstimatedCost += costs[*slot.RecipeID]
	}

	summary.Empty = TotalSlots - summary.Planned
	summary.CoveragePercent = int(math.Round(float64(summary.Planned) / TotalSlots * 100))
	return summary
}

// NextStatus advances a slot through planned -> cooked -> skipped -> planned.
func NextStatus(status string) string {
	switch status {
	case storage.SlotStatusPlanned:
		return storage.SlotStatusCooked
	case storage.SlotStatusCooked:
		return storage.SlotStatusSkipped
	default:
		return storage.SlotStatusPlanned
	}
}
