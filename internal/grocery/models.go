package grocery

import (
	"strconv"
	"time"

	"github.com/fdg312/preppair/internal/storage"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

type GroceryItemDTO struct {
	ID             string    `json:"id"`
	PlanID         string    `json:"plan_id"`
	IngredientName string    `json:"ingredient_name"`
	TotalQuantity  *float64  `json:"total_quantity"`
	Unit           *string   `json:"unit"`
	Category       string    `json:"category"`
	IsChecked      bool      `json:"is_checked"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
}

// CategoryGroup is one section of the shopping list.
type CategoryGroup struct {
	Category string           `json:"category"`
	Checked  int              `json:"checked"`
	Items    []GroceryItemDTO `json:"items"`
}

type GenerateResponse struct {
	PlanID string           `json:"plan_id"`
	Items  []GroceryItemDTO `json:"items"`
}

type ListResponse struct {
	PlanID     string          `json:"plan_id"`
	Categories []CategoryGroup `json:"categories"`
}

type CountResponse struct {
	Total   int `json:"total"`
	Checked int `json:"checked"`
}

type ClearCheckedResponse struct {
	Cleared int `json:"cleared"`
}

// ExportLinkResponse is returned when exports go to object storage.
type ExportLinkResponse struct {
	Format    string `json:"format"`
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// Export is a rendered grocery list. Either Data or URL is set.
type Export struct {
	Format      string
	ContentType string
	Filename    string
	Data        []byte
	URL         string
	ExpiresIn   int
}

func toItemDTO(item storage.GroceryItem) GroceryItemDTO {
	category := DefaultCategory
	if item.Category != nil {
		category = *item.Category
	}
	return GroceryItemDTO{
		ID:             item.ID.String(),
		PlanID:         item.PlanID.String(),
		IngredientName: item.IngredientName,
		TotalQuantity:  item.TotalQuantity,
		Unit:           item.Unit,
		Category:       category,
		IsChecked:      item.IsChecked,
		SortOrder:      item.SortOrder,
		CreatedAt:      item.CreatedAt,
	}
}

// quantityLabel renders "200 g", "3" or "" for a line.
func (d GroceryItemDTO) quantityLabel() string {
	if d.TotalQuantity == nil || *d.TotalQuantity == 0 {
		return ""
	}
	label := strconv.FormatFloat(*d.TotalQuantity, 'f', -1, 64)
	if d.Unit != nil && *d.Unit != "" {
		label += " " + *d.Unit
	}
	return label
}
