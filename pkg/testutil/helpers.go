// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/deal-calculator/internal/deal"
)

// FindReturnRow finds a return metric by label in the rows slice.
// Returns a pointer to the row if found, nil otherwise.
func FindReturnRow(rows []deal.ReturnRow, metric string) *deal.ReturnRow {
	for i := range rows {
		if rows[i].Metric == metric {
			return &rows[i]
		}
	}
	return nil
}

// FindLineItem finds a capital gain line item by label.
// Returns a pointer to the item if found, nil otherwise.
func FindLineItem(items []deal.LineItem, label string) *deal.LineItem {
	for i := range items {
		if items[i].Label == label {
			return &items[i]
		}
	}
	return nil
}

// SampleInput returns a fully populated deal. The domestic figures work out
// to 11,500 stamp duty, 255,300 capital in and a 22,500 net annual cash flow.
func SampleInput() deal.Input {
	return deal.Input{
		PurchasePrice:     200000,
		Renovation:        30000,
		ArchitectPlanning: 2000,
		BuildingControl:   1000,
		Furniture:         5000,
		Survey:            500,
		Legal:             1500,
		Insurance:         800,
		Sourcing:          3000,
		LeaseSetup:        1000,
		Category:          "Residential",
		AskingPrice:       300000,
		Rooms:             5,
		MonthlyRent:       3000,
	}
}
