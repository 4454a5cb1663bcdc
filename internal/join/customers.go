package join

import (
	"sort"

	"ticket-admin/models"
)

// CustomerSummary is a row of the customers tab.
type CustomerSummary struct {
	ID       *int64 `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Orders   int    `json:"orders"`
	Pending  int    `json:"pending"`
	Paid     int    `json:"paid"`
	Complete int    `json:"complete"`
	Cancel   int    `json:"cancel"`
	Total    int    `json:"total"`
}

// SummarizeCustomers counts each customer's orders and tickets by status. Rows are
// sorted by id, newest first; customers without a usable id come last.
func SummarizeCustomers(customers []models.Customer, orders []models.Order, tickets []models.Ticket) []CustomerSummary {
	orderOwner := make(map[int64]int64, len(orders))
	ordersPer := make(map[int64]int)
	for _, o := range orders {
		orderID, ok := NormalizeID(o.ID)
		if !ok {
			continue
		}
		customerID, ok := NormalizeID(o.Customer)
		if !ok {
			continue
		}
		if prev, seen := orderOwner[orderID]; seen {
			ordersPer[prev]--
		}
		orderOwner[orderID] = customerID
		ordersPer[customerID]++
	}

	counts := make(map[int64]*CustomerSummary)
	for _, t := range tickets {
		orderID, ok := NormalizeID(t.Order)
		if !ok {
			continue
		}
		customerID, ok := orderOwner[orderID]
		if !ok {
			continue
		}
		c := counts[customerID]
		if c == nil {
			c = &CustomerSummary{}
			counts[customerID] = c
		}
		c.Total++
		switch t.Status.Normalize() {
		case models.StatusPaid:
			c.Paid++
		case models.StatusComplete:
			c.Complete++
		case models.StatusCancel:
			c.Cancel++
		default:
			c.Pending++
		}
	}

	out := make([]CustomerSummary, 0, len(customers))
	for _, cust := range customers {
		row := CustomerSummary{ID: idPtr(cust.ID), Email: cust.Email, Name: cust.Name}
		if row.ID != nil {
			row.Orders = ordersPer[*row.ID]
			if c := counts[*row.ID]; c != nil {
				row.Pending, row.Paid, row.Complete, row.Cancel, row.Total = c.Pending, c.Paid, c.Complete, c.Cancel, c.Total
			}
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ID, out[j].ID
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a > *b
	})
	return out
}
