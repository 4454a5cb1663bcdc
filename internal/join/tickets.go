package join

import (
	"strconv"
	"strings"

	"ticket-admin/models"
)

// FilterAll disables status filtering.
const FilterAll = "all"

// Link is a ticket's resolved order and customer. Either part is nil when the chain
// ticket -> order -> customer -> email breaks.
type Link struct {
	OrderID       *int64
	CustomerEmail *string
}

// TicketRow is a ticket enriched for the tickets table.
type TicketRow struct {
	models.Ticket
	OrderID       *int64  `json:"_order_id"`
	CustomerEmail *string `json:"_customer_email"`
	StatusLabel   string  `json:"status_label"`
	// EventName is filled by callers that also loaded events.
	EventName string `json:"_event_name,omitempty"`
}

func JoinTicketToCustomer(t models.Ticket, orders map[int64]models.Order, customers map[int64]models.Customer) Link {
	var link Link

	orderID, ok := NormalizeID(t.Order)
	if !ok {
		return link
	}
	link.OrderID = &orderID

	order, ok := orders[orderID]
	if !ok {
		return link
	}
	customerID, ok := NormalizeID(order.Customer)
	if !ok {
		return link
	}
	customer, ok := customers[customerID]
	if !ok || customer.Email == "" {
		return link
	}

	email := customer.Email
	link.CustomerEmail = &email
	return link
}

func EnrichTickets(tickets []models.Ticket, orders []models.Order, customers []models.Customer) []TicketRow {
	orderIdx := OrderIndex(orders)
	customerIdx := CustomerIndex(customers)

	rows := make([]TicketRow, 0, len(tickets))
	for _, t := range tickets {
		link := JoinTicketToCustomer(t, orderIdx, customerIdx)
		rows = append(rows, TicketRow{
			Ticket:        t,
			OrderID:       link.OrderID,
			CustomerEmail: link.CustomerEmail,
			StatusLabel:   t.StatusLabel(),
		})
	}
	return rows
}

// ValidFilter reports whether filter is "all", empty, or a known ticket status.
func ValidFilter(filter string) bool {
	f := strings.ToLower(strings.TrimSpace(filter))
	if f == "" || f == FilterAll {
		return true
	}
	_, ok := models.ParseTicketStatus(f)
	return ok
}

// FilterByStatus keeps the rows whose status equals filter, ignoring case. "all" and
// the empty filter keep every row.
func FilterByStatus(rows []TicketRow, filter string) []TicketRow {
	f := strings.ToLower(strings.TrimSpace(filter))
	if f == "" || f == FilterAll {
		return append([]TicketRow(nil), rows...)
	}

	out := make([]TicketRow, 0, len(rows))
	for _, r := range rows {
		if string(r.Status.Normalize()) == f {
			out = append(out, r)
		}
	}
	return out
}

// PrimaryPrice is the first tier price set on the ticket.
func PrimaryPrice(t models.Ticket) models.Amount {
	for _, p := range []models.Amount{t.FirstPrice, t.SecondPrice, t.ThirdPrice} {
		if p.Valid {
			return p
		}
	}
	return models.Amount{}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
