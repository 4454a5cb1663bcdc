package join

import "ticket-admin/models"

type EventBlock struct {
	EventID       *int64       `json:"event_id"`
	EventName     string       `json:"event_name"`
	EventDate     string       `json:"event_date"`
	EventLocation string       `json:"event_location"`
	Orders        []OrderGroup `json:"orders"`
}

// OrderGroup holds one order's tickets within an event. OrderID is nil for tickets
// whose order does not resolve.
type OrderGroup struct {
	OrderID *int64       `json:"order_id"`
	Email   *string      `json:"email"`
	Rows    []TicketLine `json:"rows"`
}

type TicketLine struct {
	TicketID     *int64              `json:"ticket_id"`
	PassportName string              `json:"passport_name"`
	FacebookName string              `json:"facebook_name"`
	MemberCode   string              `json:"member_code"`
	PriorityDate string              `json:"priority_date"`
	Price        models.Amount       `json:"price"`
	Status       models.TicketStatus `json:"status"`
	RefundStatus models.RefundStatus `json:"refund_status"`
}

// AggregateByEvent builds one block per event, in event order. Each block groups the
// event's tickets by order in first-seen order and resolves the customer email once
// per group. A ticket without an event reference inherits its order's event.
func AggregateByEvent(events []models.Event, tickets []models.Ticket, orders []models.Order, customers []models.Customer) []EventBlock {
	orderIdx := OrderIndex(orders)
	customerIdx := CustomerIndex(customers)

	byEvent := make(map[int64][]models.Ticket)
	for _, t := range tickets {
		eventID, ok := ticketEventID(t, orderIdx)
		if !ok {
			continue
		}
		byEvent[eventID] = append(byEvent[eventID], t)
	}

	blocks := make([]EventBlock, 0, len(events))
	for _, e := range events {
		block := EventBlock{
			EventID:       idPtr(e.ID),
			EventName:     e.Name,
			EventDate:     e.DisplayDate(),
			EventLocation: e.Location.String(),
			Orders:        []OrderGroup{},
		}
		if block.EventID != nil {
			block.Orders = groupByOrder(byEvent[*block.EventID], orderIdx, customerIdx)
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func ticketEventID(t models.Ticket, orders map[int64]models.Order) (int64, bool) {
	if id, ok := NormalizeID(t.Event); ok {
		return id, true
	}
	orderID, ok := NormalizeID(t.Order)
	if !ok {
		return 0, false
	}
	order, ok := orders[orderID]
	if !ok {
		return 0, false
	}
	return NormalizeID(order.Event)
}

func groupByOrder(tickets []models.Ticket, orders map[int64]models.Order, customers map[int64]models.Customer) []OrderGroup {
	groups := []OrderGroup{}
	position := make(map[int64]int)
	orphan := -1

	for _, t := range tickets {
		link := JoinTicketToCustomer(t, orders, customers)

		var idx int
		switch {
		case link.OrderID == nil && orphan >= 0:
			idx = orphan
		case link.OrderID == nil:
			groups = append(groups, OrderGroup{})
			orphan = len(groups) - 1
			idx = orphan
		default:
			i, seen := position[*link.OrderID]
			if !seen {
				groups = append(groups, OrderGroup{OrderID: link.OrderID, Email: link.CustomerEmail})
				i = len(groups) - 1
				position[*link.OrderID] = i
			}
			idx = i
		}

		groups[idx].Rows = append(groups[idx].Rows, ticketLine(t))
	}
	return groups
}

func ticketLine(t models.Ticket) TicketLine {
	status := t.Status.Normalize()
	if status == "" {
		status = models.StatusPending
	}
	refund := t.RefundStatus
	if refund == "" {
		refund = models.RefundNone
	}
	return TicketLine{
		TicketID:     idPtr(t.ID),
		PassportName: t.PassportName.String(),
		FacebookName: t.FacebookName.String(),
		MemberCode:   t.MemberCode.String(),
		PriorityDate: t.PriorityDate.String(),
		Price:        t.FirstPrice,
		Status:       status,
		RefundStatus: refund,
	}
}
