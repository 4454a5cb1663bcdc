package status

import (
	"fmt"

	"ticket-admin/models"
)

// Gate is what must happen before a transition is sent.
type Gate int

const (
	// GateDataEntry transitions only add information and require their form fields.
	GateDataEntry Gate = iota
	// GateConfirm transitions are destructive and require a yes/no confirmation.
	GateConfirm
)

func (g Gate) String() string {
	if g == GateConfirm {
		return "confirm"
	}
	return "data_entry"
}

type Edge struct {
	From models.TicketStatus
	To   models.TicketStatus
	Gate Gate
}

// RefundOnly reports whether the edge only moves the refund sub-state of a cancelled
// ticket.
func (e Edge) RefundOnly() bool {
	return e.From == models.StatusCancel && e.To == models.StatusCancel
}

// Prompt is the confirmation question for ticket id.
func (e Edge) Prompt(id int64) string {
	switch {
	case e.To == models.StatusCancel:
		return fmt.Sprintf("Cancel ticket #%d? Its refund will be marked as in process.", id)
	case e.To == models.StatusPending && e.From == models.StatusCancel:
		return fmt.Sprintf("Revert ticket #%d to pending? Its refund status will be reset to none.", id)
	case e.To == models.StatusPending:
		return fmt.Sprintf("Revert ticket #%d to pending?", id)
	}
	return fmt.Sprintf("Change ticket #%d to %s?", id, e.To.Label())
}

// edges is the complete transition policy, in display order per source status.
var edges = []Edge{
	{From: models.StatusPending, To: models.StatusPaid, Gate: GateDataEntry},

	{From: models.StatusPaid, To: models.StatusComplete, Gate: GateDataEntry},
	{From: models.StatusPaid, To: models.StatusCancel, Gate: GateConfirm},
	{From: models.StatusPaid, To: models.StatusPending, Gate: GateConfirm},

	{From: models.StatusComplete, To: models.StatusCancel, Gate: GateConfirm},
	{From: models.StatusComplete, To: models.StatusPending, Gate: GateConfirm},

	{From: models.StatusCancel, To: models.StatusCancel, Gate: GateDataEntry},
	{From: models.StatusCancel, To: models.StatusPending, Gate: GateConfirm},
}

// Lookup finds the edge between two statuses, compared case-insensitively.
func Lookup(from, to models.TicketStatus) (Edge, bool) {
	from, to = from.Normalize(), to.Normalize()
	for _, e := range edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

func Allowed(from, to models.TicketStatus) bool {
	_, ok := Lookup(from, to)
	return ok
}

// Targets lists the statuses reachable from from. A cancelled ticket lists itself
// for refund updates.
func Targets(from models.TicketStatus) []models.TicketStatus {
	from = from.Normalize()
	var out []models.TicketStatus
	for _, e := range edges {
		if e.From == from {
			out = append(out, e.To)
		}
	}
	return out
}

// Edges returns a copy of the policy table.
func Edges() []Edge {
	return append([]Edge(nil), edges...)
}
