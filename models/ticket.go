package models

import "strings"

type TicketStatus string

const (
	StatusPending  TicketStatus = "pending"
	StatusPaid     TicketStatus = "paid"
	StatusComplete TicketStatus = "complete"
	StatusCancel   TicketStatus = "cancel"
)

// TicketStatuses lists the statuses in workflow order.
var TicketStatuses = []TicketStatus{StatusPending, StatusPaid, StatusComplete, StatusCancel}

// ParseTicketStatus matches case-insensitively and ignores surrounding blanks.
func ParseTicketStatus(s string) (TicketStatus, bool) {
	st := TicketStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range TicketStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// Normalize lower-cases the status as received from the backend.
func (s TicketStatus) Normalize() TicketStatus {
	return TicketStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

func (s TicketStatus) Label() string {
	switch s.Normalize() {
	case StatusPending:
		return "Pending"
	case StatusPaid:
		return "Paid"
	case StatusComplete:
		return "Completed"
	case StatusCancel:
		return "Cancelled"
	}
	return string(s)
}

type RefundStatus string

const (
	RefundNone      RefundStatus = "none"
	RefundInProcess RefundStatus = "in_process"
	RefundRefunded  RefundStatus = "refunded"
)

func ParseRefundStatus(s string) (RefundStatus, bool) {
	rs := RefundStatus(strings.ToLower(strings.TrimSpace(s)))
	switch rs {
	case RefundNone, RefundInProcess, RefundRefunded:
		return rs, true
	}
	return "", false
}

func (r RefundStatus) Label() string {
	switch RefundStatus(strings.ToLower(string(r))) {
	case RefundNone, "":
		return "None"
	case RefundInProcess:
		return "In Process"
	case RefundRefunded:
		return "Refunded"
	}
	return string(r)
}

type Ticket struct {
	ID    Ref `json:"id"`
	Order Ref `json:"order"`
	Event Ref `json:"event"`

	PassportName Text `json:"passport_name"`
	FacebookName Text `json:"facebook_name"`
	MemberCode   Text `json:"member_code"`
	PriorityDate Text `json:"priority_date"`

	FirstPrice  Amount `json:"fst_pt"`
	SecondPrice Amount `json:"snd_pt"`
	ThirdPrice  Amount `json:"trd_pt"`

	Status       TicketStatus `json:"status"`
	RefundStatus RefundStatus `json:"refund_status"`

	// set on pending -> paid
	CustomerPayment Amount `json:"customer_payment"`
	PaymentDate     Text   `json:"payment_date"`

	// set on paid -> complete
	SellingPrice Amount `json:"selling_price"`
	Zone         Text   `json:"zone"`
	Row          Text   `json:"row"`
	Seat         Text   `json:"seat"`
}

// StatusLabel renders the status, with the refund sub-state for cancelled tickets,
// e.g. "Cancelled (In Process)".
func (t Ticket) StatusLabel() string {
	label := t.Status.Label()
	if label == "" {
		label = "-"
	}
	if t.Status.Normalize() == StatusCancel && t.RefundStatus != "" && t.RefundStatus != RefundNone {
		label += " (" + t.RefundStatus.Label() + ")"
	}
	return label
}
