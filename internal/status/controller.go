package status

import (
	"context"
	"fmt"
	"sync"

	"ticket-admin/internal/backend"
	"ticket-admin/internal/join"
	"ticket-admin/models"
)

// TicketStore is the slice of the backend the controller needs.
type TicketStore interface {
	PatchTicket(ctx context.Context, sess *backend.Session, id int64, patch any) (models.Ticket, error)
	ListTickets(ctx context.Context, sess *backend.Session) ([]models.Ticket, error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Preconfirmed answers for callers that collect the confirmation up front, such as an
// HTTP request carrying "confirm": true. Without it the prompt is handed back in a
// ConfirmationRequiredError.
func Preconfirmed(confirmed bool) Confirmer {
	return ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		if !confirmed {
			return false, &ConfirmationRequiredError{Prompt: prompt}
		}
		return true, nil
	})
}

type Result struct {
	TicketID int64
	Edge     Edge
	Patch    Patch
	// Ticket is the backend's copy after the patch.
	Ticket models.Ticket
	// Tickets is the full list fetched after the patch.
	Tickets []models.Ticket
}

type Controller struct {
	store TicketStore

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

func NewController(store TicketStore) *Controller {
	return &Controller{
		store:    store,
		inFlight: make(map[int64]struct{}),
	}
}

// Apply runs one transition: plan it, confirm it when the edge is gated, send a
// single PATCH and refetch the ticket list.
//
// Nothing is sent when planning fails or the confirmation is declined. When the
// PATCH fails the error is returned and no refetch happens. When only the refetch
// fails the result is still returned alongside an ErrResync error.
func (c *Controller) Apply(ctx context.Context, sess *backend.Session, ticket models.Ticket, req Request, confirmer Confirmer) (*Result, error) {
	id, ok := join.NormalizeID(ticket.ID)
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"id": "is missing"}}
	}

	patch, edge, err := Plan(ticket, req)
	if err != nil {
		return nil, err
	}

	if edge.Gate == GateConfirm {
		if confirmer == nil {
			return nil, &ConfirmationRequiredError{Prompt: edge.Prompt(id)}
		}
		confirmed, err := confirmer.Confirm(ctx, edge.Prompt(id))
		if err != nil {
			return nil, err
		}
		if !confirmed {
			return nil, ErrDeclined
		}
	}

	if !c.acquire(id) {
		return nil, ErrInFlight
	}
	defer c.release(id)

	updated, err := c.store.PatchTicket(ctx, sess, id, patch)
	if err != nil {
		return nil, fmt.Errorf("status: patch ticket %d: %w", id, err)
	}

	res := &Result{TicketID: id, Edge: edge, Patch: patch, Ticket: updated}

	tickets, err := c.store.ListTickets(ctx, sess)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrResync, err)
	}
	res.Tickets = tickets
	return res, nil
}

// InFlight reports whether a transition for the ticket is being sent.
func (c *Controller) InFlight(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inFlight[id]
	return busy
}

func (c *Controller) acquire(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[id]; busy {
		return false
	}
	c.inFlight[id] = struct{}{}
	return true
}

func (c *Controller) release(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, id)
}
