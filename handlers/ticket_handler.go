package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v5"

	"ticket-admin/internal/backend"
	"ticket-admin/internal/join"
	"ticket-admin/internal/status"
	"ticket-admin/services"
)

type Dashboard interface {
	TicketRows(ctx context.Context, sess *backend.Session, filter string) ([]join.TicketRow, error)
	TicketDetail(ctx context.Context, sess *backend.Session, id int64) (*services.TicketDetail, error)
	EventOverview(ctx context.Context, sess *backend.Session) ([]join.EventBlock, error)
	CustomerSummaries(ctx context.Context, sess *backend.Session) ([]join.CustomerSummary, error)
}

type Tickets interface {
	ChangeStatus(ctx context.Context, sess *backend.Session, id int64, req status.Request, confirmer status.Confirmer) (*status.Result, error)
	ExportCSV(ctx context.Context, sess *backend.Session) (*backend.Export, error)
}

type TicketHandler struct {
	base
	dashboard Dashboard
	tickets   Tickets
}

func NewTicketHandler(sessions Sessions, dashboard Dashboard, tickets Tickets) *TicketHandler {
	return &TicketHandler{base: base{sessions: sessions}, dashboard: dashboard, tickets: tickets}
}

// ListTickets - enriched tickets, optionally filtered by ?status=
func (h *TicketHandler) ListTickets(c echo.Context) error {
	rows, err := h.dashboard.TicketRows(c.Request().Context(), session(c), c.QueryParam("status"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// GetTicket - one ticket with the transitions it offers
func (h *TicketHandler) GetTicket(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c)
	}

	detail, err := h.dashboard.TicketDetail(c.Request().Context(), session(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// ChangeStatus - move a ticket along the status workflow. Gated transitions need
// "confirm": true; without it the prompt comes back with 409.
func (h *TicketHandler) ChangeStatus(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c)
	}

	var req struct {
		status.Request
		Confirm bool `json:"confirm"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	var confirmer status.Confirmer
	if req.Confirm {
		confirmer = status.Preconfirmed(true)
	}

	res, err := h.tickets.ChangeStatus(c.Request().Context(), session(c), id, req.Request, confirmer)
	if res == nil {
		return h.fail(c, err)
	}

	body := map[string]any{
		"ticket":  res.Ticket,
		"tickets": res.Tickets,
		"from":    res.Edge.From,
		"to":      res.Edge.To,
	}
	if errors.Is(err, status.ErrResync) {
		body["warning"] = "Ticket updated, but the ticket list could not be refreshed"
		body["error"] = backend.Message(err)
	}
	return c.JSON(http.StatusOK, body)
}

// ExportTickets - CSV download of all tickets
func (h *TicketHandler) ExportTickets(c echo.Context) error {
	export, err := h.tickets.ExportCSV(c.Request().Context(), session(c))
	if err != nil {
		return h.fail(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename))
	return c.Blob(http.StatusOK, export.ContentType, export.Data)
}

// EventOverview - tickets grouped by event and order
func (h *TicketHandler) EventOverview(c echo.Context) error {
	blocks, err := h.dashboard.EventOverview(c.Request().Context(), session(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, blocks)
}

// CustomerSummary - per-customer order and ticket counts
func (h *TicketHandler) CustomerSummary(c echo.Context) error {
	rows, err := h.dashboard.CustomerSummaries(c.Request().Context(), session(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
