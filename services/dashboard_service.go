package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ticket-admin/internal/backend"
	"ticket-admin/internal/join"
	"ticket-admin/internal/status"
	"ticket-admin/models"
	"ticket-admin/monitoring"
)

type DashboardSource interface {
	ListTickets(ctx context.Context, sess *backend.Session) ([]models.Ticket, error)
	ListOrders(ctx context.Context, sess *backend.Session) ([]models.Order, error)
	ListCustomers(ctx context.Context, sess *backend.Session) ([]models.Customer, error)
	ListEvents(ctx context.Context, sess *backend.Session) ([]models.Event, error)
}

// Snapshot is one consistent load of the four collections the dashboard joins.
type Snapshot struct {
	Tickets   []models.Ticket
	Orders    []models.Order
	Customers []models.Customer
	Events    []models.Event
	LoadedAt  time.Time
}

// TicketDetail is a single ticket with the transitions offered from its status.
type TicketDetail struct {
	join.TicketRow
	Targets []models.TicketStatus `json:"targets"`
}

type DashboardService struct {
	source DashboardSource
}

func NewDashboardService(source DashboardSource) *DashboardService {
	return &DashboardService{source: source}
}

// Load fetches all four collections concurrently. The first failure cancels the rest
// and the whole load fails.
func (s *DashboardService) Load(ctx context.Context, sess *backend.Session) (*Snapshot, error) {
	start := time.Now()
	snap := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Tickets, err = s.source.ListTickets(gctx, sess)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Orders, err = s.source.ListOrders(gctx, sess)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Customers, err = s.source.ListCustomers(gctx, sess)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Events, err = s.source.ListEvents(gctx, sess)
		return err
	})

	if err := g.Wait(); err != nil {
		monitoring.TrackDashboardLoad("failed")
		zap.L().Warn("dashboard load failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("dashboard: load: %w", err)
	}

	snap.LoadedAt = time.Now()
	monitoring.TrackDashboardLoad("ok")
	zap.L().Debug("dashboard loaded",
		zap.Int("tickets", len(snap.Tickets)),
		zap.Int("orders", len(snap.Orders)),
		zap.Int("customers", len(snap.Customers)),
		zap.Int("events", len(snap.Events)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return snap, nil
}

// TicketRows returns the enriched tickets matching filter ("all", empty or a status).
func (s *DashboardService) TicketRows(ctx context.Context, sess *backend.Session, filter string) ([]join.TicketRow, error) {
	if !join.ValidFilter(filter) {
		return nil, backend.NewValidationError("TicketRows", map[string]string{"status": "unknown status filter"})
	}

	snap, err := s.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return snap.TicketRows(filter), nil
}

// TicketRows joins the snapshot and applies filter. filter is assumed valid.
func (snap *Snapshot) TicketRows(filter string) []join.TicketRow {
	names := join.EventNames(snap.Events)
	rows := join.FilterByStatus(join.EnrichTickets(snap.Tickets, snap.Orders, snap.Customers), filter)
	for i := range rows {
		rows[i].EventName = join.EventLabel(names, rows[i].Event)
	}
	return rows
}

func (s *DashboardService) EventOverview(ctx context.Context, sess *backend.Session) ([]join.EventBlock, error) {
	snap, err := s.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return join.AggregateByEvent(snap.Events, snap.Tickets, snap.Orders, snap.Customers), nil
}

func (s *DashboardService) CustomerSummaries(ctx context.Context, sess *backend.Session) ([]join.CustomerSummary, error) {
	snap, err := s.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	return join.SummarizeCustomers(snap.Customers, snap.Orders, snap.Tickets), nil
}

// TicketDetail looks the ticket up in a fresh load so the order, customer and event
// columns match the tickets table.
func (s *DashboardService) TicketDetail(ctx context.Context, sess *backend.Session, id int64) (*TicketDetail, error) {
	snap, err := s.Load(ctx, sess)
	if err != nil {
		return nil, err
	}

	for _, row := range snap.TicketRows(join.FilterAll) {
		if rowID, ok := join.NormalizeID(row.ID); ok && rowID == id {
			from := row.Status.Normalize()
			if from == "" {
				from = models.StatusPending
			}
			targets := status.Targets(from)
			if targets == nil {
				targets = []models.TicketStatus{}
			}
			return &TicketDetail{TicketRow: row, Targets: targets}, nil
		}
	}
	return nil, ErrTicketNotFound
}
