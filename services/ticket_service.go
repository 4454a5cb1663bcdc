package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ticket-admin/internal/backend"
	"ticket-admin/internal/status"
	"ticket-admin/models"
	"ticket-admin/monitoring"
)

var ErrTicketNotFound = errors.New("ticket not found")

type TicketAPI interface {
	status.TicketStore
	GetTicket(ctx context.Context, sess *backend.Session, id int64) (models.Ticket, error)
	ExportTicketsCSV(ctx context.Context, sess *backend.Session) (*backend.Export, error)
}

type TicketService struct {
	api        TicketAPI
	controller *status.Controller
	notifier   Notifier
	now        func() time.Time
}

func NewTicketService(api TicketAPI, notifier Notifier) *TicketService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TicketService{
		api:        api,
		controller: status.NewController(api),
		notifier:   notifier,
		now:        time.Now,
	}
}

// ChangeStatus fetches the current ticket and applies req to it. A non-nil result
// comes back with status.ErrResync when the patch landed but the refetch failed.
func (s *TicketService) ChangeStatus(ctx context.Context, sess *backend.Session, id int64, req status.Request, confirmer status.Confirmer) (*status.Result, error) {
	ticket, err := s.api.GetTicket(ctx, sess, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("ticket: get %d: %w", id, err)
	}

	from := ticket.Status.Normalize()
	if from == "" {
		from = models.StatusPending
	}
	to := req.To.Normalize()

	res, err := s.controller.Apply(ctx, sess, ticket, req, confirmer)
	monitoring.TrackTransition(string(from), string(to), transitionResult(res, err))
	if res == nil {
		return nil, err
	}

	zap.L().Info("ticket status changed",
		zap.Int64("ticket_id", res.TicketID),
		zap.String("from", string(from)),
		zap.String("to", string(res.Edge.To)),
		zap.String("by", sess.Email),
	)

	change := TicketChange{
		TicketID:  res.TicketID,
		From:      string(from),
		To:        string(res.Edge.To),
		ChangedBy: sess.Email,
		ChangedAt: s.now().Unix(),
	}
	if res.Patch.RefundStatus != nil {
		change.RefundStatus = string(*res.Patch.RefundStatus)
	}
	if nerr := s.notifier.NotifyTicketChange(ctx, change); nerr != nil {
		zap.L().Warn("ticket change notification failed", zap.Error(nerr))
	}

	return res, err
}

// ExportCSV downloads the ticket export, naming it after the current time when the
// backend sends no filename.
func (s *TicketService) ExportCSV(ctx context.Context, sess *backend.Session) (*backend.Export, error) {
	export, err := s.api.ExportTicketsCSV(ctx, sess)
	if err != nil {
		return nil, err
	}
	if export.Filename == "" {
		export.Filename = backend.DefaultExportFilename(s.now())
	}
	return export, nil
}

func (s *TicketService) InFlight(id int64) bool {
	return s.controller.InFlight(id)
}

func transitionResult(res *status.Result, err error) string {
	var verr *status.ValidationError
	var cerr *status.ConfirmationRequiredError
	switch {
	case err == nil:
		return "applied"
	case res != nil:
		return "applied_stale"
	case errors.Is(err, status.ErrDeclined), errors.As(err, &cerr):
		return "declined"
	case errors.Is(err, status.ErrNotAllowed), errors.Is(err, status.ErrInFlight), errors.As(err, &verr):
		return "rejected"
	}
	return "failed"
}

func isNotFound(err error) bool {
	var berr *backend.Error
	return errors.As(err, &berr) && berr.Status == 404
}
