package status

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticket-admin/internal/backend"
	"ticket-admin/internal/join"
	"ticket-admin/models"
)

type MockTicketStore struct {
	mock.Mock
}

func (m *MockTicketStore) PatchTicket(ctx context.Context, sess *backend.Session, id int64, patch any) (models.Ticket, error) {
	args := m.Called(ctx, sess, id, patch)
	return args.Get(0).(models.Ticket), args.Error(1)
}

func (m *MockTicketStore) ListTickets(ctx context.Context, sess *backend.Session) ([]models.Ticket, error) {
	args := m.Called(ctx, sess)
	tickets, _ := args.Get(0).([]models.Ticket)
	return tickets, args.Error(1)
}

// memoryStore applies patches to an in-memory ticket list.
type memoryStore struct {
	mu      sync.Mutex
	tickets map[int64]models.Ticket
	bodies  []string
	gate    chan struct{}
}

func newMemoryStore(tickets ...models.Ticket) *memoryStore {
	s := &memoryStore{tickets: make(map[int64]models.Ticket)}
	for _, t := range tickets {
		id, _ := join.NormalizeID(t.ID)
		s.tickets[id] = t
	}
	return s
}

func (s *memoryStore) PatchTicket(ctx context.Context, _ *backend.Session, id int64, patch any) (models.Ticket, error) {
	if s.gate != nil {
		<-s.gate
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return models.Ticket{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies = append(s.bodies, string(body))

	t := s.tickets[id]
	// decoding the body over the stored ticket mirrors a partial update
	if err := json.Unmarshal(body, &t); err != nil {
		return models.Ticket{}, err
	}
	s.tickets[id] = t
	return t, nil
}

func (s *memoryStore) ListTickets(context.Context, *backend.Session) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t)
	}
	return out, nil
}

var testSession = &backend.Session{Token: "token", Email: "admin@x.com", IsSuperuser: true}

func TestController_PaidRoundTrip(t *testing.T) {
	store := newMemoryStore(models.Ticket{ID: models.NewRef(3), Status: models.StatusPending})
	ctrl := NewController(store)

	res, err := ctrl.Apply(context.Background(), testSession, store.tickets[3], Request{
		To:              models.StatusPaid,
		CustomerPayment: "250.75",
		PaymentDate:     "2025-04-02",
	}, nil)
	require.NoError(t, err)

	require.Len(t, res.Tickets, 1)
	got := res.Tickets[0]
	assert.Equal(t, models.StatusPaid, got.Status)
	assert.Equal(t, "250.75", got.CustomerPayment.String())
	assert.Equal(t, "2025-04-02", got.PaymentDate.String())
}

func TestController_PaidKeepsTypedAmount(t *testing.T) {
	store := newMemoryStore(models.Ticket{ID: models.NewRef(4), Status: models.StatusPending})
	ctrl := NewController(store)

	res, err := ctrl.Apply(context.Background(), testSession, store.tickets[4], Request{
		To:              models.StatusPaid,
		CustomerPayment: " 100.50 ",
		PaymentDate:     "2024-05-01",
	}, nil)
	require.NoError(t, err)

	require.Equal(t, []string{`{"status":"paid","customer_payment":"100.50","payment_date":"2024-05-01"}`}, store.bodies)
	require.Len(t, res.Tickets, 1)
	assert.Equal(t, "100.50", res.Tickets[0].CustomerPayment.String())
}

func TestController_CancelFromComplete(t *testing.T) {
	ticket := models.Ticket{ID: models.NewRef(7), Status: models.StatusComplete}
	other := models.Ticket{ID: models.NewRef(8), Status: models.StatusComplete}
	store := newMemoryStore(ticket, other)
	ctrl := NewController(store)

	var prompted string
	confirmer := ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		prompted = prompt
		return true, nil
	})

	res, err := ctrl.Apply(context.Background(), testSession, ticket, Request{To: models.StatusCancel}, confirmer)
	require.NoError(t, err)

	assert.Contains(t, prompted, "#7")
	require.Len(t, store.bodies, 1)
	assert.JSONEq(t, `{"status":"cancel","refund_status":"in_process"}`, store.bodies[0])

	rows := join.EnrichTickets(res.Tickets, nil, nil)
	completeIDs := ids(join.FilterByStatus(rows, "complete"))
	cancelIDs := ids(join.FilterByStatus(rows, "cancel"))
	assert.Equal(t, []int64{8}, completeIDs)
	assert.Equal(t, []int64{7}, cancelIDs)
}

func ids(rows []join.TicketRow) []int64 {
	var out []int64
	for _, r := range rows {
		id, _ := join.NormalizeID(r.ID)
		out = append(out, id)
	}
	return out
}

func TestController_ValidationSendsNothing(t *testing.T) {
	store := new(MockTicketStore)
	ctrl := NewController(store)

	_, err := ctrl.Apply(context.Background(), testSession, ticketWith(models.StatusPending), Request{
		To:              models.StatusPaid,
		CustomerPayment: "100",
	}, nil)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "payment_date")
	store.AssertNotCalled(t, "PatchTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestController_NotAllowedSendsNothing(t *testing.T) {
	store := new(MockTicketStore)
	ctrl := NewController(store)

	_, err := ctrl.Apply(context.Background(), testSession, ticketWith(models.StatusPending), Request{To: models.StatusComplete}, nil)

	assert.ErrorIs(t, err, ErrNotAllowed)
	store.AssertNotCalled(t, "PatchTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestController_Declined(t *testing.T) {
	store := new(MockTicketStore)
	ctrl := NewController(store)

	no := ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	_, err := ctrl.Apply(context.Background(), testSession, ticketWith(models.StatusPaid), Request{To: models.StatusCancel}, no)

	assert.ErrorIs(t, err, ErrDeclined)
	store.AssertNotCalled(t, "PatchTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestController_PreconfirmedRequired(t *testing.T) {
	store := new(MockTicketStore)
	ctrl := NewController(store)

	_, err := ctrl.Apply(context.Background(), testSession, ticketWith(models.StatusCancel), Request{To: models.StatusPending}, Preconfirmed(false))

	var need *ConfirmationRequiredError
	require.True(t, errors.As(err, &need))
	assert.Contains(t, need.Prompt, "reset to none")
	store.AssertNotCalled(t, "PatchTicket", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestController_RevertFromCancelResetsRefund(t *testing.T) {
	store := new(MockTicketStore)
	ctrl := NewController(store)

	ticket := ticketWith(models.StatusCancel)
	ticket.RefundStatus = models.RefundRefunded

	store.On("PatchTicket", mock.Anything, testSession, int64(7), mock.MatchedBy(func(p any) bool {
		patch, ok := p.(Patch)
		return ok && patch.RefundStatus != nil && *patch.RefundStatus == models.RefundNone &&
			patch.Status != nil && *patch.Status == models.StatusPending
	})).Return(models.Ticket{ID: models.NewRef(7), Status: models.StatusPending, RefundStatus: models.RefundNone}, nil).Once()
	store.On("ListTickets", mock.Anything, testSession).Return([]models.Ticket{}, nil).Once()

	res, err := ctrl.Apply(context.Background(), testSession, ticket, Request{To: models.StatusPending}, Preconfirmed(true))

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, res.Ticket.Status)
	store.AssertExpectations(t)
}

func TestController_PatchFailureSkipsRefetch(t *testing.T) {
	store := new(MockTicketStore)
	ctrl := NewController(store)

	backendErr := &backend.Error{Kind: backend.KindStatus, Status: 400, Message: "Invalid payment"}
	store.On("PatchTicket", mock.Anything, testSession, int64(7), mock.Anything).Return(models.Ticket{}, backendErr).Once()

	res, err := ctrl.Apply(context.Background(), testSession, ticketWith(models.StatusPending), Request{
		To: models.StatusPaid, CustomerPayment: "5", PaymentDate: "2025-01-01",
	}, nil)

	assert.Nil(t, res)
	var berr *backend.Error
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, "Invalid payment", berr.Message)
	store.AssertNotCalled(t, "ListTickets", mock.Anything, mock.Anything)
	assert.False(t, ctrl.InFlight(7))
}

func TestController_ResyncFailure(t *testing.T) {
	store := new(MockTicketStore)
	ctrl := NewController(store)

	store.On("PatchTicket", mock.Anything, testSession, int64(7), mock.Anything).
		Return(models.Ticket{ID: models.NewRef(7), Status: models.StatusCancel}, nil).Once()
	store.On("ListTickets", mock.Anything, testSession).Return(nil, errors.New("boom")).Once()

	res, err := ctrl.Apply(context.Background(), testSession, ticketWith(models.StatusPaid), Request{To: models.StatusCancel}, Preconfirmed(true))

	require.NotNil(t, res)
	assert.Equal(t, models.StatusCancel, res.Ticket.Status)
	assert.ErrorIs(t, err, ErrResync)
}

func TestController_InFlightGuard(t *testing.T) {
	store := newMemoryStore(models.Ticket{ID: models.NewRef(7), Status: models.StatusPaid})
	store.gate = make(chan struct{})
	ctrl := NewController(store)

	ticket := store.tickets[7]
	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Apply(context.Background(), testSession, ticket, Request{To: models.StatusCancel}, Preconfirmed(true))
		done <- err
	}()

	require.Eventually(t, func() bool { return ctrl.InFlight(7) }, time.Second, 5*time.Millisecond)

	_, err := ctrl.Apply(context.Background(), testSession, ticket, Request{To: models.StatusPending}, Preconfirmed(true))
	assert.ErrorIs(t, err, ErrInFlight)

	close(store.gate)
	require.NoError(t, <-done)
	assert.False(t, ctrl.InFlight(7))
	assert.Len(t, store.bodies, 1)
}

func TestController_MissingTicketID(t *testing.T) {
	ctrl := NewController(new(MockTicketStore))

	_, err := ctrl.Apply(context.Background(), testSession, models.Ticket{Status: models.StatusPaid}, Request{To: models.StatusCancel}, Preconfirmed(true))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "id")
}
