package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-admin/internal/backend"
	"ticket-admin/models"
)

func TestDashboardService_Load(t *testing.T) {
	fake := newFixtureBackend()
	service := NewDashboardService(fake)

	snap, err := service.Load(context.Background(), testSession)
	require.NoError(t, err)
	assert.Len(t, snap.Tickets, 4)
	assert.Len(t, snap.Orders, 2)
	assert.Len(t, snap.Customers, 2)
	assert.Len(t, snap.Events, 2)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestDashboardService_Load_AnyFailureFailsAll(t *testing.T) {
	for _, collection := range []string{"tickets", "orders", "customers", "events"} {
		t.Run(collection, func(t *testing.T) {
			fake := newFixtureBackend()
			boom := &backend.Error{Kind: backend.KindNetwork, Message: backend.NetworkErrorMessage}
			fake.failList = map[string]error{collection: boom}

			snap, err := NewDashboardService(fake).Load(context.Background(), testSession)
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, backend.KindNetwork, backend.KindOf(err))
		})
	}
}

func TestDashboardService_TicketRows(t *testing.T) {
	service := NewDashboardService(newFixtureBackend())
	ctx := context.Background()

	rows, err := service.TicketRows(ctx, testSession, "all")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, int64(10), *rows[0].OrderID)
	assert.Equal(t, "ann@example.com", *rows[0].CustomerEmail)
	assert.Equal(t, "Summer Fest", rows[0].EventName)

	// "ORD-11" resolves to order 11, whose customer is a nested object
	assert.Equal(t, int64(11), *rows[1].OrderID)
	assert.Equal(t, "bob@example.com", *rows[1].CustomerEmail)

	assert.Equal(t, "Cancelled (In Process)", rows[2].StatusLabel)
	assert.Equal(t, "Winter Gala", rows[2].EventName)

	assert.Equal(t, int64(404), *rows[3].OrderID)
	assert.Nil(t, rows[3].CustomerEmail)
	assert.Equal(t, "-", rows[3].EventName)

	paid, err := service.TicketRows(ctx, testSession, "paid")
	require.NoError(t, err)
	require.Len(t, paid, 2)
	assert.Equal(t, models.NewRef(2), paid[0].ID)
	assert.Equal(t, models.NewRef(4), paid[1].ID)
}

func TestDashboardService_TicketRows_UnknownFilter(t *testing.T) {
	fake := newFixtureBackend()
	fake.failList = map[string]error{"tickets": errors.New("must not load")}

	_, err := NewDashboardService(fake).TicketRows(context.Background(), testSession, "refunded")
	assert.Equal(t, backend.KindValidation, backend.KindOf(err))
}

func TestDashboardService_EventOverview(t *testing.T) {
	blocks, err := NewDashboardService(newFixtureBackend()).EventOverview(context.Background(), testSession)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, "Summer Fest", blocks[0].EventName)
	require.Len(t, blocks[0].Orders, 2)
	assert.Equal(t, "ann@example.com", *blocks[0].Orders[0].Email)
	assert.Equal(t, "bob@example.com", *blocks[0].Orders[1].Email)

	assert.Equal(t, "Winter Gala", blocks[1].EventName)
	require.Len(t, blocks[1].Orders, 1)
	assert.Equal(t, models.RefundInProcess, blocks[1].Orders[0].Rows[0].RefundStatus)
}

func TestDashboardService_CustomerSummaries(t *testing.T) {
	summaries, err := NewDashboardService(newFixtureBackend()).CustomerSummaries(context.Background(), testSession)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// newest customer first
	assert.Equal(t, "bob@example.com", summaries[0].Email)
	assert.Equal(t, 1, summaries[0].Paid)
	assert.Equal(t, "ann@example.com", summaries[1].Email)
	assert.Equal(t, 2, summaries[1].Total)
	assert.Equal(t, 1, summaries[1].Cancel)
}

func TestDashboardService_TicketDetail(t *testing.T) {
	service := NewDashboardService(newFixtureBackend())
	ctx := context.Background()

	detail, err := service.TicketDetail(ctx, testSession, 2)
	require.NoError(t, err)
	assert.Equal(t, "Summer Fest", detail.EventName)
	assert.Equal(t, []models.TicketStatus{models.StatusComplete, models.StatusCancel, models.StatusPending}, detail.Targets)

	detail, err = service.TicketDetail(ctx, testSession, 3)
	require.NoError(t, err)
	assert.Equal(t, []models.TicketStatus{models.StatusCancel, models.StatusPending}, detail.Targets)

	_, err = service.TicketDetail(ctx, testSession, 77)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}
