package services

import (
	"context"
	"errors"
	"sync"

	"ticket-admin/internal/backend"
	"ticket-admin/internal/join"
	"ticket-admin/internal/status"
	"ticket-admin/models"
)

// fakeBackend serves fixed collections and records writes.
type fakeBackend struct {
	mu sync.Mutex

	tickets   []models.Ticket
	orders    []models.Order
	customers []models.Customer
	events    []models.Event

	failList  map[string]error
	patchErr  error
	patches   []any
	lastEvent backend.EventForm

	categoryInputs []backend.CategoryInput
	bannerInputs   []backend.BannerInput
	moves          []backend.Direction
	deleted        []string
}

func (f *fakeBackend) listErr(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failList[op]
}

func (f *fakeBackend) ListTickets(ctx context.Context, _ *backend.Session) ([]models.Ticket, error) {
	if err := f.listErr("tickets"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Ticket(nil), f.tickets...), nil
}

func (f *fakeBackend) ListOrders(ctx context.Context, _ *backend.Session) ([]models.Order, error) {
	if err := f.listErr("orders"); err != nil {
		return nil, err
	}
	return f.orders, nil
}

func (f *fakeBackend) ListCustomers(ctx context.Context, _ *backend.Session) ([]models.Customer, error) {
	if err := f.listErr("customers"); err != nil {
		return nil, err
	}
	return f.customers, nil
}

func (f *fakeBackend) ListEvents(ctx context.Context, _ *backend.Session) ([]models.Event, error) {
	if err := f.listErr("events"); err != nil {
		return nil, err
	}
	return f.events, nil
}

func (f *fakeBackend) GetTicket(_ context.Context, _ *backend.Session, id int64) (models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if tid, ok := join.NormalizeID(t.ID); ok && tid == id {
			return t, nil
		}
	}
	return models.Ticket{}, &backend.Error{Kind: backend.KindStatus, Op: "GetTicket", Status: 404, Message: "Not found."}
}

func (f *fakeBackend) PatchTicket(_ context.Context, _ *backend.Session, id int64, patch any) (models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	if f.patchErr != nil {
		return models.Ticket{}, f.patchErr
	}

	p, ok := patch.(status.Patch)
	if !ok {
		return models.Ticket{}, errors.New("unexpected patch type")
	}
	for i, t := range f.tickets {
		if tid, _ := join.NormalizeID(t.ID); tid != id {
			continue
		}
		if p.Status != nil {
			t.Status = *p.Status
		}
		if p.RefundStatus != nil {
			t.RefundStatus = *p.RefundStatus
		}
		f.tickets[i] = t
		return t, nil
	}
	return models.Ticket{}, &backend.Error{Kind: backend.KindStatus, Status: 404}
}

func (f *fakeBackend) ExportTicketsCSV(context.Context, *backend.Session) (*backend.Export, error) {
	return &backend.Export{ContentType: "text/csv", Data: []byte("id,status\n1,paid\n")}, nil
}

func (f *fakeBackend) GetEvent(_ context.Context, _ *backend.Session, id int64) (models.Event, error) {
	for _, e := range f.events {
		if eid, _ := join.NormalizeID(e.ID); eid == id {
			return e, nil
		}
	}
	return models.Event{}, &backend.Error{Kind: backend.KindStatus, Status: 404}
}

func (f *fakeBackend) CreateEvent(_ context.Context, _ *backend.Session, form backend.EventForm) (models.Event, error) {
	f.lastEvent = form
	return models.Event{ID: models.NewRef(99), Name: form.Name}, nil
}

func (f *fakeBackend) UpdateEvent(_ context.Context, _ *backend.Session, id int64, form backend.EventForm) (models.Event, error) {
	f.lastEvent = form
	return models.Event{ID: models.NewRef(id), Name: form.Name}, nil
}

func (f *fakeBackend) DeleteEvent(_ context.Context, _ *backend.Session, _ int64) error {
	f.deleted = append(f.deleted, "event")
	return nil
}

func (f *fakeBackend) ListCategories(context.Context, *backend.Session) ([]models.Category, error) {
	return []models.Category{{ID: models.NewRef(1), Name: "Concert"}}, nil
}

func (f *fakeBackend) CreateCategory(_ context.Context, _ *backend.Session, in backend.CategoryInput) (models.Category, error) {
	f.categoryInputs = append(f.categoryInputs, in)
	return models.Category{ID: models.NewRef(2), Name: in.Name}, nil
}

func (f *fakeBackend) UpdateCategory(_ context.Context, _ *backend.Session, id int64, in backend.CategoryInput) (models.Category, error) {
	f.categoryInputs = append(f.categoryInputs, in)
	return models.Category{ID: models.NewRef(id), Name: in.Name}, nil
}

func (f *fakeBackend) DeleteCategory(context.Context, *backend.Session, int64) error {
	f.deleted = append(f.deleted, "category")
	return nil
}

func (f *fakeBackend) ToggleCategoryHidden(_ context.Context, _ *backend.Session, id int64) (models.Category, error) {
	return models.Category{ID: models.NewRef(id), Hidden: true}, nil
}

func (f *fakeBackend) ListBanners(context.Context, *backend.Session) ([]models.Banner, error) {
	return nil, nil
}

func (f *fakeBackend) CreateBanner(_ context.Context, _ *backend.Session, in backend.BannerInput) (models.Banner, error) {
	f.bannerInputs = append(f.bannerInputs, in)
	return models.Banner{ID: models.NewRef(5), Name: in.Name}, nil
}

func (f *fakeBackend) UpdateBanner(_ context.Context, _ *backend.Session, id int64, in backend.BannerInput) (models.Banner, error) {
	f.bannerInputs = append(f.bannerInputs, in)
	return models.Banner{ID: models.NewRef(id), Name: in.Name}, nil
}

func (f *fakeBackend) DeleteBanner(context.Context, *backend.Session, int64) error {
	f.deleted = append(f.deleted, "banner")
	return nil
}

func (f *fakeBackend) MoveBanner(_ context.Context, _ *backend.Session, _ int64, dir backend.Direction) error {
	f.moves = append(f.moves, dir)
	return nil
}

func (f *fakeBackend) DeleteOrder(context.Context, *backend.Session, int64) error {
	f.deleted = append(f.deleted, "order")
	return nil
}

func (f *fakeBackend) DeleteCustomer(context.Context, *backend.Session, int64) error {
	f.deleted = append(f.deleted, "customer")
	return nil
}

func newFixtureBackend() *fakeBackend {
	return &fakeBackend{
		tickets: []models.Ticket{
			{ID: models.NewRef(1), Order: models.NewRef(10), Event: models.NewRef(100), Status: models.StatusPending},
			{ID: models.NewRef(2), Order: models.NewRef("ORD-11"), Event: models.NewRef(100), Status: models.StatusPaid},
			{ID: models.NewRef(3), Order: models.NewRef(10), Event: models.NewRef(200), Status: models.StatusCancel, RefundStatus: models.RefundInProcess},
			{ID: models.NewRef(4), Order: models.NewRef(404), Status: "PAID"},
		},
		orders: []models.Order{
			{ID: models.NewRef(10), Customer: models.NewRef(1000)},
			{ID: models.NewRef(11), Customer: models.NewRef(map[string]any{"id": float64(1001)})},
		},
		customers: []models.Customer{
			{ID: models.NewRef(1000), Email: "ann@example.com"},
			{ID: models.NewRef(1001), Email: "bob@example.com"},
		},
		events: []models.Event{
			{ID: models.NewRef(100), Name: "Summer Fest"},
			{ID: models.NewRef(200), Name: "Winter Gala"},
		},
	}
}

var testSession = &backend.Session{Token: "tok", Email: "admin@example.com", IsSuperuser: true}
