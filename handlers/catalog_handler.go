package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v5"

	"ticket-admin/internal/backend"
	"ticket-admin/models"
	"ticket-admin/services"
)

type Catalog interface {
	ListEvents(ctx context.Context, sess *backend.Session) ([]models.Event, error)
	GetEvent(ctx context.Context, sess *backend.Session, id int64) (models.Event, error)
	CreateEvent(ctx context.Context, sess *backend.Session, in services.EventInput) (models.Event, error)
	UpdateEvent(ctx context.Context, sess *backend.Session, id int64, in services.EventInput) (models.Event, error)
	DeleteEvent(ctx context.Context, sess *backend.Session, id int64) error

	ListCategories(ctx context.Context, sess *backend.Session) ([]models.Category, error)
	CreateCategory(ctx context.Context, sess *backend.Session, name string, image *backend.Upload) (models.Category, error)
	UpdateCategory(ctx context.Context, sess *backend.Session, id int64, name string, image *backend.Upload) (models.Category, error)
	DeleteCategory(ctx context.Context, sess *backend.Session, id int64) error
	ToggleCategoryHidden(ctx context.Context, sess *backend.Session, id int64) (models.Category, error)

	ListBanners(ctx context.Context, sess *backend.Session) ([]models.Banner, error)
	CreateBanner(ctx context.Context, sess *backend.Session, name string, images []backend.Upload) (models.Banner, error)
	UpdateBanner(ctx context.Context, sess *backend.Session, id int64, name string, images []backend.Upload) (models.Banner, error)
	DeleteBanner(ctx context.Context, sess *backend.Session, id int64) error
	MoveBanner(ctx context.Context, sess *backend.Session, id int64, dir backend.Direction) error

	DeleteOrder(ctx context.Context, sess *backend.Session, id int64) error
	DeleteCustomer(ctx context.Context, sess *backend.Session, id int64) error
}

type CatalogHandler struct {
	base
	catalog Catalog
}

func NewCatalogHandler(sessions Sessions, catalog Catalog) *CatalogHandler {
	return &CatalogHandler{base: base{sessions: sessions}, catalog: catalog}
}

func (h *CatalogHandler) ListEvents(c echo.Context) error {
	events, err := h.catalog.ListEvents(c.Request().Context(), session(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *CatalogHandler) GetEvent(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c)
	}
	event, err := h.catalog.GetEvent(c.Request().Context(), session(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, event)
}

// CreateEvent - multipart event form with poster files under "images"
func (h *CatalogHandler) CreateEvent(c echo.Context) error {
	in, err := eventInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	event, err := h.catalog.CreateEvent(c.Request().Context(), session(c), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, event)
}

// UpdateEvent - like CreateEvent; "existing_images" lists the poster urls to keep
func (h *CatalogHandler) UpdateEvent(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c)
	}
	in, err := eventInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	event, err := h.catalog.UpdateEvent(c.Request().Context(), session(c), id, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, event)
}

func (h *CatalogHandler) DeleteEvent(c echo.Context) error {
	return h.deleteByID(c, h.catalog.DeleteEvent)
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalog.ListCategories(c.Request().Context(), session(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	image, err := optionalUpload(c, "category_image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	category, err := h.catalog.CreateCategory(c.Request().Context(), session(c), c.FormValue("category_name"), image)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c)
	}
	image, err := optionalUpload(c, "category_image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	category, err := h.catalog.UpdateCategory(c.Request().Context(), session(c), id, c.FormValue("category_name"), image)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	return h.deleteByID(c, h.catalog.DeleteCategory)
}

func (h *CatalogHandler) ToggleCategoryHidden(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c)
	}
	category, err := h.catalog.ToggleCategoryHidden(c.Request().Context(), session(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) ListBanners(c echo.Context) error {
	banners, err := h.catalog.ListBanners(c.Request().Context(), session(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, banners)
}

func (h *CatalogHandler) CreateBanner(c echo.Context) error {
	images, err := uploads(c, "banner_image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	banner, err := h.catalog.CreateBanner(c.Request().Context(), session(c), c.FormValue("banner_name"), images)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, banner)
}

func (h *CatalogHandler) UpdateBanner(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c)
	}
	images, err := uploads(c, "banner_image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	banner, err := h.catalog.UpdateBanner(c.Request().Context(), session(c), id, c.FormValue("banner_name"), images)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, banner)
}

func (h *CatalogHandler) DeleteBanner(c echo.Context) error {
	return h.deleteByID(c, h.catalog.DeleteBanner)
}

func (h *CatalogHandler) MoveBannerUp(c echo.Context) error {
	return h.moveBanner(c, backend.MoveUp)
}

func (h *CatalogHandler) MoveBannerDown(c echo.Context) error {
	return h.moveBanner(c, backend.MoveDown)
}

func (h *CatalogHandler) moveBanner(c echo.Context, dir backend.Direction) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c)
	}
	if err := h.catalog.MoveBanner(c.Request().Context(), session(c), id, dir); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) DeleteOrder(c echo.Context) error {
	return h.deleteByID(c, h.catalog.DeleteOrder)
}

func (h *CatalogHandler) DeleteCustomer(c echo.Context) error {
	return h.deleteByID(c, h.catalog.DeleteCustomer)
}

func (h *CatalogHandler) deleteByID(c echo.Context, del func(context.Context, *backend.Session, int64) error) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badID(c)
	}
	if err := del(c.Request().Context(), session(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func eventInput(c echo.Context) (services.EventInput, error) {
	images, err := uploads(c, "images")
	if err != nil {
		return services.EventInput{}, err
	}

	in := services.EventInput{
		Name:     c.FormValue("event_name"),
		Location: c.FormValue("event_location"),
		Time:     c.FormValue("event_time"),
		SaleDate: c.FormValue("sale_date"),
		Category: c.FormValue("category"),
		Images:   images,
	}
	if in.Dates, err = listField(c, "event_date"); err != nil {
		return services.EventInput{}, err
	}
	if in.Prices, err = listField(c, "ticket_price"); err != nil {
		return services.EventInput{}, err
	}
	if in.ExistingImages, err = listField(c, "existing_images"); err != nil {
		return services.EventInput{}, err
	}
	return in, nil
}

// listField reads a repeated form field. A single value holding a JSON array is
// decoded as the list.
func listField(c echo.Context, name string) ([]string, error) {
	form, err := c.MultipartForm()
	var values []string
	if err == nil && form != nil {
		values = form.Value[name]
	} else if v := c.FormValue(name); v != "" {
		values = []string{v}
	}

	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var list []string
		if err := json.Unmarshal([]byte(values[0]), &list); err != nil {
			return nil, fmt.Errorf("%s: invalid list", name)
		}
		return list, nil
	}
	return values, nil
}

func uploads(c echo.Context, field string) ([]backend.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}

	out := make([]backend.Upload, 0, len(form.File[field]))
	for _, fh := range form.File[field] {
		u, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func optionalUpload(c echo.Context, field string) (*backend.Upload, error) {
	list, err := uploads(c, field)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// readUpload loads a file part, sniffing its content type when the client sent
// none or a generic one.
func readUpload(fh *multipart.FileHeader) (backend.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return backend.Upload{}, fmt.Errorf("%s: open: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return backend.Upload{}, fmt.Errorf("%s: read: %w", fh.Filename, err)
	}

	ct := fh.Header.Get(echo.HeaderContentType)
	if ct == "" || ct == echo.MIMEOctetStream {
		ct = mimetype.Detect(data).String()
	}
	return backend.Upload{Filename: fh.Filename, ContentType: ct, Data: data}, nil
}
