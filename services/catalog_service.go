package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ticket-admin/internal/backend"
	"ticket-admin/models"
)

type CatalogAPI interface {
	ListEvents(ctx context.Context, sess *backend.Session) ([]models.Event, error)
	GetEvent(ctx context.Context, sess *backend.Session, id int64) (models.Event, error)
	CreateEvent(ctx context.Context, sess *backend.Session, form backend.EventForm) (models.Event, error)
	UpdateEvent(ctx context.Context, sess *backend.Session, id int64, form backend.EventForm) (models.Event, error)
	DeleteEvent(ctx context.Context, sess *backend.Session, id int64) error

	ListCategories(ctx context.Context, sess *backend.Session) ([]models.Category, error)
	CreateCategory(ctx context.Context, sess *backend.Session, in backend.CategoryInput) (models.Category, error)
	UpdateCategory(ctx context.Context, sess *backend.Session, id int64, in backend.CategoryInput) (models.Category, error)
	DeleteCategory(ctx context.Context, sess *backend.Session, id int64) error
	ToggleCategoryHidden(ctx context.Context, sess *backend.Session, id int64) (models.Category, error)

	ListBanners(ctx context.Context, sess *backend.Session) ([]models.Banner, error)
	CreateBanner(ctx context.Context, sess *backend.Session, in backend.BannerInput) (models.Banner, error)
	UpdateBanner(ctx context.Context, sess *backend.Session, id int64, in backend.BannerInput) (models.Banner, error)
	DeleteBanner(ctx context.Context, sess *backend.Session, id int64) error
	MoveBanner(ctx context.Context, sess *backend.Session, id int64, dir backend.Direction) error

	DeleteOrder(ctx context.Context, sess *backend.Session, id int64) error
	DeleteCustomer(ctx context.Context, sess *backend.Session, id int64) error
}

// EventInput is the event form as submitted by the dashboard.
type EventInput struct {
	Name     string   `json:"event_name" validate:"required"`
	Location string   `json:"event_location" validate:"required"`
	Time     string   `json:"event_time" validate:"required"`
	Dates    []string `json:"event_date"`
	Prices   []string `json:"ticket_price"`
	SaleDate string   `json:"sale_date"`
	Category string   `json:"category" validate:"required"`

	Images         []backend.Upload `json:"-"`
	ExistingImages []string         `json:"existing_images"`
}

type categoryForm struct {
	Name string `json:"category_name" validate:"required"`
}

type bannerForm struct {
	Name string `json:"banner_name" validate:"required"`
}

type CatalogService struct {
	api           CatalogAPI
	maxImages     int
	maxImageBytes int64
}

func NewCatalogService(api CatalogAPI, maxImages, maxImageSizeMB int) *CatalogService {
	if maxImages <= 0 {
		maxImages = 10
	}
	if maxImageSizeMB <= 0 {
		maxImageSizeMB = 5
	}
	return &CatalogService{
		api:           api,
		maxImages:     maxImages,
		maxImageBytes: int64(maxImageSizeMB) << 20,
	}
}

func (s *CatalogService) ListEvents(ctx context.Context, sess *backend.Session) ([]models.Event, error) {
	return s.api.ListEvents(ctx, sess)
}

func (s *CatalogService) GetEvent(ctx context.Context, sess *backend.Session, id int64) (models.Event, error) {
	return s.api.GetEvent(ctx, sess, id)
}

func (s *CatalogService) CreateEvent(ctx context.Context, sess *backend.Session, in EventInput) (models.Event, error) {
	form, err := s.eventForm("CreateEvent", in)
	if err != nil {
		return models.Event{}, err
	}
	// existing posters only make sense on update
	form.ExistingImages = nil

	event, err := s.api.CreateEvent(ctx, sess, form)
	if err != nil {
		return models.Event{}, err
	}
	zap.L().Info("event created", zap.String("name", event.Name), zap.Int("images", len(form.Images)))
	return event, nil
}

func (s *CatalogService) UpdateEvent(ctx context.Context, sess *backend.Session, id int64, in EventInput) (models.Event, error) {
	form, err := s.eventForm("UpdateEvent", in)
	if err != nil {
		return models.Event{}, err
	}
	return s.api.UpdateEvent(ctx, sess, id, form)
}

func (s *CatalogService) DeleteEvent(ctx context.Context, sess *backend.Session, id int64) error {
	return s.api.DeleteEvent(ctx, sess, id)
}

// eventForm trims the input, checks it and drops duplicate uploads. Duplicates are
// files with the same name and size.
func (s *CatalogService) eventForm(op string, in EventInput) (backend.EventForm, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Time = strings.TrimSpace(in.Time)
	in.SaleDate = strings.TrimSpace(in.SaleDate)
	in.Category = strings.TrimSpace(in.Category)
	in.Dates = nonBlank(in.Dates)
	in.Prices = nonBlank(in.Prices)
	in.ExistingImages = nonBlank(in.ExistingImages)

	fields, err := formErrors(in)
	if err != nil {
		return backend.EventForm{}, err
	}
	if len(in.Dates) == 0 {
		fields["event_date"] = "is required"
	}

	uploads := dedupeUploads(in.Images)
	for _, u := range uploads {
		if msg := s.checkImage(u); msg != "" {
			fields["images"] = msg
			break
		}
	}
	if _, bad := fields["images"]; !bad {
		switch total := len(uploads) + len(in.ExistingImages); {
		case total == 0:
			fields["images"] = "at least one image is required"
		case total > s.maxImages:
			fields["images"] = fmt.Sprintf("allows at most %d images", s.maxImages)
		}
	}

	if len(fields) > 0 {
		return backend.EventForm{}, backend.NewValidationError(op, fields)
	}

	return backend.EventForm{
		Name:           in.Name,
		Location:       in.Location,
		Time:           in.Time,
		Dates:          in.Dates,
		Prices:         in.Prices,
		SaleDate:       in.SaleDate,
		Category:       in.Category,
		Images:         uploads,
		ExistingImages: in.ExistingImages,
	}, nil
}

func (s *CatalogService) checkImage(u backend.Upload) string {
	if !strings.HasPrefix(strings.ToLower(u.ContentType), "image/") {
		return u.Filename + " is not an image"
	}
	if int64(len(u.Data)) > s.maxImageBytes {
		return fmt.Sprintf("%s is larger than %d MB", u.Filename, s.maxImageBytes>>20)
	}
	return ""
}

func dedupeUploads(uploads []backend.Upload) []backend.Upload {
	seen := make(map[string]struct{}, len(uploads))
	out := make([]backend.Upload, 0, len(uploads))
	for _, u := range uploads {
		key := u.Filename + ":" + strconv.Itoa(len(u.Data))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, u)
	}
	return out
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *CatalogService) ListCategories(ctx context.Context, sess *backend.Session) ([]models.Category, error) {
	return s.api.ListCategories(ctx, sess)
}

// CreateCategory sends image as a data url when one was uploaded.
func (s *CatalogService) CreateCategory(ctx context.Context, sess *backend.Session, name string, image *backend.Upload) (models.Category, error) {
	in, err := s.categoryInput("CreateCategory", name, image)
	if err != nil {
		return models.Category{}, err
	}
	return s.api.CreateCategory(ctx, sess, in)
}

// UpdateCategory keeps the current image when image is nil.
func (s *CatalogService) UpdateCategory(ctx context.Context, sess *backend.Session, id int64, name string, image *backend.Upload) (models.Category, error) {
	in, err := s.categoryInput("UpdateCategory", name, image)
	if err != nil {
		return models.Category{}, err
	}
	return s.api.UpdateCategory(ctx, sess, id, in)
}

func (s *CatalogService) categoryInput(op, name string, image *backend.Upload) (backend.CategoryInput, error) {
	form := categoryForm{Name: strings.TrimSpace(name)}
	fields, err := formErrors(form)
	if err != nil {
		return backend.CategoryInput{}, err
	}
	if image != nil {
		if msg := s.checkImage(*image); msg != "" {
			fields["category_image"] = msg
		}
	}
	if len(fields) > 0 {
		return backend.CategoryInput{}, backend.NewValidationError(op, fields)
	}

	in := backend.CategoryInput{Name: form.Name}
	if image != nil {
		in.Image = backend.DataURL(*image)
	}
	return in, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, sess *backend.Session, id int64) error {
	return s.api.DeleteCategory(ctx, sess, id)
}

func (s *CatalogService) ToggleCategoryHidden(ctx context.Context, sess *backend.Session, id int64) (models.Category, error) {
	return s.api.ToggleCategoryHidden(ctx, sess, id)
}

func (s *CatalogService) ListBanners(ctx context.Context, sess *backend.Session) ([]models.Banner, error) {
	return s.api.ListBanners(ctx, sess)
}

func (s *CatalogService) CreateBanner(ctx context.Context, sess *backend.Session, name string, images []backend.Upload) (models.Banner, error) {
	in, err := s.bannerInput("CreateBanner", name, images, true)
	if err != nil {
		return models.Banner{}, err
	}
	return s.api.CreateBanner(ctx, sess, in)
}

// UpdateBanner renames the banner and replaces its image when images is not empty.
func (s *CatalogService) UpdateBanner(ctx context.Context, sess *backend.Session, id int64, name string, images []backend.Upload) (models.Banner, error) {
	in, err := s.bannerInput("UpdateBanner", name, images, false)
	if err != nil {
		return models.Banner{}, err
	}
	return s.api.UpdateBanner(ctx, sess, id, in)
}

func (s *CatalogService) bannerInput(op, name string, images []backend.Upload, imageRequired bool) (backend.BannerInput, error) {
	form := bannerForm{Name: strings.TrimSpace(name)}
	fields, err := formErrors(form)
	if err != nil {
		return backend.BannerInput{}, err
	}

	images = dedupeUploads(images)
	if imageRequired && len(images) == 0 {
		fields["banner_image"] = "is required"
	}
	for _, u := range images {
		if msg := s.checkImage(u); msg != "" {
			fields["banner_image"] = msg
			break
		}
	}
	if len(fields) > 0 {
		return backend.BannerInput{}, backend.NewValidationError(op, fields)
	}

	in := backend.BannerInput{Name: form.Name}
	for _, u := range images {
		in.Images = append(in.Images, backend.DataURL(u))
	}
	return in, nil
}

func (s *CatalogService) DeleteBanner(ctx context.Context, sess *backend.Session, id int64) error {
	return s.api.DeleteBanner(ctx, sess, id)
}

func (s *CatalogService) MoveBanner(ctx context.Context, sess *backend.Session, id int64, dir backend.Direction) error {
	if dir != backend.MoveUp && dir != backend.MoveDown {
		return backend.NewValidationError("MoveBanner", map[string]string{"direction": "must be one of: move_up, move_down"})
	}
	return s.api.MoveBanner(ctx, sess, id, dir)
}

func (s *CatalogService) DeleteOrder(ctx context.Context, sess *backend.Session, id int64) error {
	if err := s.api.DeleteOrder(ctx, sess, id); err != nil {
		return err
	}
	zap.L().Info("order deleted", zap.Int64("order_id", id), zap.String("by", sess.Email))
	return nil
}

func (s *CatalogService) DeleteCustomer(ctx context.Context, sess *backend.Session, id int64) error {
	if err := s.api.DeleteCustomer(ctx, sess, id); err != nil {
		return err
	}
	zap.L().Info("customer deleted", zap.Int64("customer_id", id), zap.String("by", sess.Email))
	return nil
}
