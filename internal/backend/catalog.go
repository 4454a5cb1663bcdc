package backend

import (
	"context"
	"encoding/base64"
	"net/http"
	"sort"

	"ticket-admin/models"
)

// CategoryInput is the category create/update body. Image is a base64 data url and
// is left out when empty so an update keeps the current image.
type CategoryInput struct {
	Name  string `json:"category_name"`
	Image string `json:"category_image,omitempty"`
}

// BannerInput is the banner create/update body. Images are base64 data urls; an
// update without images keeps the current one.
type BannerInput struct {
	Name   string   `json:"banner_name"`
	Images []string `json:"banner_image,omitempty"`
}

type Direction string

const (
	MoveUp   Direction = "move_up"
	MoveDown Direction = "move_down"
)

// DataURL encodes an upload the way the JSON endpoints expect images.
func DataURL(u Upload) string {
	ct := u.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(u.Data)
}

func (c *Client) ListCategories(ctx context.Context, sess *Session) ([]models.Category, error) {
	return list[models.Category](ctx, c, sess, "ListCategories", "categories/")
}

func (c *Client) CreateCategory(ctx context.Context, sess *Session, in CategoryInput) (models.Category, error) {
	var out models.Category
	err := c.doJSON(ctx, sess, "CreateCategory", http.MethodPost, "categories/", in, &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, sess *Session, id int64, in CategoryInput) (models.Category, error) {
	var out models.Category
	err := c.doJSON(ctx, sess, "UpdateCategory", http.MethodPut, resourcePath("categories", id), in, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, sess *Session, id int64) error {
	return c.doJSON(ctx, sess, "DeleteCategory", http.MethodDelete, resourcePath("categories", id), nil, nil)
}

// ToggleCategoryHidden flips the hidden flag and returns whatever the backend echoes.
func (c *Client) ToggleCategoryHidden(ctx context.Context, sess *Session, id int64) (models.Category, error) {
	var out models.Category
	err := c.doJSON(ctx, sess, "ToggleCategoryHidden", http.MethodPost, resourcePath("categories", id, "toggle_hide"), nil, &out)
	return out, err
}

// ListBanners returns the banners sorted by their display order.
func (c *Client) ListBanners(ctx context.Context, sess *Session) ([]models.Banner, error) {
	banners, err := list[models.Banner](ctx, c, sess, "ListBanners", "banners/")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(banners, func(i, j int) bool { return banners[i].Order < banners[j].Order })
	return banners, nil
}

func (c *Client) CreateBanner(ctx context.Context, sess *Session, in BannerInput) (models.Banner, error) {
	var out models.Banner
	err := c.doJSON(ctx, sess, "CreateBanner", http.MethodPost, "banners/", in, &out)
	return out, err
}

func (c *Client) UpdateBanner(ctx context.Context, sess *Session, id int64, in BannerInput) (models.Banner, error) {
	var out models.Banner
	err := c.doJSON(ctx, sess, "UpdateBanner", http.MethodPut, resourcePath("banners", id), in, &out)
	return out, err
}

func (c *Client) DeleteBanner(ctx context.Context, sess *Session, id int64) error {
	return c.doJSON(ctx, sess, "DeleteBanner", http.MethodDelete, resourcePath("banners", id), nil, nil)
}

// MoveBanner asks the backend to swap the banner with its neighbour. The backend
// renumbers; the order is never set directly.
func (c *Client) MoveBanner(ctx context.Context, sess *Session, id int64, dir Direction) error {
	return c.doJSON(ctx, sess, "MoveBanner", http.MethodPost, resourcePath("banners", id, string(dir)), nil, nil)
}
