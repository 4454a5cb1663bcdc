package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent_Multipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/events/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Jazz Night", r.FormValue("event_name"))
		assert.Equal(t, "Vientiane", r.FormValue("event_location"))
		assert.Equal(t, "19:00", r.FormValue("event_time"))
		assert.Equal(t, `["2025-01-10","2025-01-11"]`, r.FormValue("event_date"))
		assert.Equal(t, "null", r.FormValue("ticket_price"))
		assert.Equal(t, "3", r.FormValue("category"))
		assert.Empty(t, r.MultipartForm.Value["existing_images[0]"])

		files := r.MultipartForm.File["images"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.png", files[0].Filename)
		assert.Equal(t, "image/png", files[0].Header.Get("Content-Type"))
		f, err := files[1].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "jpeg-bytes", string(data))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 42, "event_name": "Jazz Night", "images": [{"image_url": "/media/a.png"}]}`))
	})

	ev, err := c.CreateEvent(context.Background(), sess, EventForm{
		Name:     "Jazz Night",
		Location: "Vientiane",
		Time:     "19:00",
		Dates:    []string{"2025-01-10", " ", "2025-01-11"},
		Category: "3",
		Images: []Upload{
			{Filename: "a.png", ContentType: "image/png", Data: []byte("png-bytes")},
			{Filename: "b.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")},
		},
		ExistingImages: []string{"ignored-on-create"},
	})

	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), ev.ID.Value())
	assert.Equal(t, []string{"/media/a.png"}, ev.Posters())
}

func TestUpdateEvent_KeepsExistingImages(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/events/42/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "/media/b.png", r.FormValue("existing_images[0]"))
		assert.Equal(t, "/media/a.png", r.FormValue("existing_images[1]"))
		assert.Equal(t, `["VIP: 500","Regular: 200"]`, r.FormValue("ticket_price"))
		assert.Empty(t, r.MultipartForm.File["images"])

		w.Write([]byte(`{"id": 42}`))
	})

	_, err := c.UpdateEvent(context.Background(), sess, 42, EventForm{
		Name:           "Jazz Night",
		Prices:         []string{"VIP: 500", "Regular: 200"},
		ExistingImages: []string{"/media/b.png", "/media/a.png"},
	})
	require.NoError(t, err)
}

func TestEventDecoding_TolerantShapes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "event_name": "A", "event_date": "2025-05-01", "ticket_price": {"VIP": 500, "Regular": "200"}, "event_image": "u1|||SEPARATOR|||u2"},
			{"id": 2, "event_name": "B", "event_date": "[\"2025-06-01\"]", "ticket_price": "[\"300\"]", "images": []}
		]`))
	})

	events, err := c.ListEvents(context.Background(), sess)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "2025-05-01", events[0].DisplayDate())
	assert.Equal(t, []string{"VIP: 500", "Regular: 200"}, []string(events[0].Prices))
	assert.Equal(t, []string{"u1", "u2"}, events[0].Posters())
	assert.Equal(t, []string{"300"}, []string(events[1].Prices))
	assert.Empty(t, events[1].Posters())
}

func TestBanners(t *testing.T) {
	var moved string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.Write([]byte(`[
				{"id": 3, "banner_name": "C", "banner_image": ["c"], "order": 2},
				{"id": 1, "banner_name": "A", "banner_image": "a", "order": 0},
				{"id": 2, "banner_name": "B", "banner_image": ["b"], "order": 1}
			]`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/banners/":
			var in BannerInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "Promo", in.Name)
			assert.Equal(t, []string{"data:image/png;base64,cG5n"}, in.Images)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": 4, "banner_name": "Promo", "order": 3}`))
		case r.Method == http.MethodPost:
			moved = r.URL.Path
			w.Write([]byte(`{"status": "moved"}`))
		}
	})
	ctx := context.Background()

	banners, err := c.ListBanners(ctx, sess)
	require.NoError(t, err)
	require.Len(t, banners, 3)
	assert.Equal(t, "A", banners[0].Name)
	assert.Equal(t, "a", banners[0].Cover())
	assert.Equal(t, "C", banners[2].Name)

	created, err := c.CreateBanner(ctx, sess, BannerInput{
		Name:   "Promo",
		Images: []string{DataURL(Upload{ContentType: "image/png", Data: []byte("png")})},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, created.Order)

	require.NoError(t, c.MoveBanner(ctx, sess, 2, MoveUp))
	assert.Equal(t, "/api/banners/2/move_up/", moved)
	require.NoError(t, c.MoveBanner(ctx, sess, 2, MoveDown))
	assert.Equal(t, "/api/banners/2/move_down/", moved)
}

func TestCategories(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/categories/5/":
			assert.Equal(t, http.MethodPut, r.Method)
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"category_name": "Concerts"}`, string(body))
			w.Write([]byte(`{"id": 5, "category_name": "Concerts", "is_hidden": false}`))
		case "/api/categories/5/toggle_hide/":
			assert.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(`{"id": 5, "category_name": "Concerts", "is_hidden": true}`))
		case "/api/categories/6/":
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	cat, err := c.UpdateCategory(ctx, sess, 5, CategoryInput{Name: "Concerts"})
	require.NoError(t, err)
	assert.False(t, cat.Hidden)

	cat, err = c.ToggleCategoryHidden(ctx, sess, 5)
	require.NoError(t, err)
	assert.True(t, cat.Hidden)

	assert.NoError(t, c.DeleteCategory(ctx, sess, 6))
}

func TestExportTicketsCSV(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		want        string
	}{
		{"extended form", `attachment; filename="plain.csv"; filename*=UTF-8''tickets%20march.csv`, "tickets march.csv"},
		{"quoted", `attachment; filename="tickets.csv"`, "tickets.csv"},
		{"bare", `attachment; filename=report.csv`, "report.csv"},
		{"missing", ``, "tickets_export_2025-03-04T05-06-07-089Z.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/tickets/export_csv/", r.URL.Path)
				assert.Equal(t, "text/csv", r.Header.Get("Accept"))
				if tt.disposition != "" {
					w.Header().Set("Content-Disposition", tt.disposition)
				}
				w.Header().Set("Content-Type", "text/csv")
				w.Write([]byte("id,status\n1,paid\n"))
			})
			c.now = func() time.Time {
				return time.Date(2025, 3, 4, 5, 6, 7, 89_000_000, time.UTC)
			}

			exp, err := c.ExportTicketsCSV(context.Background(), sess)

			require.NoError(t, err)
			assert.Equal(t, tt.want, exp.Filename)
			assert.Equal(t, "id,status\n1,paid\n", string(exp.Data))
		})
	}
}

func TestFilenameFromDisposition(t *testing.T) {
	assert.Equal(t, "", FilenameFromDisposition("inline"))
	assert.Equal(t, "a b.csv", FilenameFromDisposition(`attachment; filename*=UTF-8''a%20b.csv`))
	assert.Equal(t, "bad%zz.csv", FilenameFromDisposition(`attachment; filename="bad%zz.csv"`))
}
