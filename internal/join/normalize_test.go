package join

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"ticket-admin/models"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		wantID int64
		wantOK bool
	}{
		{"prefixed string", "X123", 123, true},
		{"last digit run wins", "123Y45", 45, true},
		{"zero padded", "ORD-00042", 42, true},
		{"plain int", 45, 45, true},
		{"int64", int64(7), 7, true},
		{"whole float", float64(12), 12, true},
		{"json number", json.Number("99"), 99, true},
		{"nested id", map[string]any{"id": json.Number("5")}, 5, true},
		{"nested pk", map[string]any{"pk": "C-8"}, 8, true},
		{"id wins over pk", map[string]any{"id": 3, "pk": 4}, 3, true},
		{"ref wrapper", models.NewRef("T-77"), 77, true},
		{"no digits", "abc", 0, false},
		{"nil", nil, 0, false},
		{"empty ref", models.Ref{}, 0, false},
		{"fractional float", 1.5, 0, false},
		{"bool", true, 0, false},
		{"empty map", map[string]any{}, 0, false},
		{"overflowing digits", "ID-99999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := NormalizeID(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestNormalizeID_DecodedRefs(t *testing.T) {
	var payload struct {
		A models.Ref `json:"a"`
		B models.Ref `json:"b"`
		C models.Ref `json:"c"`
		D models.Ref `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a": 10, "b": "ORD-11", "c": {"id": 12}, "d": null}`), &payload)
	assert.NoError(t, err)

	for ref, want := range map[*models.Ref]int64{&payload.A: 10, &payload.B: 11, &payload.C: 12} {
		id, ok := NormalizeID(*ref)
		assert.True(t, ok)
		assert.Equal(t, want, id)
	}

	_, ok := NormalizeID(payload.D)
	assert.False(t, ok)
}

func TestBuildIndex(t *testing.T) {
	type item struct {
		key  any
		name string
	}
	items := []item{
		{key: 1, name: "first"},
		{key: "abc", name: "skipped"},
		{key: "ID-2", name: "second"},
		{key: 1, name: "replaced"},
	}

	idx := BuildIndex(items, func(i item) any { return i.key })

	assert.Len(t, idx, 2)
	assert.Equal(t, "replaced", idx[1].name)
	assert.Equal(t, "second", idx[2].name)
}

func TestEventLabel(t *testing.T) {
	names := EventNames([]models.Event{
		{ID: models.NewRef(1), Name: "Coldplay Live"},
		{ID: models.NewRef("bad"), Name: "Ignored"},
	})

	assert.Equal(t, "Coldplay Live", EventLabel(names, models.NewRef(1)))
	assert.Equal(t, "Event #9", EventLabel(names, models.NewRef(9)))
	assert.Equal(t, "-", EventLabel(names, models.Ref{}))
}
