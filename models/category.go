package models

import "fmt"

type Category struct {
	ID     Ref    `json:"id"`
	Name   string `json:"category_name"`
	Image  string `json:"category_image,omitempty"`
	Hidden bool   `json:"is_hidden"`
}

// Banner is a promotional slide. Order is owned by the backend and only changes
// through move-up/move-down.
type Banner struct {
	ID     Ref       `json:"id"`
	Name   string    `json:"banner_name"`
	Images ImageList `json:"banner_image"`
	Order  int       `json:"order"`
}

// Cover is the displayed image, the first one uploaded.
func (b Banner) Cover() string {
	if len(b.Images) == 0 {
		return ""
	}
	return b.Images[0]
}

// ImageList accepts a list of image urls or a single url.
type ImageList []string

func (l *ImageList) UnmarshalJSON(b []byte) error {
	values, err := decodeLooseList(b)
	if err != nil {
		return fmt.Errorf("banner_image: %w", err)
	}
	*l = values
	return nil
}
