package model

import (
	"time"

	"github.com/google/uuid"
)

// OutputPreset is one of the fixed output-resolution choices offered by the
// template settings panel. All presets keep the A4 landscape aspect ratio.
type OutputPreset struct {
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var OutputPresets = []OutputPreset{
	{Label: "Standard (842x595)", Width: 842, Height: 595},
	{Label: "High Quality (1684x1190)", Width: 1684, Height: 1190},
	{Label: "Print Quality (2526x1785)", Width: 2526, Height: 1785},
}

// IsValidOutputSize reports whether w/h matches one of the fixed presets.
func IsValidOutputSize(w, h int) bool {
	for _, p := range OutputPresets {
		if p.Width == w && p.Height == h {
			return true
		}
	}
	return false
}

// Template is a reusable certificate design: one background image plus an
// ordered element list. Mutated only by its owner; element order is z-order.
type Template struct {
	ID           uuid.UUID   `db:"id"            json:"id"`
	OwnerUID     string      `db:"owner_uid"     json:"owner_uid"`
	OwnerEmail   string      `db:"owner_email"   json:"owner_email"`
	Name         string      `db:"name"          json:"name"`
	ImageURL     string      `db:"image_url"     json:"image_url"`
	Elements     ElementList `db:"elements"      json:"elements"`
	OutputWidth  int         `db:"output_width"  json:"output_width"`
	OutputHeight int         `db:"output_height" json:"output_height"`
	QRCodeSize   int         `db:"qr_code_size"  json:"qr_code_size"`
	CreatedAt    time.Time   `db:"created_at"    json:"created_at"`
}

type CreateTemplateRequest struct {
	Name         string      `json:"name"`
	ImageURL     string      `json:"image_url"`
	Elements     ElementList `json:"elements"`
	OutputWidth  int         `json:"output_width"`
	OutputHeight int         `json:"output_height"`
	QRCodeSize   int         `json:"qr_code_size"`
}
