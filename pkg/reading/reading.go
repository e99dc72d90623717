// Package reading defines the solar production reading shared by
// storage, aggregation and export.
package reading

import (
	"errors"
	"time"
)

// Sources label where a reading came from.
const (
	SourceManual = "manual"
	SourceImport = "import"
)

// Reading is one day's meter readings plus the weather observations
// recorded alongside them. M1 and M2 are the two meter channels in
// kWh. Radiation is the daily solar irradiance sum in MJ/m2 and
// Snowfall is in cm; both ride along for chart overlays and are never
// derived from the meters.
type Reading struct {
	Date      time.Time `json:"date"`
	M1        float64   `json:"m1"`
	M2        float64   `json:"m2"`
	Radiation float64   `json:"radiation,omitempty"`
	Snowfall  float64   `json:"snowfall,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// Total is the combined production of both meter channels.
func (r Reading) Total() float64 {
	return r.M1 + r.M2
}

// Validate checks the fields storage and aggregation rely on.
func (r Reading) Validate() error {
	if r.Date.IsZero() {
		return errors.New("reading date is required")
	}
	if r.M1 < 0 || r.M2 < 0 {
		return errors.New("meter readings cannot be negative")
	}
	return nil
}
