package models

import "time"

// Team is reference data synced from the external results source.
type Team struct {
	ID              int       `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Abbrev          string    `json:"abbrev" db:"abbrev"`
	Logo            *string   `json:"logo,omitempty" db:"logo"`
	PrimaryColour   *string   `json:"primary_colour,omitempty" db:"primary_colour"`
	SecondaryColour *string   `json:"secondary_colour,omitempty" db:"secondary_colour"`
	LogoKey         *string   `json:"-" db:"logo_key"`
	LogoURL         *string   `json:"logo_url,omitempty" db:"-"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
