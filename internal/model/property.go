// Package model defines the common record shape all site harvesters
// normalize into. JSON field names match the established output format
// consumed by downstream ingestion, so they stay in Spanish.
package model

import "time"

// Unit is one apartment typology offered inside a building listing.
type Unit struct {
	Bedrooms       string `json:"dormitorios"`
	Bathrooms      string `json:"banos"`
	AreaM2         string `json:"m2_utiles"`
	Price          string `json:"precio"`
	UnitsAvailable string `json:"unidades_disponibles"`
	Link           string `json:"link"`
}

// Property is the normalized listing record produced per building/project.
// Amenities and Units are filled by detail-page enrichment and may be empty
// when enrichment is disabled or the detail fetch failed.
type Property struct {
	Operator  string   `json:"operador"`
	Name      string   `json:"nombre"`
	Address   string   `json:"direccion"`
	Price     string   `json:"precio"`
	Link      string   `json:"link"`
	Amenities []string `json:"comodidades"`
	Units     []Unit   `json:"departamentos"`
	ScrapedAt string   `json:"scraped_at"`
}

// Now returns the scraped_at timestamp in the format the output schema uses.
func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
