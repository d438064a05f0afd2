// Package core defines the fundamental types for viewerscope.
package core

import (
	"time"
)

// -----------------------------------------------------------------------------
// VIEWER - One connected browsing session
// -----------------------------------------------------------------------------

// Viewer is a single connected session tracked by the presence service.
// It is created on handshake and removed wholesale on disconnect.
type Viewer struct {
	ID          string          `json:"id"`
	Location    *LocationRecord `json:"location"`
	ConnectedAt time.Time       `json:"connectedAt"`
	UserAgent   string          `json:"userAgent"`
}

// -----------------------------------------------------------------------------
// LOCATION - IP-derived geography
// -----------------------------------------------------------------------------

// LocationRecord is what the location resolver knows about an IP.
// Treat it as immutable once produced.
type LocationRecord struct {
	IP               string  `json:"ip"`
	City             string  `json:"city"`
	Region           string  `json:"region"`
	Country          string  `json:"country"`
	CountryCode      string  `json:"countryCode"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Timezone         string  `json:"timezone"`
	ISP              string  `json:"isp"`
	Organization     string  `json:"organization,omitempty"`
	AutonomousSystem string  `json:"autonomousSystem,omitempty"`
}

// Label renders the record as "City, Region, Country", skipping blanks.
func (l *LocationRecord) Label() string {
	if l == nil {
		return ""
	}
	label := ""
	for _, part := range []string{l.City, l.Region, l.Country} {
		if part == "" {
			continue
		}
		if label != "" {
			label += ", "
		}
		label += part
	}
	return label
}
