package testutil

import "github.com/quantumlife/viewerscope/internal/core"

// MountainViewLocation is the record the mock providers return for 8.8.8.8.
func MountainViewLocation() *core.LocationRecord {
	return &core.LocationRecord{
		IP:               "8.8.8.8",
		City:             "Mountain View",
		Region:           "California",
		Country:          "United States",
		CountryCode:      "US",
		Latitude:         37.4,
		Longitude:        -122.1,
		Timezone:         "America/Los_Angeles",
		ISP:              "Google LLC",
		Organization:     "Google Public DNS",
		AutonomousSystem: "AS15169 Google LLC",
	}
}

// SydneyLocation is the record the mock providers return for 1.1.1.1.
func SydneyLocation() *core.LocationRecord {
	return &core.LocationRecord{
		IP:               "1.1.1.1",
		City:             "Sydney",
		Region:           "New South Wales",
		Country:          "Australia",
		CountryCode:      "AU",
		Latitude:         -33.8,
		Longitude:        151.2,
		Timezone:         "Australia/Sydney",
		ISP:              "Cloudflare, Inc.",
		Organization:     "Cloudflare, Inc.",
		AutonomousSystem: "AS13335",
	}
}
