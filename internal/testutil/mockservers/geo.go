// Package mockservers provides httptest mock servers for external APIs.
package mockservers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/quantumlife/viewerscope/internal/core"
)

var (
	ipAPIPath   = regexp.MustCompile(`^/json/([^/]+)$`)
	ipAPICoPath = regexp.MustCompile(`^/([^/]+)/json/$`)
)

// GeoMockServer serves both the ip-api.com and ipapi.co lookup routes from
// one set of known records.
//
//	ip-api:   {URL}/json/{ip}
//	ipapi.co: {URL}/{ip}/json/
type GeoMockServer struct {
	Server *httptest.Server

	mu      sync.Mutex
	records map[string]*core.LocationRecord
	status  int
	hits    atomic.Int64
}

// NewGeoMockServer creates a mock server that knows the given records.
func NewGeoMockServer(t *testing.T, records ...*core.LocationRecord) *GeoMockServer {
	t.Helper()

	mock := &GeoMockServer{records: make(map[string]*core.LocationRecord)}
	for _, rec := range records {
		mock.records[rec.IP] = rec
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(mock.serve))

	t.Cleanup(func() {
		mock.Server.Close()
	})

	return mock
}

// IPAPIURL is the base URL for geo.NewIPAPIProvider
func (m *GeoMockServer) IPAPIURL() string { return m.Server.URL + "/json" }

// IPAPICoURL is the base URL for geo.NewIPAPICoProvider
func (m *GeoMockServer) IPAPICoURL() string { return m.Server.URL }

// Hits returns how many lookups the server has answered.
func (m *GeoMockServer) Hits() int { return int(m.hits.Load()) }

// FailWith makes every following request answer with status. Zero restores
// normal behavior.
func (m *GeoMockServer) FailWith(status int) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *GeoMockServer) serve(w http.ResponseWriter, r *http.Request) {
	m.hits.Add(1)
	w.Header().Set("Content-Type", "application/json")

	m.mu.Lock()
	status := m.status
	m.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		return
	}

	if match := ipAPIPath.FindStringSubmatch(r.URL.Path); match != nil {
		m.serveIPAPI(w, match[1])
		return
	}
	if match := ipAPICoPath.FindStringSubmatch(r.URL.Path); match != nil {
		m.serveIPAPICo(w, match[1])
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (m *GeoMockServer) lookup(ip string) *core.LocationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[ip]
}

func (m *GeoMockServer) serveIPAPI(w http.ResponseWriter, ip string) {
	rec := m.lookup(ip)
	if rec == nil {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "fail",
			"message": "invalid query",
			"query":   ip,
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "success",
		"query":       ip,
		"country":     rec.Country,
		"countryCode": rec.CountryCode,
		"regionName":  rec.Region,
		"city":        rec.City,
		"lat":         rec.Latitude,
		"lon":         rec.Longitude,
		"timezone":    rec.Timezone,
		"isp":         rec.ISP,
		"org":         rec.Organization,
		"as":          rec.AutonomousSystem,
	})
}

func (m *GeoMockServer) serveIPAPICo(w http.ResponseWriter, ip string) {
	rec := m.lookup(ip)
	if rec == nil {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ip":     ip,
			"error":  true,
			"reason": "Invalid IP Address",
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ip":           ip,
		"city":         rec.City,
		"region":       rec.Region,
		"country_name": rec.Country,
		"country_code": rec.CountryCode,
		"latitude":     rec.Latitude,
		"longitude":    rec.Longitude,
		"timezone":     rec.Timezone,
		"org":          rec.Organization,
		"asn":          rec.AutonomousSystem,
	})
}
