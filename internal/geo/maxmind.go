package geo

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"

	"github.com/quantumlife/viewerscope/internal/core"
)

// cityRecord mirrors the subset of GeoLite2-City we read.
type cityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Subdivisions []struct {
		IsoCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	Country struct {
		IsoCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
		TimeZone  string  `maxminddb:"time_zone"`
	} `maxminddb:"location"`
}

// asnRecord mirrors GeoLite2-ASN.
type asnRecord struct {
	Number       uint   `maxminddb:"autonomous_system_number"`
	Organization string `maxminddb:"autonomous_system_organization"`
}

// MaxMindProvider answers from local .mmdb files. The ASN database is optional.
type MaxMindProvider struct {
	city *maxminddb.Reader
	asn  *maxminddb.Reader
}

// OpenMaxMind opens the city database and, if asnPath is set, the ASN database.
func OpenMaxMind(cityPath, asnPath string) (*MaxMindProvider, error) {
	city, err := maxminddb.Open(cityPath)
	if err != nil {
		return nil, fmt.Errorf("open city database: %w", err)
	}

	p := &MaxMindProvider{city: city}
	if asnPath != "" {
		asn, err := maxminddb.Open(asnPath)
		if err != nil {
			city.Close()
			return nil, fmt.Errorf("open asn database: %w", err)
		}
		p.asn = asn
	}
	return p, nil
}

// Name implements Provider
func (p *MaxMindProvider) Name() string { return "maxmind" }

// Lookup implements Provider
func (p *MaxMindProvider) Lookup(ctx context.Context, ip string) (*core.LocationRecord, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("%w: unparseable ip", core.ErrLocationNotFound)
	}

	var city cityRecord
	_, ok, err := p.city.LookupNetwork(parsed, &city)
	if err != nil {
		return nil, fmt.Errorf("city lookup: %w", err)
	}
	if !ok {
		return nil, core.ErrLocationNotFound
	}

	var asn *asnRecord
	if p.asn != nil {
		var rec asnRecord
		if _, found, err := p.asn.LookupNetwork(parsed, &rec); err == nil && found {
			asn = &rec
		}
	}

	return cityToLocation(ip, &city, asn), nil
}

// Close releases the memory-mapped databases
func (p *MaxMindProvider) Close() error {
	var firstErr error
	if p.asn != nil {
		firstErr = p.asn.Close()
	}
	if err := p.city.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func cityToLocation(ip string, city *cityRecord, asn *asnRecord) *core.LocationRecord {
	rec := &core.LocationRecord{
		IP:          ip,
		City:        city.City.Names["en"],
		Country:     city.Country.Names["en"],
		CountryCode: city.Country.IsoCode,
		Latitude:    city.Location.Latitude,
		Longitude:   city.Location.Longitude,
		Timezone:    city.Location.TimeZone,
	}
	if len(city.Subdivisions) > 0 {
		rec.Region = city.Subdivisions[0].Names["en"]
		if rec.Region == "" {
			rec.Region = city.Subdivisions[0].IsoCode
		}
	}
	if asn != nil {
		rec.ISP = asn.Organization
		rec.Organization = asn.Organization
		if asn.Number != 0 {
			rec.AutonomousSystem = fmt.Sprintf("AS%d %s", asn.Number, asn.Organization)
		}
	}
	return rec
}
