package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quantumlife/viewerscope/internal/core"
)

const maxUpstreamBody = 64 << 10

// IPAPIProvider queries ip-api.com.
type IPAPIProvider struct {
	baseURL string
	client  *http.Client
}

// NewIPAPIProvider creates an ip-api.com provider. baseURL may be empty.
func NewIPAPIProvider(baseURL string, timeout time.Duration) *IPAPIProvider {
	if baseURL == "" {
		baseURL = "http://ip-api.com/json"
	}
	return &IPAPIProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Provider
func (p *IPAPIProvider) Name() string { return "ip-api" }

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Query       string  `json:"query"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
}

// Lookup implements Provider
func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (*core.LocationRecord, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=status,message,country,countryCode,regionName,city,lat,lon,timezone,isp,org,as,query",
		p.baseURL, url.PathEscape(ip))

	var resp ipAPIResponse
	if err := getJSON(ctx, p.client, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: ip-api: %s", core.ErrLocationNotFound, resp.Message)
	}

	return &core.LocationRecord{
		IP:               ip,
		City:             resp.City,
		Region:           resp.RegionName,
		Country:          resp.Country,
		CountryCode:      resp.CountryCode,
		Latitude:         resp.Lat,
		Longitude:        resp.Lon,
		Timezone:         resp.Timezone,
		ISP:              resp.ISP,
		Organization:     resp.Org,
		AutonomousSystem: resp.AS,
	}, nil
}

// IPAPICoProvider queries ipapi.co.
type IPAPICoProvider struct {
	baseURL string
	client  *http.Client
}

// NewIPAPICoProvider creates an ipapi.co provider. baseURL may be empty.
func NewIPAPICoProvider(baseURL string, timeout time.Duration) *IPAPICoProvider {
	if baseURL == "" {
		baseURL = "https://ipapi.co"
	}
	return &IPAPICoProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Provider
func (p *IPAPICoProvider) Name() string { return "ipapi.co" }

type ipAPICoResponse struct {
	Error       bool    `json:"error"`
	Reason      string  `json:"reason"`
	IP          string  `json:"ip"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	Org         string  `json:"org"`
	ASN         string  `json:"asn"`
}

// Lookup implements Provider
func (p *IPAPICoProvider) Lookup(ctx context.Context, ip string) (*core.LocationRecord, error) {
	endpoint := fmt.Sprintf("%s/%s/json/", p.baseURL, url.PathEscape(ip))

	var resp ipAPICoResponse
	if err := getJSON(ctx, p.client, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Error {
		return nil, fmt.Errorf("%w: ipapi.co: %s", core.ErrLocationNotFound, resp.Reason)
	}

	return &core.LocationRecord{
		IP:               ip,
		City:             resp.City,
		Region:           resp.Region,
		Country:          resp.CountryName,
		CountryCode:      resp.CountryCode,
		Latitude:         resp.Latitude,
		Longitude:        resp.Longitude,
		Timezone:         resp.Timezone,
		ISP:              resp.Org,
		Organization:     resp.Org,
		AutonomousSystem: resp.ASN,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "viewerscope/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxUpstreamBody))
		return fmt.Errorf("%w: status %d", core.ErrProviderUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUpstreamBody)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
