package geoip

import (
	"net"
	"sync/atomic"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/nadir/internal/models"
)

// Provider wraps the GeoIP2 database reader and turns player addresses into geolocation labels.
// The database can be swapped with Reload while lookups are running.
type Provider struct {
	db   atomic.Pointer[geoip2.Reader]
	path string
}

// Open initializes the GeoIP database reader from a specific file path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	p := &Provider{path: path}
	p.db.Store(db)

	return p, nil
}

// Reload reopens the database file and closes the previous reader.
func (p *Provider) Reload() error {
	db, err := geoip2.Open(p.path)
	if err != nil {
		return err
	}

	if old := p.db.Swap(db); old != nil {
		_ = old.Close()
	}
	log.Info().Str("path", p.path).Msg("GeoIP database reloaded")

	return nil
}

// Close closes the underlying GeoIP database reader.
func (p *Provider) Close() error {
	if db := p.db.Load(); db != nil {
		return db.Close()
	}

	return nil
}

// Country looks up the English country name for an IP address, falling back to the ISO code.
// It returns an empty string if the IP is invalid, private or unknown to the database.
func (p *Provider) Country(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.IsPrivate() || ip.IsLoopback() {
		return ""
	}

	record, err := p.db.Load().Country(ip)
	if err != nil {
		return ""
	}

	if name := record.Country.Names["en"]; name != "" {
		return name
	}

	return record.Country.IsoCode
}

// Locate returns the geolocation record of an address at the given time.
// Unresolvable addresses yield nil so no geolocation gets stored for them.
func (p *Provider) Locate(ipStr string, rec models.GeoRecord) *models.GeoRecord {
	if p == nil {
		return nil
	}

	country := p.Country(ipStr)
	if country == "" {
		return nil
	}
	rec.Geolocation = country

	return &rec
}
