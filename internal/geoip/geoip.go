package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Location holds the coarse geographic data attached to click events.
type Location struct {
	Country string
	City    string
}

// Service wraps an offline GeoLite2 City database. A nil Service is
// valid and resolves every IP to an empty location, so deployments
// without the .mmdb file keep working.
type Service struct {
	cityReader *geoip2.Reader
}

// NewService opens the city database at the given path.
func NewService(cityDBPath string) (*Service, error) {
	cityReader, err := geoip2.Open(cityDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open city database: %w", err)
	}
	return &Service{cityReader: cityReader}, nil
}

func (s *Service) Close() {
	if s != nil && s.cityReader != nil {
		s.cityReader.Close()
	}
}

// Lookup resolves an IP to country/city. Missing or unknown IPs yield
// an empty Location, never an error visible to scoring.
func (s *Service) Lookup(ipAddress string) Location {
	if s == nil || s.cityReader == nil {
		return Location{}
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return Location{}
	}

	record, err := s.cityReader.City(ip)
	if err != nil {
		return Location{}
	}

	return Location{
		Country: record.Country.IsoCode,
		City:    record.City.Names["en"],
	}
}
