package bioportal

import (
	"strings"

	"github.com/kailas-cloud/bioportal/internal/domain"
)

// Service is a logical NBA endpoint group (a document type).
type Service string

// NBA services.
const (
	ServiceTaxon      Service = "taxon"
	ServiceSpecimen   Service = "specimen"
	ServiceMultimedia Service = "multimedia"
	ServiceGeo        Service = "geo"
)

// AllServices returns the services selected by Client.All.
func AllServices() []Service {
	return []Service{ServiceTaxon, ServiceMultimedia, ServiceSpecimen, ServiceGeo}
}

// ParseService accepts a service name in any case.
func ParseService(s string) (Service, error) {
	svc := Service(strings.ToLower(strings.TrimSpace(s)))
	if !svc.IsValid() {
		return "", domain.Validationf("unknown service %q", s)
	}
	return svc, nil
}

// IsValid reports whether s is a known service.
func (s Service) IsValid() bool {
	switch s {
	case ServiceTaxon, ServiceSpecimen, ServiceMultimedia, ServiceGeo:
		return true
	default:
		return false
	}
}

// SupportsGrouping reports whether s accepts groupByScientificName.
func (s Service) SupportsGrouping() bool {
	return s == ServiceSpecimen || s == ServiceTaxon
}

// SupportsDwCA reports whether s offers Darwin Core archive exports.
func (s Service) SupportsDwCA() bool {
	return s == ServiceSpecimen || s == ServiceTaxon
}

func (s Service) String() string { return string(s) }

// QueryType is the operation of a MultiServiceBatch item.
type QueryType string

// Batch query types.
const (
	QueryTypeQuery                 QueryType = "query"
	QueryTypeGroupByScientificName QueryType = "groupByScientificName"
)
