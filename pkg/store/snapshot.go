package store

import (
	"time"

	"github.com/opcmap/policymap/pkg/record"
)

// Snapshot is one complete load of the data root. It must not be modified
// after Load returns. Methods that return collections allocate a new outer
// slice, but the records in it share their inner slices and maps (Tags,
// Parks, Benefits) with the snapshot and must be treated as read-only.
type Snapshot struct {
	Policies []record.Policy
	Parks    []record.Park

	// Fingerprint is a SHA-256 over the path and content of every record
	// file read. Two snapshots of an unchanged tree share a fingerprint.
	Fingerprint string
	LoadedAt    time.Time
}

// PolicyByID returns the policy with the given id.
func (s *Snapshot) PolicyByID(id string) (record.Policy, bool) {
	return PolicyByID(s.Policies, id)
}

// ParkByID returns the park with the given id.
func (s *Snapshot) ParkByID(id string) (record.Park, bool) {
	return ParkByID(s.Parks, id)
}

// PoliciesByCity returns the policies for city, newest first.
func (s *Snapshot) PoliciesByCity(city string) []record.Policy {
	return PoliciesByCity(s.Policies, city)
}

// PoliciesByStatus returns the policies with the given status.
func (s *Snapshot) PoliciesByStatus(status record.Status) []record.Policy {
	return PoliciesByStatus(s.Policies, status)
}

// ActivePolicies returns the policies asserted active.
func (s *Snapshot) ActivePolicies() []record.Policy {
	return ActivePolicies(s.Policies)
}

// Recent returns up to n of the newest policies.
func (s *Snapshot) Recent(n int) []record.Policy {
	return Recent(s.Policies, n)
}

// Cities returns the distinct policy cities, sorted.
func (s *Snapshot) Cities() []string {
	return Cities(s.Policies)
}

// Tags returns the distinct policy tags, sorted.
func (s *Snapshot) Tags() []string {
	return Tags(s.Policies)
}

// CityStats counts total and active policies per city.
func (s *Snapshot) CityStats() map[string]CityStat {
	return CityStats(s.Policies)
}

// SiteStats returns the site-wide totals.
func (s *Snapshot) SiteStats() SiteStats {
	return ComputeSiteStats(s.Policies, s.Parks)
}

// ParksFor returns the parks p links to, in its own order.
func (s *Snapshot) ParksFor(p record.Policy) []record.Park {
	return ParksForPolicy(s.Parks, p)
}

// PoliciesFor returns the policies linked with park in either direction.
func (s *Snapshot) PoliciesFor(park record.Park) []record.Policy {
	return PoliciesForPark(s.Policies, park)
}
