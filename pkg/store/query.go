package store

import (
	"sort"

	"github.com/opcmap/policymap/pkg/record"
)

// CityStat counts policies for one city.
type CityStat struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// SiteStats are the site-wide totals shown on the home page.
type SiteStats struct {
	TotalPolicies  int `json:"total_policies"`
	ActivePolicies int `json:"active_policies"`
	TotalCities    int `json:"total_cities"`
	TotalParks     int `json:"total_parks"`
}

// PolicyByID returns the policy with the given id.
func PolicyByID(policies []record.Policy, id string) (record.Policy, bool) {
	for _, p := range policies {
		if p.ID == id {
			return p, true
		}
	}
	return record.Policy{}, false
}

// ParkByID returns the park with the given id.
func ParkByID(parks []record.Park, id string) (record.Park, bool) {
	for _, p := range parks {
		if p.ID == id {
			return p, true
		}
	}
	return record.Park{}, false
}

// PoliciesByCity returns the policies whose city equals city, in collection
// order.
func PoliciesByCity(policies []record.Policy, city string) []record.Policy {
	return filterPolicies(policies, func(p *record.Policy) bool { return p.City == city })
}

// PoliciesByStatus returns the policies whose status equals status.
func PoliciesByStatus(policies []record.Policy, status record.Status) []record.Policy {
	return filterPolicies(policies, func(p *record.Policy) bool { return p.Status == status })
}

// ActivePolicies returns the policies asserted active.
func ActivePolicies(policies []record.Policy) []record.Policy {
	return PoliciesByStatus(policies, record.StatusActive)
}

// PoliciesWithBenefit returns the policies offering the benefit category key.
func PoliciesWithBenefit(policies []record.Policy, key string) []record.Policy {
	return filterPolicies(policies, func(p *record.Policy) bool { return p.Benefits.Has(key) })
}

// Recent returns up to n policies from the front of the collection, which
// is newest first.
func Recent(policies []record.Policy, n int) []record.Policy {
	if n < 0 {
		n = 0
	}
	if n > len(policies) {
		n = len(policies)
	}
	out := make([]record.Policy, n)
	copy(out, policies[:n])
	return out
}

// Cities returns the distinct cities, sorted.
func Cities(policies []record.Policy) []string {
	set := make(map[string]struct{})
	for _, p := range policies {
		set[p.City] = struct{}{}
	}
	return sortedKeys(set)
}

// Tags returns the distinct tags across all policies, sorted.
func Tags(policies []record.Policy) []string {
	set := make(map[string]struct{})
	for _, p := range policies {
		for _, t := range p.Tags {
			set[t] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// CityStats counts total and active policies per city.
func CityStats(policies []record.Policy) map[string]CityStat {
	stats := make(map[string]CityStat)
	for _, p := range policies {
		s := stats[p.City]
		s.Total++
		if p.IsActive() {
			s.Active++
		}
		stats[p.City] = s
	}
	return stats
}

// ComputeSiteStats reduces both collections to site-wide totals.
func ComputeSiteStats(policies []record.Policy, parks []record.Park) SiteStats {
	return SiteStats{
		TotalPolicies:  len(policies),
		ActivePolicies: len(ActivePolicies(policies)),
		TotalCities:    len(Cities(policies)),
		TotalParks:     len(parks),
	}
}

// ParksForPolicy resolves the policy's park references. Dangling
// references are dropped.
func ParksForPolicy(parks []record.Park, p record.Policy) []record.Park {
	out := []record.Park{}
	for _, id := range p.Parks {
		if park, ok := ParkByID(parks, id); ok {
			out = append(out, park)
		}
	}
	return out
}

// PoliciesForPark returns the policies linked to a park, either through the
// park's related_policies or a policy's parks list. Policies keep
// collection order and appear once.
func PoliciesForPark(policies []record.Policy, park record.Park) []record.Policy {
	related := make(map[string]bool, len(park.RelatedPolicies))
	for _, id := range park.RelatedPolicies {
		related[id] = true
	}
	return filterPolicies(policies, func(p *record.Policy) bool {
		if related[p.ID] {
			return true
		}
		for _, id := range p.Parks {
			if id == park.ID {
				return true
			}
		}
		return false
	})
}

func filterPolicies(policies []record.Policy, keep func(*record.Policy) bool) []record.Policy {
	out := []record.Policy{}
	for i := range policies {
		if keep(&policies[i]) {
			out = append(out, policies[i])
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
