package assignment

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shopsphere/shopsphere-backend/internal/geo"
	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
)

// Destination is the delivery target the selector matches agents
// against.
type Destination struct {
	City      string
	State     string
	Pincode   string
	Latitude  *float64
	Longitude *float64
}

// Candidate is the selector's ranked pick.
type Candidate struct {
	Agent      models.AgentProfile
	Tier       int
	DistanceKM float64
	ActiveLoad int
}

const pincodePrefixLen = 3

// Select ranks the eligible pool against the destination and returns
// the best candidate, or nil when no tier matches. Matching is tiered:
// an exact pincode hit always beats a pincode-prefix hit, which beats a
// city/state hit. Within the winning tier agents are ordered by
// distance first, then by how many assignments they are already
// carrying. The pool is expected to be pre-filtered to approved,
// available, unblocked, active agents.
func Select(pool []models.AgentProfile, workloads map[uuid.UUID]int, dest Destination) *Candidate {
	var tier1, tier2, tier3 []Candidate

	for _, agent := range pool {
		c := Candidate{
			Agent:      agent,
			DistanceKM: geo.DistanceKM(agent.Latitude, agent.Longitude, dest.Latitude, dest.Longitude),
			ActiveLoad: workloads[agent.ID],
		}
		switch {
		case matchesPincode(agent, dest.Pincode):
			c.Tier = 1
			tier1 = append(tier1, c)
		case matchesPincodePrefix(agent, dest.Pincode):
			c.Tier = 2
			tier2 = append(tier2, c)
		case matchesRegion(agent, dest.City, dest.State):
			c.Tier = 3
			tier3 = append(tier3, c)
		}
	}

	for _, tier := range [][]Candidate{tier1, tier2, tier3} {
		if len(tier) == 0 {
			continue
		}
		sort.SliceStable(tier, func(i, j int) bool {
			if tier[i].DistanceKM != tier[j].DistanceKM {
				return tier[i].DistanceKM < tier[j].DistanceKM
			}
			return tier[i].ActiveLoad < tier[j].ActiveLoad
		})
		best := tier[0]
		return &best
	}
	return nil
}

func matchesPincode(agent models.AgentProfile, pincode string) bool {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return false
	}
	if strings.TrimSpace(agent.PostalCode) == pincode {
		return true
	}
	return agent.ServicePincodes.Contains(pincode)
}

func matchesPincodePrefix(agent models.AgentProfile, pincode string) bool {
	pincode = strings.TrimSpace(pincode)
	if len(pincode) < pincodePrefixLen {
		return false
	}
	prefix := pincode[:pincodePrefixLen]
	if strings.HasPrefix(strings.TrimSpace(agent.PostalCode), prefix) {
		return true
	}
	for _, p := range agent.ServicePincodes {
		if strings.HasPrefix(strings.TrimSpace(p), prefix) {
			return true
		}
	}
	return false
}

// matchesRegion accepts the agent when its home city matches the
// destination city, or when service_cities lists either the
// destination city or state. City names are compared trimmed and
// case-insensitively.
func matchesRegion(agent models.AgentProfile, city, state string) bool {
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)

	if city != "" && strings.EqualFold(strings.TrimSpace(agent.City), city) {
		return true
	}
	if city != "" && agent.ServiceCities.ContainsFold(city) {
		return true
	}
	if state != "" && agent.ServiceCities.ContainsFold(state) {
		return true
	}
	return false
}
