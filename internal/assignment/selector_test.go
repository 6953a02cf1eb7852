package assignment

import (
	"testing"

	"github.com/google/uuid"

	"github.com/shopsphere/shopsphere-backend/pkg/db/models"
	"github.com/shopsphere/shopsphere-backend/pkg/types"
)

func ptr(v float64) *float64 { return &v }

func agent(city, state, postal string, opts ...func(*models.AgentProfile)) models.AgentProfile {
	a := models.AgentProfile{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		City:       city,
		State:      state,
		PostalCode: postal,
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func withServicePincodes(pins ...string) func(*models.AgentProfile) {
	return func(a *models.AgentProfile) { a.ServicePincodes = types.StringList(pins) }
}

func withServiceCities(cities ...string) func(*models.AgentProfile) {
	return func(a *models.AgentProfile) { a.ServiceCities = types.StringList(cities) }
}

func withCoords(lat, lon float64) func(*models.AgentProfile) {
	return func(a *models.AgentProfile) {
		a.Latitude = ptr(lat)
		a.Longitude = ptr(lon)
	}
}

func TestSelectExactPincodeBeatsEverything(t *testing.T) {
	exact := agent("Mysore", "Karnataka", "560001")
	prefix := agent("Bangalore", "Karnataka", "560099", withCoords(12.97, 77.59))
	city := agent("Bangalore", "Karnataka", "400001")

	dest := Destination{City: "Bangalore", State: "Karnataka", Pincode: "560001", Latitude: ptr(12.97), Longitude: ptr(77.59)}
	pick := Select([]models.AgentProfile{city, prefix, exact}, nil, dest)
	if pick == nil {
		t.Fatal("expected a candidate")
	}
	if pick.Agent.ID != exact.ID {
		t.Fatalf("expected exact pincode winner, got agent in %s", pick.Agent.City)
	}
	if pick.Tier != 1 {
		t.Fatalf("expected tier 1, got %d", pick.Tier)
	}
}

func TestSelectServicePincodeCountsAsExact(t *testing.T) {
	roaming := agent("Hosur", "Tamil Nadu", "635109", withServicePincodes("560001", "560002"))
	dest := Destination{City: "Bangalore", State: "Karnataka", Pincode: "560001"}

	pick := Select([]models.AgentProfile{roaming}, nil, dest)
	if pick == nil || pick.Tier != 1 {
		t.Fatalf("expected tier 1 via service pincodes, got %+v", pick)
	}
}

func TestSelectPincodePrefixTier(t *testing.T) {
	near := agent("Bangalore", "Karnataka", "560033")
	far := agent("Mumbai", "Maharashtra", "400001")

	dest := Destination{City: "Hosakote", State: "Karnataka", Pincode: "560067"}
	pick := Select([]models.AgentProfile{far, near}, nil, dest)
	if pick == nil || pick.Agent.ID != near.ID {
		t.Fatal("expected prefix match to win")
	}
	if pick.Tier != 2 {
		t.Fatalf("expected tier 2, got %d", pick.Tier)
	}
}

func TestSelectRegionTierMatchesCityAndState(t *testing.T) {
	byCity := agent("  bangalore ", "Karnataka", "999999")
	byServiceState := agent("Mangalore", "Karnataka", "888888", withServiceCities(" KARNATAKA "))
	noMatch := agent("Pune", "Maharashtra", "777777")

	dest := Destination{City: "Bangalore", State: "Karnataka", Pincode: "12"}

	pick := Select([]models.AgentProfile{noMatch, byServiceState, byCity}, nil, dest)
	if pick == nil || pick.Tier != 3 {
		t.Fatalf("expected a tier 3 pick, got %+v", pick)
	}

	pick = Select([]models.AgentProfile{noMatch, byServiceState}, nil, dest)
	if pick == nil || pick.Agent.ID != byServiceState.ID {
		t.Fatal("expected service_cities state match")
	}
}

func TestSelectOrdersByDistanceThenWorkload(t *testing.T) {
	near := agent("Bangalore", "Karnataka", "560001", withCoords(12.9716, 77.5946))
	far := agent("Bangalore", "Karnataka", "560001", withCoords(13.3409, 77.1010))

	dest := Destination{City: "Bangalore", State: "Karnataka", Pincode: "560001", Latitude: ptr(12.9719), Longitude: ptr(77.5940)}
	pick := Select([]models.AgentProfile{far, near}, nil, dest)
	if pick == nil || pick.Agent.ID != near.ID {
		t.Fatal("expected nearest agent to win")
	}

	// Without coordinates every distance is +Inf, so workload breaks the tie.
	busy := agent("Bangalore", "Karnataka", "560001")
	idle := agent("Bangalore", "Karnataka", "560001")
	workloads := map[uuid.UUID]int{busy.ID: 3, idle.ID: 1}

	pick = Select([]models.AgentProfile{busy, idle}, workloads, dest)
	if pick == nil || pick.Agent.ID != idle.ID {
		t.Fatal("expected least-loaded agent to win the distance tie")
	}
}

func TestSelectAgentWithoutCoordsStillEligible(t *testing.T) {
	blind := agent("Bangalore", "Karnataka", "560001")
	dest := Destination{City: "Bangalore", State: "Karnataka", Pincode: "560001", Latitude: ptr(12.97), Longitude: ptr(77.59)}

	pick := Select([]models.AgentProfile{blind}, nil, dest)
	if pick == nil {
		t.Fatal("agent without coordinates must still be assignable")
	}
}

func TestSelectEmptyPoolReturnsNil(t *testing.T) {
	dest := Destination{City: "Bangalore", State: "Karnataka", Pincode: "560001"}
	if pick := Select(nil, nil, dest); pick != nil {
		t.Fatalf("expected nil for empty pool, got %+v", pick)
	}
}

func TestSelectNoTierMatches(t *testing.T) {
	stranger := agent("Delhi", "Delhi", "110001")
	dest := Destination{City: "Bangalore", State: "Karnataka", Pincode: "560001"}
	if pick := Select([]models.AgentProfile{stranger}, nil, dest); pick != nil {
		t.Fatalf("expected nil when nothing matches, got tier %d", pick.Tier)
	}
}
