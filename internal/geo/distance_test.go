package geo

import (
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestDistanceKMIdenticalPointsIsZero(t *testing.T) {
	lat, lon := ptr(12.9716), ptr(77.5946)
	if d := DistanceKM(lat, lon, lat, lon); d != 0 {
		t.Fatalf("expected 0 for identical points, got %f", d)
	}
}

func TestDistanceKMKnownPair(t *testing.T) {
	// Bangalore to Chennai, roughly 290 km great-circle.
	d := DistanceKM(ptr(12.9716), ptr(77.5946), ptr(13.0827), ptr(80.2707))
	if d < 280 || d > 300 {
		t.Fatalf("expected ~290 km, got %f", d)
	}
}

func TestDistanceKMSymmetry(t *testing.T) {
	lat1, lon1 := ptr(19.0760), ptr(72.8777)
	lat2, lon2 := ptr(28.7041), ptr(77.1025)

	ab := DistanceKM(lat1, lon1, lat2, lon2)
	ba := DistanceKM(lat2, lon2, lat1, lon1)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("expected symmetric distance, got %f and %f", ab, ba)
	}
}

func TestDistanceKMNilCoordinateIsInf(t *testing.T) {
	lat, lon := ptr(12.9716), ptr(77.5946)
	cases := [][4]*float64{
		{nil, lon, lat, lon},
		{lat, nil, lat, lon},
		{lat, lon, nil, lon},
		{lat, lon, lat, nil},
	}
	for i, c := range cases {
		if d := DistanceKM(c[0], c[1], c[2], c[3]); !math.IsInf(d, 1) {
			t.Fatalf("case %d: expected +Inf for nil coordinate, got %f", i, d)
		}
	}
}

func TestDistanceMetersScalesKM(t *testing.T) {
	d := DistanceMeters(ptr(12.9716), ptr(77.5946), ptr(12.9720), ptr(77.5946))
	// ~0.0004 degrees of latitude is ~44 m.
	if d < 40 || d > 50 {
		t.Fatalf("expected ~44 m, got %f", d)
	}

	if d := DistanceMeters(nil, nil, ptr(0), ptr(0)); !math.IsInf(d, 1) {
		t.Fatalf("expected +Inf to survive the scale, got %f", d)
	}
}
