package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func drawLocation(t *rapid.T, label string) domain.Location {
	return domain.Location{
		Lat: rapid.Float64Range(-90, 90).Draw(t, label+"_lat"),
		Lng: rapid.Float64Range(-180, 180).Draw(t, label+"_lng"),
	}
}

func TestDistance_Symmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawLocation(t, "a")
		b := drawLocation(t, "b")
		if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 1e-9 {
			t.Fatalf("distance not symmetric: %v vs %v", d1, d2)
		}
	})
}

func TestDistance_IdenticalPointsIsZero(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawLocation(t, "a")
		if d := Distance(a, a); d != 0 {
			t.Fatalf("expected 0, got %v", d)
		}
	})
}

func TestDistance_BoundedByHalfCircumference(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := Distance(drawLocation(t, "a"), drawLocation(t, "b"))
		if d < 0 || d > math.Pi*EarthRadiusKm+1e-6 {
			t.Fatalf("distance out of range: %v", d)
		}
	})
}

func TestDistance_KnownValues(t *testing.T) {
	antipodal := Distance(domain.Location{Lat: 0, Lng: 0}, domain.Location{Lat: 0, Lng: 180})
	assert.InDelta(t, math.Pi*EarthRadiusKm, antipodal, 1e-6)

	poles := Distance(domain.Location{Lat: 90, Lng: 0}, domain.Location{Lat: -90, Lng: 0})
	assert.InDelta(t, math.Pi*EarthRadiusKm, poles, 1e-6)

	// one degree of latitude along a meridian
	assert.InDelta(t, 111.195, Distance(domain.Location{Lat: 0, Lng: 0}, domain.Location{Lat: 1, Lng: 0}), 0.001)

	la := domain.Location{Lat: 34.05, Lng: -118.24}
	near := domain.Location{Lat: 34.06, Lng: -118.25}
	assert.InDelta(t, 1.4, Distance(la, near), 0.1)
}
