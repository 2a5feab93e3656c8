package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm_Symmetric(t *testing.T) {
	a := Position{LatDeg: 10, LonDeg: 20}
	b := Position{LatDeg: -5, LonDeg: 100}

	d1 := HaversineKm(a, b)
	d2 := HaversineKm(b, a)

	assert.InDelta(t, d1, d2, d1*1e-9)
}

func TestHaversineKm_SamePoint(t *testing.T) {
	a := Position{LatDeg: 1, LonDeg: 2}
	assert.InDelta(t, 0, HaversineKm(a, a), 1e-9)
}

func TestHaversineKm_QuarterMeridian(t *testing.T) {
	equator := Position{LatDeg: 0, LonDeg: 0}
	pole := Position{LatDeg: 90, LonDeg: 0}

	got := HaversineKm(equator, pole)
	want := math.Pi / 2 * EarthRadiusKm
	assert.InDelta(t, want, got, 1e-6)
}

func TestLineOfSight_Symmetric(t *testing.T) {
	a := Position{LatDeg: 0, LonDeg: 0, AltM: 0}
	b := Position{LatDeg: 0, LonDeg: 0.2, AltM: 550000}

	assert.Equal(t, LineOfSight(a, b), LineOfSight(b, a))
}

func TestLineOfSight_CoLocatedGround(t *testing.T) {
	a := Position{LatDeg: 10, LonDeg: 10, AltM: 0}
	b := Position{LatDeg: 10, LonDeg: 10, AltM: 0}

	assert.True(t, LineOfSight(a, b))
}

func TestLineOfSight_AntipodalGround(t *testing.T) {
	a := Position{LatDeg: 0, LonDeg: 0, AltM: 0}
	b := Position{LatDeg: 0, LonDeg: 180, AltM: 0}

	assert.False(t, LineOfSight(a, b))
}

func TestLineOfSight_SatelliteSeesFarGround(t *testing.T) {
	ground := Position{LatDeg: 0, LonDeg: 0, AltM: 0}
	sat := Position{LatDeg: 0, LonDeg: 20, AltM: 550000}

	assert.True(t, LineOfSight(ground, sat))
}

func TestECEF_RoundTripMagnitude(t *testing.T) {
	v := ECEF(0, 0, 0)
	assert.InDelta(t, EarthRadiusKm, math.Sqrt(v.X*v.X+v.Y*v.Y+v.Z*v.Z), 1e-9)
}

func TestSlantRangeKm_GreaterThanOrEqualSurface(t *testing.T) {
	a := Position{LatDeg: 0, LonDeg: 0, AltM: 0}
	b := Position{LatDeg: 0, LonDeg: 0.2, AltM: 550000}

	slant := SlantRangeKm(a, b)
	surface := HaversineKm(a, b)

	assert.GreaterOrEqual(t, slant, surface)
	assert.Positive(t, slant)
}
