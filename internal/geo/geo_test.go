package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceMetersIdenticalCoordinates(t *testing.T) {
	point := Coordinate{Lat: 40.7128, Lng: -74.006}
	require.Zero(t, DistanceMeters(point, point))
}

func TestDistanceMetersAntipodal(t *testing.T) {
	a := Coordinate{Lat: 0, Lng: 0}
	b := Coordinate{Lat: 0, Lng: 180}

	distance := DistanceMeters(a, b)
	require.InDelta(t, math.Pi*6371000, distance, 1)
}

func TestDistanceMetersKnownPair(t *testing.T) {
	// New York City to Los Angeles, roughly 3,936 km.
	nyc := Coordinate{Lat: 40.7128, Lng: -74.006}
	la := Coordinate{Lat: 34.0522, Lng: -118.2437}

	distance := DistanceMeters(nyc, la)
	require.InDelta(t, 3936000, distance, 10000)
}

func TestDistanceMetersSymmetric(t *testing.T) {
	a := Coordinate{Lat: 52.52, Lng: 13.405}
	b := Coordinate{Lat: 48.8566, Lng: 2.3522}

	require.InDelta(t, DistanceMeters(a, b), DistanceMeters(b, a), 1e-9)
}
