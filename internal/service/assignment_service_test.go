package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/geo"
)

func locPtr(lat, lng float64) *domain.Location { return &domain.Location{Lat: lat, Lng: lng} }

func TestNearestWorker(t *testing.T) {
	site := domain.Location{Lat: 34.05, Lng: -118.24}

	assert.Nil(t, nearestWorker(site, nil))
	assert.Nil(t, nearestWorker(site, []domain.User{{Email: "w@x", Role: domain.RoleWorker}}))

	workers := []domain.User{
		{Email: "citizen@x", Role: domain.RoleCitizen, Location: locPtr(34.05, -118.24)},
		{Email: "far@x", Role: domain.RoleWorker, Location: locPtr(10, 10)},
		{Email: "unlocated@x", Role: domain.RoleWorker},
		{Email: "near@x", Role: domain.RoleWorker, Location: locPtr(34.06, -118.25)},
	}
	got := nearestWorker(site, workers)
	require.NotNil(t, got)
	assert.Equal(t, "near@x", got.Email)

	tied := []domain.User{
		{Email: "first@x", Role: domain.RoleWorker, Location: locPtr(1, 1)},
		{Email: "second@x", Role: domain.RoleWorker, Location: locPtr(1, 1)},
	}
	assert.Equal(t, "first@x", nearestWorker(domain.Location{}, tied).Email)
}

func TestNearestWorker_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		site := domain.Location{
			Lat: rapid.Float64Range(-90, 90).Draw(t, "lat"),
			Lng: rapid.Float64Range(-180, 180).Draw(t, "lng"),
		}
		n := rapid.IntRange(1, 12).Draw(t, "n")
		workers := make([]domain.User, n)
		for i := range workers {
			workers[i] = domain.User{
				Email: fmt.Sprintf("w%d@x", i),
				Role:  domain.RoleWorker,
				// a small grid makes exact ties likely
				Location: locPtr(
					float64(rapid.IntRange(-3, 3).Draw(t, fmt.Sprintf("lat%d", i))),
					float64(rapid.IntRange(-3, 3).Draw(t, fmt.Sprintf("lng%d", i))),
				),
			}
		}

		got := nearestWorker(site, workers)
		if got == nil {
			t.Fatal("expected a worker")
		}
		gotDist := geo.Distance(site, *got.Location)
		firstAtMin := -1
		for i, w := range workers {
			d := geo.Distance(site, *w.Location)
			if d < gotDist {
				t.Fatalf("%s at %.6f km beats chosen %s at %.6f km", w.Email, d, got.Email, gotDist)
			}
			if d == gotDist && firstAtMin < 0 {
				firstAtMin = i
			}
		}
		if workers[firstAtMin].Email != got.Email {
			t.Fatalf("tie not broken by first seen: got %s, want %s", got.Email, workers[firstAtMin].Email)
		}
	})
}

func TestResolveNearest_UsesDirectoryOrder(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.addUser(t, domain.Actor{Email: "one@x.com", Name: "One W", Role: domain.RoleWorker}, "", locPtr(5, 5))
	env.addUser(t, domain.Actor{Email: "two@x.com", Name: "Two W", Role: domain.RoleWorker}, "", locPtr(5, 5))

	got, err := env.assignment.ResolveNearest(context.Background(), domain.Location{Lat: 5, Lng: 5})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "one@x.com", got.Email)
}
