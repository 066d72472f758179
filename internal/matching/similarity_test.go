package matching_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/matching"
)

// user builds a WaitingUser whose four traits are given in TraitNames order.
func user(e, o, s, en float64) domain.WaitingUser {
	return domain.WaitingUser{
		ID:          uuid.New(),
		MeetingTime: "2025-04-12 19:00",
		Traits:      domain.Traits{Extroversion: e, Openness: o, Spontaneity: s, EnergyLevel: en},
	}
}

// flat builds a WaitingUser with every trait set to v.
func flat(v float64) domain.WaitingUser {
	return user(v, v, v, v)
}

func TestIsSimilar_EmptyAndSingleton(t *testing.T) {
	assert.True(t, matching.IsSimilar(nil, 0))
	assert.True(t, matching.IsSimilar([]domain.WaitingUser{user(0, 5, 2, 3)}, 0))
}

func TestIsSimilar_SpreadEqualToThresholdPasses(t *testing.T) {
	group := []domain.WaitingUser{flat(1), flat(2)}

	assert.True(t, matching.IsSimilar(group, 1))
	assert.False(t, matching.IsSimilar(group, 0.99))
}

// TestIsSimilar_EveryDimensionMustPass verifies that a single wide dimension
// fails the group even when every other dimension is identical.
func TestIsSimilar_EveryDimensionMustPass(t *testing.T) {
	for d := range domain.TraitNames {
		a := [4]float64{2, 2, 2, 2}
		b := a
		b[d] = 4.5

		group := []domain.WaitingUser{user(a[0], a[1], a[2], a[3]), user(b[0], b[1], b[2], b[3])}

		assert.False(t, matching.IsSimilar(group, 2), "dimension %s", domain.TraitNames[d])
		assert.True(t, matching.IsSimilar(group, 2.5), "dimension %s", domain.TraitNames[d])
	}
}

// TestIsSimilar_PermutationSymmetric checks every ordering of a fixed group
// gives the same answer.
func TestIsSimilar_PermutationSymmetric(t *testing.T) {
	base := []domain.WaitingUser{user(1, 2, 3, 4), user(1.5, 2.2, 3.9, 4.1), user(0.8, 2.9, 3.1, 3.6)}

	for _, threshold := range []float64{0.5, 0.9, 1.0} {
		want := matching.IsSimilar(base, threshold)
		for _, perm := range [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}} {
			group := []domain.WaitingUser{base[perm[0]], base[perm[1]], base[perm[2]]}
			assert.Equal(t, want, matching.IsSimilar(group, threshold), "threshold %v perm %v", threshold, perm)
		}
	}
}
