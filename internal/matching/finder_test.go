package matching_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/nightspot/internal/domain"
	"github.com/pkordes/nightspot/internal/matching"
)

// single builds a WaitingUser whose only non-zero trait is extroversion.
func single(v float64) domain.WaitingUser {
	return user(v, 0, 0, 0)
}

func TestFindEligibleGroup_PicksTheClusterNotTheOutlier(t *testing.T) {
	pool := []domain.WaitingUser{single(1.0), single(1.2), single(1.1), single(5.0)}

	got := matching.FindEligibleGroup(pool, 3, 1.0)

	require.Len(t, got, 3)
	assert.Equal(t, domain.IDs(pool[:3]), domain.IDs(got))
}

func TestFindEligibleGroup_PoolSmallerThanGroup(t *testing.T) {
	pool := []domain.WaitingUser{flat(2), flat(2)}

	assert.Nil(t, matching.FindEligibleGroup(pool, 5, 5))
	assert.Nil(t, matching.FindEligibleGroup(nil, 1, 5))
}

func TestFindEligibleGroup_NonPositiveSize(t *testing.T) {
	pool := []domain.WaitingUser{flat(2), flat(2)}

	assert.Nil(t, matching.FindEligibleGroup(pool, 0, 1))
	assert.Nil(t, matching.FindEligibleGroup(pool, -1, 1))
}

func TestFindEligibleGroup_NoCombinationPasses(t *testing.T) {
	pool := []domain.WaitingUser{flat(0), flat(2), flat(4)}

	assert.Nil(t, matching.FindEligibleGroup(pool, 2, 1.5))
}

// TestFindEligibleGroup_FirstInLexicographicOrder verifies that the finder
// returns the earliest passing index combination even when a later one is
// tighter.
func TestFindEligibleGroup_FirstInLexicographicOrder(t *testing.T) {
	pool := []domain.WaitingUser{single(1.0), single(3.0), single(2.0), single(2.0)}

	got := matching.FindEligibleGroup(pool, 2, 1.0)

	require.Len(t, got, 2)
	assert.Equal(t, pool[0].ID, got[0].ID)
	assert.Equal(t, pool[2].ID, got[1].ID, "{0,2} precedes the tighter {2,3}")
}

func TestFindEligibleGroup_DoesNotModifyInput(t *testing.T) {
	pool := []domain.WaitingUser{single(4), single(1), single(1.5), single(1.2)}
	before := domain.IDs(pool)

	got := matching.FindEligibleGroup(pool, 3, 1)

	require.Len(t, got, 3)
	assert.Equal(t, before, domain.IDs(pool))
}

// TestFindEligibleGroup_MatchesExhaustiveEnumeration compares the pruned
// search with a naive walk over every combination on random pools.
func TestFindEligibleGroup_MatchesExhaustiveEnumeration(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 200; round++ {
		n := 1 + rng.IntN(9)
		k := 1 + rng.IntN(5)
		threshold := rng.Float64() * 2.5

		pool := make([]domain.WaitingUser, n)
		for i := range pool {
			pool[i] = user(rng.Float64()*5, rng.Float64()*5, rng.Float64()*5, rng.Float64()*5)
		}

		want := exhaustive(pool, k, threshold)
		got := matching.FindEligibleGroup(pool, k, threshold)

		if want == nil {
			assert.Nil(t, got, "round %d n=%d k=%d", round, n, k)
			continue
		}
		require.NotNil(t, got, "round %d n=%d k=%d", round, n, k)
		assert.Equal(t, domain.IDs(want), domain.IDs(got), "round %d", round)
		assert.True(t, matching.IsSimilar(got, threshold))
	}
}

// exhaustive enumerates every k-combination in lexicographic order and
// returns the first that IsSimilar accepts.
func exhaustive(pool []domain.WaitingUser, k int, threshold float64) []domain.WaitingUser {
	if k > len(pool) {
		return nil
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		group := make([]domain.WaitingUser, k)
		for i, j := range idx {
			group[i] = pool[j]
		}
		if matching.IsSimilar(group, threshold) {
			return group
		}

		i := k - 1
		for i >= 0 && idx[i] == len(pool)-k+i {
			i--
		}
		if i < 0 {
			return nil
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
