// Package matching implements the group-selection rules: when a set of
// waiting users counts as compatible, and how one compatible group is found
// in a slot's pool. Everything here is pure; callers own the pool.
package matching

import "github.com/pkordes/nightspot/internal/domain"

// IsSimilar reports whether every trait's spread (max - min) across group is
// at most threshold. Groups of zero or one user are trivially similar.
// The result does not depend on the order of group.
func IsSimilar(group []domain.WaitingUser, threshold float64) bool {
	if len(group) < 2 {
		return true
	}
	lo := group[0].Traits.Vector()
	hi := group[0].Traits.Vector()
	for _, u := range group[1:] {
		for d, v := range u.Traits.Vector() {
			if v < lo[d] {
				lo[d] = v
			}
			if v > hi[d] {
				hi[d] = v
			}
		}
	}
	for d := range lo {
		if hi[d]-lo[d] > threshold {
			return false
		}
	}
	return true
}
