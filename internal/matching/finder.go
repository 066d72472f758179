package matching

import "github.com/pkordes/nightspot/internal/domain"

// FindEligibleGroup returns the first combination of groupSize users from
// users, in lexicographic order of pool index, that passes IsSimilar.
// It returns nil when users holds fewer than groupSize entries, when
// groupSize is not positive, or when no combination passes.
//
// The result is the first passing group, not the tightest one. The search
// walks combinations depth-first and drops any prefix whose spread already
// exceeds threshold: adding members can only widen a spread, so no extension
// of that prefix could pass and the first hit is unchanged.
// The returned slice is freshly allocated; users is never modified.
func FindEligibleGroup(users []domain.WaitingUser, groupSize int, threshold float64) []domain.WaitingUser {
	if groupSize <= 0 || len(users) < groupSize {
		return nil
	}

	vectors := make([][]float64, len(users))
	for i, u := range users {
		vectors[i] = u.Traits.Vector()
	}

	s := search{
		vectors:   vectors,
		size:      groupSize,
		threshold: threshold,
		picked:    make([]int, 0, groupSize),
	}
	if !s.extend(0, nil, nil) {
		return nil
	}

	group := make([]domain.WaitingUser, groupSize)
	for i, idx := range s.picked {
		group[i] = users[idx]
	}
	return group
}

// search holds the state of one depth-first combination walk.
type search struct {
	vectors   [][]float64
	size      int
	threshold float64
	picked    []int
}

// extend tries to complete s.picked starting at pool index from, given the
// per-dimension bounds of the members picked so far (nil when none).
func (s *search) extend(from int, lo, hi []float64) bool {
	if len(s.picked) == s.size {
		return true
	}
	need := s.size - len(s.picked)
	for i := from; i <= len(s.vectors)-need; i++ {
		nlo, nhi, ok := s.widen(lo, hi, s.vectors[i])
		if !ok {
			continue
		}
		s.picked = append(s.picked, i)
		if s.extend(i+1, nlo, nhi) {
			return true
		}
		s.picked = s.picked[:len(s.picked)-1]
	}
	return false
}

// widen returns the bounds after adding v, and whether they stay within the
// threshold on every dimension.
func (s *search) widen(lo, hi, v []float64) ([]float64, []float64, bool) {
	nlo := make([]float64, len(v))
	nhi := make([]float64, len(v))
	for d, x := range v {
		if lo == nil {
			nlo[d], nhi[d] = x, x
			continue
		}
		nlo[d], nhi[d] = min(lo[d], x), max(hi[d], x)
		if nhi[d]-nlo[d] > s.threshold {
			return nil, nil, false
		}
	}
	return nlo, nhi, true
}
