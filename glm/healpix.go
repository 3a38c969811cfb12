package glm

// NLM returns the number of (l,m) pairs with 0 <= m <= l <= lmax.
func NLM(lmax int) int {
	return (lmax + 1) * (lmax + 2) / 2
}

// Index returns the flat HEALPix index of (l, m).
func Index(lmax, l, m int) int {
	return m*(2*lmax+1-m)/2 + l
}

// LMValues returns the l and m values of every flat index for lmax.
func LMValues(lmax int) (ells, ems []int) {
	n := NLM(lmax)
	ells = make([]int, n)
	ems = make([]int, n)
	idx := 0
	for m := 0; m <= lmax; m++ {
		for l := m; l <= lmax; l++ {
			ells[idx] = l
			ems[idx] = m
			idx++
		}
	}
	return ells, ems
}

// IndicesByL groups the flat indices by multipole: out[l] lists every index
// with that l, ordered by m.
func IndicesByL(lmax int) [][]int {
	out := make([][]int, lmax+1)
	for l := range out {
		out[l] = make([]int, 0, l+1)
		for m := 0; m <= l; m++ {
			out[l] = append(out[l], Index(lmax, l, m))
		}
	}
	return out
}
