package glm

import "slices"

// Selection is the result of Select.
type Selection struct {
	// Store holds the selected maps, in selection order.
	Store *Store
	// Indices are the map-axis indices of the selected maps in the source store.
	Indices []int
	// Skipped are the requested maps that are not part of the source store.
	Skipped []MapID
}

// Select extracts the coefficients of the maps in include, reindexed as
// [realization][selected map][lm].
//
// An empty include-list selects every map. Maps whose tag equals target are
// never selected. Duplicates are collapsed keeping first-seen order, and
// unknown maps are reported in Skipped.
func (s *Store) Select(include []MapID, target string) *Selection {
	if len(include) == 0 {
		include = s.Maps
	}

	sel := &Selection{}
	seen := make(map[int]struct{}, len(include))
	for _, id := range include {
		id = id.Normalize()
		if id.Map == target {
			continue
		}
		idx, ok := s.MapIndex(id)
		if !ok {
			sel.Skipped = append(sel.Skipped, id)
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		sel.Indices = append(sel.Indices, idx)
	}

	maps := make([]MapID, len(sel.Indices))
	for i, idx := range sel.Indices {
		maps[i] = s.Maps[idx]
	}
	out := &Store{
		Lmax:         s.Lmax,
		Realizations: slices.Clone(s.Realizations),
		Maps:         maps,
		RunTag:       s.RunTag,
		nlm:          s.nlm,
		data:         make([]complex128, s.NReal()*len(maps)*s.nlm),
	}
	for r := 0; r < s.NReal(); r++ {
		for d, idx := range sel.Indices {
			copy(out.Row(r, d), s.Row(r, idx))
		}
	}
	sel.Store = out
	return sel
}
