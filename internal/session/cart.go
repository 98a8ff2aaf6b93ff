// Package session carries the per-visitor state that survives across
// requests: the opaque session identifier (a cookie) and the cart, an
// ordered list of item IDs kept in Redis.  Cart membership never
// implies a live hold; checkout re-validates against the holds table.
package session

// addID appends id to ids if absent, preserving insertion order.
func addID(ids []uint64, id uint64) []uint64 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

// removeID removes id from ids if present, preserving the order of the
// remaining entries.
func removeID(ids []uint64, id uint64) []uint64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// withoutAll returns ids minus every entry in drop, preserving order.
func withoutAll(ids []uint64, drop []uint64) []uint64 {
	if len(drop) == 0 {
		return ids
	}
	skip := make(map[uint64]struct{}, len(drop))
	for _, d := range drop {
		skip[d] = struct{}{}
	}
	out := make([]uint64, 0, len(ids))
	for _, v := range ids {
		if _, ok := skip[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
