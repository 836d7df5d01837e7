package domain

// Changed lists the domains whose slice differs between prev and next.
// Reducers share unchanged slices, so pointer identity is enough.
// If prev is nil, every domain present in next is reported.
func Changed(prev, next *Snapshot) []Domain {
	if next == nil {
		return nil
	}

	var changed []Domain
	for _, d := range Domains {
		if prev == nil || prev.Slice(d) != next.Slice(d) {
			changed = append(changed, d)
		}
	}
	return changed
}
