package assignment

// Diff compares the existing and desired agent sets of a program.
// toAdd holds the desired agents not yet assigned, toRemove the assigned agents no longer desired.
// Duplicates are ignored and both results keep the order of first occurrence.
func Diff(existing, desired []string) (toAdd, toRemove []string) {
	existingSet := toSet(existing)
	desiredSet := toSet(desired)

	seen := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := existingSet[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}

	seen = make(map[string]struct{}, len(existing))
	for _, id := range existing {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := desiredSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
