package migration

import "slices"

// Sort returns a new slice of migrations ordered by parsed sort key.
// The sort is stable to preserve input order for equal keys.
func Sort(migrations []Migration) []Migration {
	sorted := slices.Clone(migrations)

	slices.SortStableFunc(sorted, func(a, b Migration) int {
		return a.Key.Compare(b.Key)
	})

	return sorted
}
