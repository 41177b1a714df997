package forum

import "sort"

// Less reports whether a is displayed before b: lower status rank first,
// then newer timestamp first.
func Less(a, b Question) bool {
	if ra, rb := a.Status.Rank(), b.Status.Rank(); ra != rb {
		return ra < rb
	}
	return a.Timestamp.After(b.Timestamp.Time)
}

// Sort orders questions in place. Equal keys keep their relative order.
func Sort(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return Less(questions[i], questions[j])
	})
}

// IsSorted reports whether questions already satisfy the display order.
func IsSorted(questions []Question) bool {
	return sort.SliceIsSorted(questions, func(i, j int) bool {
		return Less(questions[i], questions[j])
	})
}
