package triage

// Overlaps reports whether candidate's start or end falls strictly inside
// other's interval. The test is asymmetric: an interval nested inside the
// candidate, or one sharing both endpoints with it, does not count.
func Overlaps(candidate, other *Treatment) bool {
	start, end := Minutes(candidate.ArrivedAt), Minutes(candidate.CompleteBy)
	oStart, oEnd := Minutes(other.ArrivedAt), Minutes(other.CompleteBy)
	return (start > oStart && start < oEnd) || (end > oStart && end < oEnd)
}

// overlapping returns the set of ids of treatments on nurseID's column, other
// than the candidate, that the candidate overlaps.
func overlapping(treatments []*Treatment, candidate *Treatment, nurseID int) map[int]bool {
	ids := make(map[int]bool)
	for _, t := range treatments {
		if t.ID == candidate.ID || !t.AssignedToNurse(nurseID) {
			continue
		}
		if Overlaps(candidate, t) {
			ids[t.ID] = true
		}
	}
	return ids
}

// tile lays out every treatment for which member returns true side by side
// across the column, in store order, splitting it into size equal slots.
func tile(treatments []*Treatment, size int, member func(*Treatment) bool) {
	if size <= 0 {
		return
	}
	width := 100 / float64(size)
	slot := 0
	for _, t := range treatments {
		if !member(t) {
			continue
		}
		t.Width = Coord(width)
		t.X = Coord(float64(slot) * 100 / float64(size))
		slot++
	}
}
