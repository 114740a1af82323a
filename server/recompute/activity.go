package recompute

// Activity tracks which known teams played in the most recently processed
// season. It only drives the ranking list's active filter.
type Activity struct {
	flags map[int64]bool
}

func NewActivity() *Activity { return &Activity{flags: make(map[int64]bool)} }

// MarkSeason sets every known team active iff it played this season. Teams
// not in known are left untouched.
func (a *Activity) MarkSeason(played map[int64]struct{}, known []int64) {
	for _, id := range known {
		_, ok := played[id]
		a.flags[id] = ok
	}
}

// Flags returns a copy of the current flags.
func (a *Activity) Flags() map[int64]bool {
	out := make(map[int64]bool, len(a.flags))
	for id, v := range a.flags {
		out[id] = v
	}
	return out
}
