package detect

// FlagSet is a set of order ids that remembers insertion order.
type FlagSet struct {
	seen  map[int]struct{}
	order []int
}

func NewFlagSet() *FlagSet {
	return &FlagSet{seen: make(map[int]struct{})}
}

// Add inserts id and reports whether it was new.
func (f *FlagSet) Add(id int) bool {
	if _, ok := f.seen[id]; ok {
		return false
	}
	f.seen[id] = struct{}{}
	f.order = append(f.order, id)
	return true
}

// IDs returns a copy of the ids in the order they were first added.
func (f *FlagSet) IDs() []int {
	out := make([]int, len(f.order))
	copy(out, f.order)
	return out
}
