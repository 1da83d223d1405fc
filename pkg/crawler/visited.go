package crawler

// VisitedSet records the URLs fetched during one crawl. It only grows and
// never holds a URL twice. It is owned by a single Crawl call and is not
// safe for concurrent use.
type VisitedSet struct {
	seen  map[string]struct{}
	order []string
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// Add marks u as visited. It returns false if u was already present.
func (v *VisitedSet) Add(u string) bool {
	if _, ok := v.seen[u]; ok {
		return false
	}
	v.seen[u] = struct{}{}
	v.order = append(v.order, u)
	return true
}

// Contains reports whether u was visited.
func (v *VisitedSet) Contains(u string) bool {
	_, ok := v.seen[u]
	return ok
}

// Len returns the number of visited URLs.
func (v *VisitedSet) Len() int { return len(v.order) }

// List returns the visited URLs in visit order.
func (v *VisitedSet) List() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}
