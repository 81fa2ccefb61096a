package types

// EnvironmentReference is one environment variable access found in a source
// file. Start and End are byte offsets, End exclusive, covering the whole
// access expression (e.g. `process.env.API_URL`).
type EnvironmentReference struct {
	// Name is the accessed variable name
	Name string
	// Start is the offset of the first byte of the expression
	Start int
	// End is the offset just past the last byte of the expression
	End int
	// Variant is the access style the reference was written in
	Variant Variant
}

// VariableSet is an ordered set of variable names. Names keep the order in
// which they were first added.
type VariableSet struct {
	names []string
	seen  map[string]struct{}
}

// NewVariableSet creates a set holding the given names in order.
func NewVariableSet(names ...string) *VariableSet {
	s := &VariableSet{seen: make(map[string]struct{}, len(names))}
	s.Add(names...)
	return s
}

// Add appends names that are not yet part of the set.
func (s *VariableSet) Add(names ...string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := s.seen[name]; ok {
			continue
		}
		s.seen[name] = struct{}{}
		s.names = append(s.names, name)
	}
}

// Merge adds all names of other, preserving other's order.
func (s *VariableSet) Merge(other *VariableSet) {
	if other == nil {
		return
	}
	s.Add(other.names...)
}

// Names returns a copy of the names in discovery order.
func (s *VariableSet) Names() []string {
	result := make([]string, len(s.names))
	copy(result, s.names)
	return result
}

// Len returns the number of distinct names.
func (s *VariableSet) Len() int {
	return len(s.names)
}
