package store

// Section defines a top-level partition of the tree.
type Section struct {
	// Name is the path segment of the section (e.g., "recycling").
	Name string

	// Title is the human-readable name shown in listings (e.g., "Recycling tips").
	Title string
}

// Registry holds the sections an application stores entries in.
type Registry struct {
	sections []Section
	byName   map[string]Section
}

// NewRegistry creates a new empty Registry.
func NewRegistry(sections ...Section) *Registry {
	r := &Registry{
		sections: []Section{},
		byName:   make(map[string]Section),
	}
	for _, s := range sections {
		r.Register(s)
	}
	return r
}

// Register adds a section to the registry. Registering a name again replaces its title.
// This should be called during setup, before the registry is shared.
func (r *Registry) Register(sec Section) {
	if _, ok := r.byName[sec.Name]; ok {
		for i := range r.sections {
			if r.sections[i].Name == sec.Name {
				r.sections[i] = sec
			}
		}
	} else {
		r.sections = append(r.sections, sec)
	}
	r.byName[sec.Name] = sec
}

// Lookup returns the section registered under name.
func (r *Registry) Lookup(name string) (Section, bool) {
	sec, ok := r.byName[name]
	return sec, ok
}

// Has returns true if the section is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Sections returns all registered sections in registration order.
func (r *Registry) Sections() []Section {
	return r.sections
}
