package trace

// ColorRegistry assigns a stable, round-robin color to each named participant
// the first time it is seen within a session context.
type ColorRegistry struct {
	palette  []string
	assigned map[string]string
	next     int
}

// NewColorRegistry creates a registry cycling through palette. An empty
// palette falls back to DefaultPalette.
func NewColorRegistry(palette []string) *ColorRegistry {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &ColorRegistry{
		palette:  append([]string(nil), palette...),
		assigned: make(map[string]string),
	}
}

// Color returns the color of name, assigning the next palette entry on first
// sight.
func (r *ColorRegistry) Color(name string) string {
	if c, ok := r.assigned[name]; ok {
		return c
	}
	c := r.palette[r.next%len(r.palette)]
	r.next++
	r.assigned[name] = c
	return c
}

// Lookup returns the color of name without assigning one.
func (r *ColorRegistry) Lookup(name string) (string, bool) {
	c, ok := r.assigned[name]
	return c, ok
}

// Len returns the number of assigned names.
func (r *ColorRegistry) Len() int { return len(r.assigned) }

// Reset forgets every assignment and restarts the palette.
func (r *ColorRegistry) Reset() {
	r.assigned = make(map[string]string)
	r.next = 0
}
