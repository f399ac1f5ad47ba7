package scene

// Mapper binds a Source's output to an Actor.
type Mapper struct {
	input Source
}

// NewMapper creates a mapper reading from src.
func NewMapper(src Source) *Mapper {
	return &Mapper{input: src}
}

// SetInput rewires the mapper to another source.
func (m *Mapper) SetInput(src Source) {
	m.input = src
}

// Input returns the bound source, or nil.
func (m *Mapper) Input() Source {
	return m.input
}

// PolyData returns the geometry of the bound source, or nil when unbound.
func (m *Mapper) PolyData() *PolyData {
	if m == nil || m.input == nil {
		return nil
	}
	return m.input.Output()
}
