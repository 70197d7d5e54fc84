package fixture

// Mode identifies how a bake was started. Each mode has its own default
// record count.
type Mode int

const (
	// ModeSingle bakes one named model.
	ModeSingle Mode = iota
	// ModeBatch bakes every table of a connection.
	ModeBatch
	// ModeSample copies records from the live table.
	ModeSample
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeBatch:
		return "batch"
	case ModeSample:
		return "sample"
	}
	return "unknown"
}

// DefaultCount resolves the number of records for a bake. An explicit
// count wins; otherwise single bakes produce one record and batch or
// sampled bakes produce ten.
func DefaultCount(mode Mode, explicit *int) int {
	if explicit != nil {
		return *explicit
	}
	if mode == ModeSingle {
		return 1
	}
	return 10
}
