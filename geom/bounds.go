package geom

// Bounds is an axis-aligned box over integer chunk-grid cells. Lower is
// inclusive, Upper exclusive. A bounds whose Lower exceeds Upper on any axis
// is inverted and contributes no cells.
type Bounds struct {
	Lower [3]int32
	Upper [3]int32
}

// Valid reports whether the bounds are well formed (Lower <= Upper
// componentwise).
func (b Bounds) Valid() bool {
	for i := 0; i < 3; i++ {
		if b.Lower[i] > b.Upper[i] {
			return false
		}
	}
	return true
}

// Volume returns the number of cells in b, or 0 for inverted bounds.
func (b Bounds) Volume() int64 {
	v := int64(1)
	for i := 0; i < 3; i++ {
		extent := int64(b.Upper[i]) - int64(b.Lower[i])
		if extent <= 0 {
			return 0
		}
		v *= extent
	}
	return v
}

// Contains reports whether b fully contains other.
func (b Bounds) Contains(other Bounds) bool {
	for i := 0; i < 3; i++ {
		if b.Lower[i] > other.Lower[i] || b.Upper[i] < other.Upper[i] {
			return false
		}
	}
	return true
}

// Disjoint reports whether b and other share no cell.
func (b Bounds) Disjoint(other Bounds) bool {
	for i := 0; i < 3; i++ {
		if b.Lower[i] >= other.Upper[i] || b.Upper[i] <= other.Lower[i] {
			return true
		}
	}
	return false
}

func Intersect(a Bounds, b Bounds) Bounds {
	result := a
	for i := 0; i < 3; i++ {
		if b.Lower[i] > result.Lower[i] {
			result.Lower[i] = b.Lower[i]
		}
		if b.Upper[i] < result.Upper[i] {
			result.Upper[i] = b.Upper[i]
		}
	}
	return result
}

func Union(a Bounds, b Bounds) Bounds {
	result := a
	for i := 0; i < 3; i++ {
		if b.Lower[i] < result.Lower[i] {
			result.Lower[i] = b.Lower[i]
		}
		if b.Upper[i] > result.Upper[i] {
			result.Upper[i] = b.Upper[i]
		}
	}
	return result
}
