package kinds

const (
	length   = 64
	idLength = 8
	depthMax = length / idLength
	idMask   = (1 << idLength) - 1
)

// Bases returns the base ids folded into t, one per level beyond the first.
func Bases(t uint64) [depthMax]uint64 {
	var bases [depthMax]uint64
	for i := 1; i < depthMax; i++ {
		bases[i-1] = (t >> (idLength * i)) & idMask
	}
	return bases
}

// Kind composes id with every base id of bases, deduplicated.
func Kind(id uint64, bases ...uint64) uint64 {
	id = id & idMask
	ids := make(map[uint64]struct{})

	for _, base := range bases {
		for j := 0; j < depthMax; j++ {
			baseId := (base >> (idLength * j)) & idMask
			if baseId == 0 {
				break
			}
			if _, ok := ids[baseId]; !ok {
				ids[baseId] = struct{}{}
				id |= baseId << (idLength * len(ids))
			}
		}
	}
	return id
}

// IsKind reports whether kind is, or derives from, any of bases.
func IsKind(kind uint64, bases ...uint64) bool {
	for _, base := range bases {
		baseId := base & idMask
		if kind == baseId {
			return true
		}
		for i := 0; i < depthMax; i++ {
			currentId := (kind >> (idLength * i)) & idMask
			if currentId == baseId {
				return true
			}
		}
	}
	return false
}

var (
	Null        = Kind(0)
	Element     = Kind(1)
	Vertex      = Kind(2, Element)
	Behavior    = Kind(3, Element)
	Statechart  = Kind(4, Behavior)
	State       = Kind(5, Vertex)
	Pseudostate = Kind(6, Vertex)
	History     = Kind(7, Pseudostate)
	Placeholder = Kind(8, State)
	Transition  = Kind(9, Element)
	Route       = Kind(10, Transition)
	Event       = Kind(11, Element)
	Handler     = Kind(12, Behavior)
	Method      = Kind(13, Handler)
	Pattern     = Kind(14, Handler)
	Observe     = Kind(15, Behavior)
	Entry       = Kind(16, Behavior)
	Exit        = Kind(17, Behavior)
	Async       = Kind(18, Element)
)
