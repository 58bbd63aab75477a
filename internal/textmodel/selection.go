package textmodel

// Range is a selection between two boundary points, using DOM semantics: when a
// container is a text node the offset counts code units into its text, otherwise it
// is the index of the child the boundary sits before.
type Range struct {
	StartContainer Node
	StartOffset    int
	EndContainer   Node
	EndOffset      int
}

// Collapsed reports whether both boundary points are identical.
func (r Range) Collapsed() bool {
	return r.StartContainer == r.EndContainer && r.StartOffset == r.EndOffset
}

// Offsets is a half-open [Start, End) range of code units into a container's text.
type Offsets struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of code units covered.
func (o Offsets) Len() int {
	return o.End - o.Start
}

// Translate converts r into offsets relative to the concatenated text of container.
// The text may be split across any number of sibling or nested nodes; offsets are
// computed against the logical concatenation. It returns false when a boundary lies
// outside container, an offset is out of range, or the range is collapsed.
// Leading and trailing whitespace is kept as selected.
func Translate(container Node, r Range) (Offsets, bool) {
	if container == nil || r.StartContainer == nil || r.EndContainer == nil {
		return Offsets{}, false
	}
	if r.Collapsed() {
		return Offsets{}, false
	}

	start, ok := boundaryOffset(container, r.StartContainer, r.StartOffset)
	if !ok {
		return Offsets{}, false
	}
	end, ok := boundaryOffset(container, r.EndContainer, r.EndOffset)
	if !ok {
		return Offsets{}, false
	}
	if end <= start {
		return Offsets{}, false
	}
	return Offsets{Start: start, End: end}, true
}

// boundaryOffset walks root in order, counting code units until it reaches target.
func boundaryOffset(root, target Node, offset int) (int, bool) {
	if offset < 0 {
		return 0, false
	}

	count := 0
	result, found := 0, false

	var visit func(n Node) bool
	visit = func(n Node) bool {
		if n == target {
			if n.Kind() == TextNode {
				if offset <= Len(n.Data()) {
					result, found = count+offset, true
				}
				return true
			}
			children := n.Children()
			if offset <= len(children) {
				sub := 0
				for _, c := range children[:offset] {
					sub += Len(TextContent(c))
				}
				result, found = count+sub, true
			}
			return true
		}
		if n.Kind() == TextNode {
			count += Len(n.Data())
			return false
		}
		for _, c := range n.Children() {
			if visit(c) {
				return true
			}
		}
		return false
	}
	visit(root)

	return result, found
}

// Locate returns the boundary point inside container for an absolute offset: the
// text node holding it and the offset within that node. An offset on the seam of
// two text nodes resolves to the end of the earlier one.
func Locate(container Node, offset int) (Node, int, bool) {
	if container == nil || offset < 0 {
		return nil, 0, false
	}

	count := 0
	var node Node
	local := 0
	Walk(container, func(n Node) bool {
		if n.Kind() != TextNode {
			return true
		}
		l := Len(n.Data())
		if offset <= count+l {
			node, local = n, offset-count
			return false
		}
		count += l
		return true
	})
	if node != nil {
		return node, local, true
	}
	if offset == 0 {
		return container, 0, true
	}
	return nil, 0, false
}

// Select builds the range covering [start, end) of container's text.
func Select(container Node, start, end int) (Range, bool) {
	sc, so, ok := Locate(container, start)
	if !ok {
		return Range{}, false
	}
	ec, eo, ok := Locate(container, end)
	if !ok {
		return Range{}, false
	}
	return Range{StartContainer: sc, StartOffset: so, EndContainer: ec, EndOffset: eo}, true
}
