package ast

import "strconv"

// PathSegment is one dotted or indexed step of an AttributePath, e.g. the
// `items` then `[2]` in `items[2]`.
type PathSegment struct {
	Name     string
	Index    int
	HasIndex bool
}

// AttributePath is a dotted attribute reference with optional [index] list
// addressing (spec.md §3). Reserved-word escaping happens later, in the
// expression compiler, not here.
type AttributePath struct {
	Segments []PathSegment
}

// NewPath starts a path at a top-level attribute name.
func NewPath(name string) AttributePath {
	return AttributePath{Segments: []PathSegment{{Name: name}}}
}

// Append returns a copy of p with a further `.name` segment.
func (p AttributePath) Append(name string) AttributePath {
	segs := append(append([]PathSegment{}, p.Segments...), PathSegment{Name: name})
	return AttributePath{Segments: segs}
}

// AppendIndex returns a copy of p with a `[idx]` applied to its last segment.
func (p AttributePath) AppendIndex(idx int) AttributePath {
	segs := append([]PathSegment{}, p.Segments...)
	if len(segs) > 0 {
		segs[len(segs)-1].HasIndex = true
		segs[len(segs)-1].Index = idx
	}
	return AttributePath{Segments: segs}
}

// Root returns the top-level attribute name, used by the semantic analyzer
// to check key/attribute usage.
func (p AttributePath) Root() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[0].Name
}

// IsSimple reports whether the path is a single, unindexed top-level
// attribute — the only shape DynamoDB allows in a key condition.
func (p AttributePath) IsSimple() bool {
	return len(p.Segments) == 1 && !p.Segments[0].HasIndex
}

// String renders the path in DQL surface syntax, e.g. `a.b[2].c`.
func (p AttributePath) String() string {
	var out string
	for i, seg := range p.Segments {
		if i > 0 {
			out += "."
		}
		out += seg.Name
		if seg.HasIndex {
			out += "[" + strconv.Itoa(seg.Index) + "]"
		}
	}
	return out
}
