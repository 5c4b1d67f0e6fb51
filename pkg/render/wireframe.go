package render

import "sync"

// DrawEdge draws one wireframe edge between two pipeline vertices. The
// segment is cut at the near plane, clipped to the active region and drawn
// depth-tested. It reports whether anything remained to draw.
func (r *Rasterizer) DrawEdge(a, b Vertex, c Color) bool {
	a, b, ok := clipNear(a, b)
	if !ok {
		return false
	}
	p, q, ok := ClipLine(r.clip, a.Position.Vec3(), b.Position.Vec3())
	if !ok {
		return false
	}
	r.DrawLineZ(p, q, c)
	return true
}

// DrawTriangleEdges draws the three edges of a triangle.
func (r *Rasterizer) DrawTriangleEdges(tri [3]Vertex, c Color) {
	r.DrawEdge(tri[0], tri[1], c)
	r.DrawEdge(tri[1], tri[2], c)
	r.DrawEdge(tri[2], tri[0], c)
}

// Edge identifies an undirected mesh edge by its two vertex indices.
type Edge struct {
	A, B int
}

// MakeEdge returns the edge between two vertex indices in canonical order.
func MakeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// EdgeSet remembers the edges already drawn in a frame so that edges shared
// by neighboring triangles are drawn once. It is safe for concurrent use.
type EdgeSet struct {
	mu   sync.Mutex
	seen map[Edge]struct{}
}

// NewEdgeSet creates an empty edge set.
func NewEdgeSet() *EdgeSet {
	return &EdgeSet{seen: make(map[Edge]struct{})}
}

// Claim marks e as drawn and reports whether the caller is the first to
// claim it.
func (s *EdgeSet) Claim(e Edge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[e]; ok {
		return false
	}
	s.seen[e] = struct{}{}
	return true
}

// Len returns the number of claimed edges.
func (s *EdgeSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Reset forgets every edge, keeping the allocation.
func (s *EdgeSet) Reset() {
	s.mu.Lock()
	clear(s.seen)
	s.mu.Unlock()
}
