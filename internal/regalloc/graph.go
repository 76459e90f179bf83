// Package regalloc builds the interference graph for a finished
// symbol set and colors it greedily with non-negative integer
// registers. A small slice-backed adjacency structure is used in
// place of a graph library — see DESIGN.md.
package regalloc

import "github.com/neve-lang/nevec/internal/ir"

// ScratchBase is the first register number the emitter may use for
// values that never correspond to a Sym — the key/value temporaries it
// loads immediately before a TABLE_SET. Real coloring never reaches
// this high because every finished program's live-symbol count is
// small; the emitter is the only consumer of registers at or above it.
const ScratchBase = 200

// Vertex is one symbol's node in the interference graph.
type Vertex struct {
	Name     string
	Index    int
	Adjacent []*Vertex
	Reg      int

	unavailable []int
}

// nextReg assigns the smallest non-negative register not used by any
// already-colored neighbor.
func (v *Vertex) nextReg(candidate int) {
	if len(v.unavailable) == 0 {
		for _, n := range v.Adjacent {
			v.unavailable = append(v.unavailable, n.Reg)
		}
	}

	for _, used := range v.unavailable {
		if used == candidate {
			v.nextReg(candidate + 1)
			return
		}
	}

	v.Reg = candidate
}

func (v *Vertex) connect(to *Vertex) {
	v.Adjacent = append(v.Adjacent, to)
	to.Adjacent = append(to.Adjacent, v)
}

// Graph is the undirected interference graph over a final (post-
// cleanup) symbol set: an edge connects any two symbols whose
// lifetimes overlap.
type Graph struct {
	vertices map[string]*Vertex
}

// Build constructs the graph from syms, all of which must already
// carry a Lifetime — a post-cleanup invariant enforced upstream.
func Build(syms []*ir.Sym) *Graph {
	g := &Graph{vertices: make(map[string]*Vertex, len(syms))}

	for i, s := range syms {
		if s.Lifetime == nil {
			panic("regalloc: symbol " + s.FullName + " has no lifetime")
		}
		g.vertices[s.FullName] = &Vertex{Name: s.FullName, Index: i, Reg: -1}
	}

	g.drawEdges(syms)
	g.assignRegisters()

	return g
}

func (g *Graph) drawEdges(syms []*ir.Sym) {
	for i := 0; i < len(syms); i++ {
		for j := i + 1; j < len(syms); j++ {
			a, b := syms[i], syms[j]
			if a.Lifetime.Intersects(*b.Lifetime) {
				g.vertices[a.FullName].connect(g.vertices[b.FullName])
			}
		}
	}
}

func (g *Graph) assignRegisters() {
	// Creation order == the order `syms` was passed to Build, which in
	// turn is Syms.Values() — birth order.
	for _, v := range g.orderedVertices() {
		v.nextReg(0)
	}
}

func (g *Graph) orderedVertices() []*Vertex {
	out := make([]*Vertex, len(g.vertices))
	for _, v := range g.vertices {
		out[v.Index] = v
	}
	return out
}

// GetReg returns the register assigned to sym.
func (g *Graph) GetReg(sym *ir.Sym) int {
	v, ok := g.vertices[sym.FullName]
	if !ok {
		panic("regalloc: no vertex for symbol " + sym.FullName)
	}
	return v.Reg
}
