package schedule

import (
	"math/big"

	"github.com/san-kum/fessim/internal/stim"
)

// Grid maps each of the Nodes+1 node times to the stimulations in effect there.
type Grid struct {
	Nodes      int
	Truncation int
	Times      []float64

	horizon  *big.Rat
	stimNode []int
	last     []int
}

// Grid builds the node mapping in one pass over nodes and stimulations.
// truncation <= 0 keeps every preceding stimulation.
func (p *Plan) Grid(truncation int) *Grid {
	g := &Grid{
		Nodes:      p.Nodes,
		Truncation: truncation,
		Times:      make([]float64, p.Nodes+1),
		horizon:    p.Horizon,
		stimNode:   make([]int, len(p.Stims)),
		last:       make([]int, p.Nodes+1),
	}

	for j := range p.Stims {
		g.stimNode[j] = p.StimNode(j)
	}

	j := 0
	for i := 0; i <= p.Nodes; i++ {
		g.Times[i], _ = g.NodeRat(i).Float64()
		for j < len(g.stimNode) && g.stimNode[j] <= i {
			j++
		}
		g.last[i] = j - 1
	}
	return g
}

// NodeRat is the exact time of node i.
func (g *Grid) NodeRat(i int) *big.Rat {
	r := new(big.Rat).SetFrac64(int64(i), int64(g.Nodes))
	return r.Mul(r, g.horizon)
}

func (g *Grid) NodeTime(i int) float64 { return g.Times[i] }

// Step is the uniform node spacing in seconds.
func (g *Grid) Step() float64 {
	r := new(big.Rat).Quo(g.horizon, new(big.Rat).SetInt64(int64(g.Nodes)))
	f, _ := r.Float64()
	return f
}

// StimNode returns the node index of stimulation j.
func (g *Grid) StimNode(j int) int { return g.stimNode[j] }

// IsStimNode reports whether a stimulation lands on node i.
func (g *Grid) IsStimNode(i int) bool {
	l := g.last[i]
	return l >= 0 && g.stimNode[l] == i
}

// Last is the index of the most recent stimulation at or before node i, or -1.
func (g *Grid) Last(i int) int { return g.last[i] }

// Window is the truncated set of stimulations in effect at node i.
func (g *Grid) Window(i int) stim.Window {
	return stim.Clip(g.last[i], g.Truncation)
}

// Active lists the stimulation indices in effect at node i, oldest first.
func (g *Grid) Active(i int) []int {
	return g.Window(i).Indices()
}

// Full is the untruncated window at node i.
func (g *Grid) Full(i int) stim.Window {
	return stim.Clip(g.last[i], stim.NoTruncation)
}
