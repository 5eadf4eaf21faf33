package sim

import (
	"github.com/san-kum/fessim/internal/dynamo"
	"github.com/san-kum/fessim/internal/fes"
	"github.com/san-kum/fessim/internal/schedule"
	"github.com/san-kum/fessim/internal/stim"
)

// NoControl drives exact models, which need no auxiliary input.
type NoControl struct{}

func (NoControl) Compute(x dynamo.State, node int, t float64) (dynamo.Control, error) {
	return nil, nil
}

// CnSumController feeds an approximated model with the exact summation term
// evaluated at the start of each grid interval and held over it.
type CnSumController struct {
	Model        fes.Model
	Grid         *schedule.Grid
	History      *stim.History
	Relationship *fes.Modifiers
}

func (c *CnSumController) Compute(x dynamo.State, node int, t float64) (dynamo.Control, error) {
	d := fes.Drive{
		History:      c.History,
		Window:       c.Grid.Window(node),
		Pinned:       true,
		Relationship: c.Relationship,
	}
	sum, err := c.Model.ExactCnSum(x, t, d)
	if err != nil {
		return nil, err
	}
	return dynamo.Control{sum}, nil
}
