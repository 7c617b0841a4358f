package market

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// declineModel is a two-feature logistic regression estimating the
// probability that an industry sits past a confirmed top. It is fitted on
// the overall trend and the industry crossover state, with confirmed
// turning points as labels, pooled across every industry.
type declineModel struct {
	intercept float64
	wTrend    float64
	wState    float64
}

// declineRidge is the L2 penalty on the weights. It keeps the Newton solve
// stable when the classes are nearly separable.
const declineRidge = 1.0

// fitDeclineModel fits the model by Newton's method on the penalized
// log-likelihood. It needs samples from both classes.
func fitDeclineModel(features [][2]float64, labels []float64) (*declineModel, error) {
	n := len(features)
	if n == 0 {
		return nil, fmt.Errorf("no samples to fit")
	}
	positives := 0
	for _, y := range labels {
		if y == 1 {
			positives++
		}
	}
	if positives == 0 || positives == n {
		return nil, fmt.Errorf("need both classes, got %d positives of %d samples", positives, n)
	}

	beta := mat.NewVecDense(3, nil)
	xi := mat.NewVecDense(3, nil)
	for iter := 0; iter < 50; iter++ {
		grad := mat.NewVecDense(3, nil)
		hess := mat.NewDense(3, 3, nil)
		for i, f := range features {
			xi.SetVec(0, 1)
			xi.SetVec(1, f[0])
			xi.SetVec(2, f[1])
			p := sigmoid(mat.Dot(xi, beta))
			grad.AddScaledVec(grad, labels[i]-p, xi)
			w := p * (1 - p)
			for r := 0; r < 3; r++ {
				for c := 0; c < 3; c++ {
					hess.Set(r, c, hess.At(r, c)+w*xi.AtVec(r)*xi.AtVec(c))
				}
			}
		}
		// Penalize the weights, not the intercept.
		for k := 1; k < 3; k++ {
			grad.SetVec(k, grad.AtVec(k)-declineRidge*beta.AtVec(k))
			hess.Set(k, k, hess.At(k, k)+declineRidge)
		}

		var step mat.VecDense
		if err := step.SolveVec(hess, grad); err != nil {
			return nil, fmt.Errorf("failed to solve newton step: %w", err)
		}
		beta.AddVec(beta, &step)
		if mat.Norm(&step, math.Inf(1)) < 1e-9 {
			break
		}
	}

	return &declineModel{
		intercept: beta.AtVec(0),
		wTrend:    beta.AtVec(1),
		wState:    beta.AtVec(2),
	}, nil
}

// Proba returns the decline probability for one observation. NaN inputs
// propagate to a NaN probability.
func (m *declineModel) Proba(trend, state float64) float64 {
	return sigmoid(m.intercept + m.wTrend*trend + m.wState*state)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
