package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// minPenalty keeps the penalised normal equations positive definite when a
// prior is flat or the noise estimate collapses to zero.
const minPenalty = 1e-8

// estimate returns the MAP coefficients of y ~ X under independent zero-mean
// Gaussian priors with the given standard deviations. The noise variance is
// estimated from a first pass that assumes unit noise.
func estimate(X [][]float64, y []float64, priors []float64) ([]float64, error) {
	n, p := len(X), len(priors)
	if n == 0 || p == 0 {
		return nil, errors.New("empty design matrix")
	}
	data := make([]float64, 0, n*p)
	for i, row := range X {
		if len(row) != p {
			return nil, fmt.Errorf("design row %d has %d columns, want %d", i, len(row), p)
		}
		data = append(data, row...)
	}
	design := mat.NewDense(n, p, data)
	target := mat.NewVecDense(n, y)

	var gram mat.SymDense
	gram.SymOuterK(1, design.T())
	var rhs mat.VecDense
	rhs.MulVec(design.T(), target)

	beta, err := solvePenalised(&gram, &rhs, priors, 1)
	if err != nil {
		return nil, err
	}

	var fitted mat.VecDense
	fitted.MulVec(design, beta)
	var sse float64
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		sse += r * r
	}
	sigma2 := sse / float64(n)

	beta, err = solvePenalised(&gram, &rhs, priors, sigma2)
	if err != nil {
		return nil, err
	}
	return beta.RawVector().Data, nil
}

func solvePenalised(gram *mat.SymDense, rhs *mat.VecDense, priors []float64, sigma2 float64) (*mat.VecDense, error) {
	p := len(priors)
	a := mat.NewSymDense(p, nil)
	a.CopySym(gram)
	for j, s := range priors {
		penalty := minPenalty
		if !math.IsInf(s, 1) {
			penalty = math.Max(sigma2/(s*s), minPenalty)
		}
		a.SetSym(j, j, a.At(j, j)+penalty)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, errors.New("design matrix is not positive definite")
	}
	beta := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(beta, rhs); err != nil {
		// A Condition error still carries a solution; only the accuracy
		// warning is dropped.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solve normal equations: %w", err)
		}
	}
	return beta, nil
}
