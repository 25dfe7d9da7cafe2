// Package irt implements the three-parameter logistic response model and the
// regularized maximum-likelihood ability estimator used for adaptive testing.
package irt

import "math"

// Ability scale bounds and the starting point of every session.
const (
	MinTheta     = -3.0
	MaxTheta     = 3.0
	InitialTheta = 0.0
	InitialSE    = 1.0
)

// ItemParams holds the calibrated 3PL parameters of a test item.
type ItemParams struct {
	A float64 `json:"discrimination"` // > 0
	B float64 `json:"difficulty"`
	C float64 `json:"guessing"` // in [0, 1)
}

// ProbabilityCorrect returns P(correct | theta) under the 3PL model.
func ProbabilityCorrect(theta float64, p ItemParams) float64 {
	z := p.A * (theta - p.B)
	return p.C + (1-p.C)/(1+math.Exp(-z))
}

// ItemInformation returns the Fisher information the item carries at theta.
func ItemInformation(theta float64, p ItemParams) float64 {
	prob := ProbabilityCorrect(theta, p)
	q := 1 - prob

	var dp float64
	if p.C < 1 {
		dp = p.A * (prob - p.C) * (1 - prob) / (1 - p.C)
	}

	if prob > 0 && q > 0 {
		return dp * dp / (prob * q)
	}
	return 0
}

// ThetaToPercentile maps theta onto the standard normal CDF scaled to 0-100.
func ThetaToPercentile(theta float64) float64 {
	return 50 * (1 + math.Erf(theta/math.Sqrt2))
}

// Percentile is ThetaToPercentile rounded to the nearest whole number.
func Percentile(theta float64) int {
	return int(math.Round(ThetaToPercentile(theta)))
}

// RawScore rescales theta from [-3, 3] to [0, 100].
func RawScore(theta float64) float64 {
	return (theta - MinTheta) / (MaxTheta - MinTheta) * 100
}

// Clamp limits theta to the reportable ability range.
func Clamp(theta float64) float64 {
	return math.Max(MinTheta, math.Min(MaxTheta, theta))
}
