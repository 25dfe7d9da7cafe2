package irt

import "math"

const (
	maxIterations    = 20
	minDenominator   = 1e-4
	convergenceDelta = 1e-3
)

// Observation is one scored response paired with the parameters of the item
// it answered.
type Observation struct {
	Params  ItemParams
	Correct bool
}

// Estimate is the result of an ability estimation.
type Estimate struct {
	Theta      float64
	SE         float64
	Iterations int
	// Converged is false when the iteration cap or the instability guard
	// ended the search. Theta is still the best value reached.
	Converged bool
}

// EstimateAbility runs Newton-Raphson on the 3PL log-likelihood with a
// standard normal prior centered at zero, starting from priorTheta.
//
// With no observations the prior is returned unchanged with the initial SE.
// Numeric trouble never produces an error: an observation whose probability
// rounds to 0 is skipped for that iteration, and a vanishing or non-finite
// step ends the search with the current estimate. A probability of 1 still
// contributes its residual, so a miss on a saturated item pulls theta down.
func EstimateAbility(obs []Observation, priorTheta float64) Estimate {
	if len(obs) == 0 {
		return Estimate{Theta: priorTheta, SE: InitialSE, Converged: true}
	}

	theta := priorTheta
	est := Estimate{}

	for iter := 0; iter < maxIterations; iter++ {
		est.Iterations = iter + 1

		var num, den float64
		for _, o := range obs {
			p := ProbabilityCorrect(theta, o.Params)
			if p <= 0 {
				continue
			}
			q := 1 - p

			w := o.Params.A
			if o.Params.C < 1 {
				w = o.Params.A * (p - o.Params.C) / (p * (1 - o.Params.C))
			}

			u := 0.0
			if o.Correct {
				u = 1
			}
			num += w * (u - p)
			den += w * w * p * q
		}

		// Standard normal prior.
		num -= theta
		den += 1

		if math.Abs(den) < minDenominator {
			break
		}

		delta := num / den
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			break
		}
		theta += delta

		if math.Abs(delta) < convergenceDelta {
			est.Converged = true
			break
		}
	}

	est.Theta = Clamp(theta)
	est.SE = StandardError(est.Theta, obs)
	return est
}

// StandardError returns 1/sqrt(total information) at theta, counting the
// prior's unit precision.
func StandardError(theta float64, obs []Observation) float64 {
	info := 1.0
	for _, o := range obs {
		info += ItemInformation(theta, o.Params)
	}
	if info <= 0 || math.IsNaN(info) {
		return InitialSE
	}
	return 1 / math.Sqrt(info)
}
