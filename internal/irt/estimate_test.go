package irt

import (
	"math"
	"testing"
)

func TestEstimateAbility_EmptyReturnsPrior(t *testing.T) {
	for _, prior := range []float64{0, 1.25, -2.5} {
		est := EstimateAbility(nil, prior)
		if est.Theta != prior || est.SE != 1.0 {
			t.Errorf("prior %v: got (%v, %v), want (%v, 1.0)", prior, est.Theta, est.SE, prior)
		}
		if est.Iterations != 0 {
			t.Errorf("prior %v: iterations = %d, want 0", prior, est.Iterations)
		}
	}
}

func TestEstimateAbility_DirectionOfFirstResponse(t *testing.T) {
	item := ItemParams{A: 1, B: 0, C: 0}

	up := EstimateAbility([]Observation{{Params: item, Correct: true}}, 0)
	if up.Theta <= 0 {
		t.Errorf("correct answer moved theta to %f, want > 0", up.Theta)
	}
	down := EstimateAbility([]Observation{{Params: item, Correct: false}}, 0)
	if down.Theta >= 0 {
		t.Errorf("incorrect answer moved theta to %f, want < 0", down.Theta)
	}
	if math.Abs(up.Theta+down.Theta) > 1e-6 {
		t.Errorf("symmetric item should give symmetric estimates: %f vs %f", up.Theta, down.Theta)
	}
	if up.SE >= 1 {
		t.Errorf("SE = %f, want < 1 after one item", up.SE)
	}
}

func TestEstimateAbility_ExtraCorrectNeverLowersTheta(t *testing.T) {
	base := [][]Observation{
		{
			{Params: ItemParams{A: 1, B: 0, C: 0}, Correct: true},
			{Params: ItemParams{A: 1, B: 1, C: 0}, Correct: false},
		},
		{
			{Params: ItemParams{A: 1.4, B: -0.5, C: 0.2}, Correct: false},
			{Params: ItemParams{A: 0.8, B: 0.3, C: 0.25}, Correct: false},
			{Params: ItemParams{A: 2.0, B: -1.0, C: 0}, Correct: true},
		},
		{
			{Params: ItemParams{A: 1.1, B: 0.4, C: 0.1}, Correct: true},
		},
	}
	extras := []ItemParams{
		{A: 1, B: 0.5, C: 0},
		{A: 2, B: -1, C: 0.2},
		{A: 0.6, B: 2, C: 0},
	}

	for i, obs := range base {
		before := EstimateAbility(obs, 0).Theta
		for _, extra := range extras {
			more := append(append([]Observation{}, obs...), Observation{Params: extra, Correct: true})
			after := EstimateAbility(more, 0).Theta
			if after < before-1e-9 {
				t.Errorf("case %d extra %+v: theta %f dropped below %f", i, extra, after, before)
			}
		}
	}
}

func TestEstimateAbility_ClampsToRange(t *testing.T) {
	var obs []Observation
	for i := 0; i < 200; i++ {
		obs = append(obs, Observation{Params: ItemParams{A: 2.5, B: 2.8, C: 0}, Correct: true})
	}
	est := EstimateAbility(obs, 2.5)
	if est.Theta > MaxTheta || est.Theta < MinTheta {
		t.Errorf("theta %f outside [%v, %v]", est.Theta, MinTheta, MaxTheta)
	}
	if est.SE <= 0 {
		t.Errorf("SE = %f, want > 0", est.SE)
	}
}

func TestEstimateAbility_SaturatedItemsDoNotFail(t *testing.T) {
	// Items so easy that P rounds to 1 at the starting theta.
	obs := []Observation{
		{Params: ItemParams{A: 50, B: -40, C: 0}, Correct: true},
		{Params: ItemParams{A: 50, B: -40, C: 0}, Correct: false},
	}
	est := EstimateAbility(obs, 0)
	if math.IsNaN(est.Theta) || math.IsNaN(est.SE) {
		t.Fatalf("estimate is NaN: %+v", est)
	}
	if est.SE <= 0 || est.SE > 1 {
		t.Errorf("SE = %f, want in (0, 1]", est.SE)
	}
}

func TestEstimateAbility_MissOnSaturatedItemLowersTheta(t *testing.T) {
	// P is exactly 1 at theta 0, so the residual is -1 with no curvature.
	obs := []Observation{{Params: ItemParams{A: 50, B: -40, C: 0}, Correct: false}}
	est := EstimateAbility(obs, 0)
	if math.Abs(est.Theta+1) > 1e-9 {
		t.Errorf("theta = %f, want -1", est.Theta)
	}
	if !est.Converged {
		t.Error("expected convergence once the prior balances the residual")
	}
}

func TestEstimateAbility_IterationCap(t *testing.T) {
	obs := []Observation{
		{Params: ItemParams{A: 1.3, B: 0.2, C: 0.2}, Correct: true},
		{Params: ItemParams{A: 0.9, B: -0.4, C: 0.1}, Correct: false},
		{Params: ItemParams{A: 1.8, B: 0.9, C: 0}, Correct: true},
	}
	est := EstimateAbility(obs, -2)
	if est.Iterations < 1 || est.Iterations > 20 {
		t.Errorf("iterations = %d, want within [1, 20]", est.Iterations)
	}
	again := EstimateAbility(obs, -2)
	if est != again {
		t.Errorf("estimation is not deterministic: %+v vs %+v", est, again)
	}
}

func TestStandardError_MatchesInformation(t *testing.T) {
	obs := []Observation{
		{Params: ItemParams{A: 2, B: 0, C: 0}},
		{Params: ItemParams{A: 2, B: 0, C: 0}},
		{Params: ItemParams{A: 2, B: 0, C: 0}},
	}
	// Each item gives a²/4 = 1 at theta == b, plus the prior's 1.
	got := StandardError(0, obs)
	want := 1 / math.Sqrt(4)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("SE = %f, want %f", got, want)
	}
}
