package inference

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// newRand returns src, or a randomly seeded source when src is nil.
func newRand(src *rand.Rand) *rand.Rand {
	if src != nil {
		return src
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// sanitizeWeights replaces negative and NaN weights with zero and reports
// whether any positive mass remains.
func sanitizeWeights(w []float64) bool {
	total := 0.0
	for i, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			w[i] = 0
			continue
		}
		total += v
	}
	return total > 0
}

// sampler draws indices proportionally to weights. The weights need not be
// normalized.
type sampler struct {
	cat distuv.Categorical
}

// newSampler returns ok=false when the weights carry no mass.
func newSampler(weights []float64, src *rand.Rand) (sampler, bool) {
	if !sanitizeWeights(weights) {
		return sampler{}, false
	}
	return sampler{cat: distuv.NewCategorical(weights, src)}, true
}

func (s sampler) draw() int {
	return int(s.cat.Rand())
}

// emissionProb is the Gaussian sensor density of reading observed when the
// true distance is trueDist.
func emissionProb(trueDist, std, observed float64) float64 {
	return distuv.Normal{Mu: trueDist, Sigma: std}.Prob(observed)
}
