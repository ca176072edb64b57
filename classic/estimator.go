package classic

import (
	"math"

	"github.com/criteo/vertica-hyperloglog/internal/bias"
)

// alpha returns the bias constant for a given precision, special-casing
// precisions 4, 5 and 6 and falling back to the general formula otherwise.
func alpha(precision uint8, m int) float64 {
	switch precision {
	case 4:
		return 0.673
	case 5:
		return 0.697
	case 6:
		return 0.709
	default:
		return 0.7213 / (1.0 + 1.079/float64(m))
	}
}

// rawEstimate computes the classic Flajolet-Martin harmonic-mean estimate:
// E = alpha_m * m^2 / sum_j(2^-M[j]).
func rawEstimate(r Registers, precision uint8) uint64 {
	m := r.Len()
	harmonicMean := 0.0
	for _, v := range r.buf {
		harmonicMean += 1.0 / float64(uint64(1)<<v)
	}
	harmonicMean = float64(m) / harmonicMean
	return uint64(math.Round(alpha(precision, m) * harmonicMean * float64(m)))
}

// beta evaluates the LogLog-Beta correction polynomial at zInput (the
// count of empty registers), per https://arxiv.org/abs/1612.02284.
func beta(zInput uint64, precision uint8) float64 {
	if zInput == 0 {
		return 0
	}
	coeffs := bias.Beta(precision)
	result := coeffs[0] * float64(zInput)
	zl := math.Log(float64(zInput) + 1)
	zlPow := 1.0
	for i := 1; i < len(coeffs); i++ {
		zlPow *= zl
		result += zlPow * coeffs[i]
	}
	return result
}

// betaEstimate computes the LogLog-Beta cardinality estimate.
func betaEstimate(r Registers, precision uint8) uint64 {
	m := r.Len()
	harmonicMean := 0.0
	zeroes := uint64(0)
	for _, v := range r.buf {
		if v == 0 {
			zeroes++
		}
		harmonicMean += 1.0 / float64(uint64(1)<<v)
	}
	harmonicMean = float64(m) / (harmonicMean + beta(zeroes, precision))
	return uint64(math.Round(alpha(precision, m) * harmonicMean * float64(m-int(zeroes))))
}

// compositeEstimate is the HLL++ decision tree: bias-corrected when the raw
// estimate sits in the range where the HyperLogLog estimator is known to be
// biased, linear-counting when the number of empty registers implies a low
// cardinality, raw otherwise.
func compositeEstimate(r Registers, precision uint8) uint64 {
	m := r.Len()
	e := rawEstimate(r, precision)

	biasCorrectedThreshold := uint64(m) * 5
	lcThreshold := bias.Threshold(precision)

	var ee uint64
	if e <= biasCorrectedThreshold {
		ee = uint64(math.Round(bias.EstimateBias(float64(e), precision, 6)))
	} else {
		ee = e
	}

	empty := r.NumEmptyRegisters()
	var h uint64
	if empty != 0 {
		v := float64(m) / float64(empty)
		h = uint64(math.Round(float64(m) * math.Log(v)))
	} else {
		h = ee
	}

	if h <= lcThreshold {
		return h
	}
	return ee
}
