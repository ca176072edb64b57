// Package bias holds the numeric tables the Classic estimator blends
// between: the LogLog-Beta polynomial coefficients and the linear-counting
// crossover thresholds, both transcribed verbatim from the reference
// engine, plus a synthesized HLL++ bias-correction curve (see ForPrecision
// below for why it is synthesized rather than transcribed).
package bias

import "math"

// MinPrecision and MaxPrecision bound every precision-indexed table below;
// index 0 of each table corresponds to MinPrecision.
const (
	MinPrecision = 4
	MaxPrecision = 18
	numPrecision = MaxPrecision - MinPrecision + 1
)

// BetaCoeffs holds the eight LogLog-Beta polynomial coefficients per
// precision, transcribed verbatim from the reference engine's beta
// constant table (precision 4 at index 0 through precision 18 at index 14).
var BetaCoeffs = [numPrecision][8]float64{
	{129.811426122, -127.758849345, -144.856462515, 185.084979526, -13.2281686587, 43.5841078986, -383.603665383, 154.492845304},
	{-13.0055889181, 8.58672362771, 9.72695761533, 16.5156287003, -17.0875475369, -4.31703226621, 10.912981826, -3.12448718477},
	{1733.13875391, -1699.65637955, -1001.35164911, -79.5001457157, -232.449115309, 48.0467680133, -13.4033856565, 0.0432949807375},
	{-683.172241152, 699.316157869, 275.507508944, 219.266866262, -57.9057954518, 44.5955453694, -8.46896092799, 1.1725158865},
	{-19.2122824148, 16.5377254144, 12.9159210689, 5.15486460551, -3.55567694845, 2.41367059785, -0.485452949344, 0.0512917786702},
	{-4.85617520421, 3.35826651543, 2.90853842731, 2.93901916626, -2.37054651785, 1.1737214086, -0.22118210602, 0.0191092511669},
	{-3.11898253134, 9.25125002906, -17.8005229174, 21.5341553715, -10.8362087112, 3.00000412385, -0.408463351115, 0.0245033071993},
	{-0.172965890626, -8.81246455315, 21.0409860425, -16.7375649792, 6.44544077588, -1.30921425783, 0.136002575029, -0.0058234826948},
	{-0.356378277813, 3.24074126277, -5.90931639379, 4.23324241571, -1.3182929368, 0.208792006071, -0.0152184183956, 0.000471786845185},
	{-0.382200101569, 1.80366843702, -2.96538207991, 2.36112694627, -0.822043918775, 0.158042001067, -0.0150086424267, 0.000708114274487},
	{-3.70393914146161e-01, 7.04718232678681e-02, 1.73936855679645e-01, 1.63398393221669e-01, -9.23774466279541e-02, 3.73802699931568e-02, -5.38415897770915e-03, 4.24187633936774e-04},
	{-0.560387006169, 59.8108631214, -120.370073477, 86.0699330472, -28.9537963009, 5.03900955483, -0.439967193352, 0.0157440364892},
	{-0.391416234743, 1.85229689725, -8.882746972, 7.48086624254, -2.80472962045, 0.568918604145, -0.0583909163033, 0.00261029795878},
	{-0.339120524001, -72.1994426957, 113.185471625, -62.8282169476, 16.6562758098, -2.26144354617, 0.150939847827, -0.0036642817302},
	{-0.372494978401, 39.9302213478, -69.8219564407, 43.7971215279, -13.1312309526, 2.0820456299, -0.1696126329, 0.00591592212173},
}

// LinearCountingThreshold is the crossover below which the HLL++ composite
// estimator defers entirely to linear counting, indexed the same way as
// BetaCoeffs. Transcribed verbatim from the reference engine's threshold
// table.
var LinearCountingThreshold = [numPrecision]uint64{
	10, 20, 40, 80, 220, 400, 900, 1800, 3100, 6500, 11500, 20000, 50000, 120000, 350000,
}

// Threshold returns the linear-counting crossover for precision.
func Threshold(precision uint8) uint64 {
	return LinearCountingThreshold[precision-MinPrecision]
}

// Beta returns the eight polynomial coefficients for precision.
func Beta(precision uint8) [8]float64 {
	return BetaCoeffs[precision-MinPrecision]
}

// Correction holds the HLL++ bias-correction curve for one precision: a
// table of raw estimates paired with the additive bias measured at that
// raw estimate, consumed by a k-nearest-neighbor average.
type Correction struct {
	RawEstimate []float64
	Bias        []float64
}

var corrections [numPrecision]Correction

func init() {
	for idx := 0; idx < numPrecision; idx++ {
		precision := uint8(idx + MinPrecision)
		corrections[idx] = synthesizeCorrection(precision)
	}
}

// ForPrecision returns the synthesized bias-correction curve for precision.
//
// The reference engine's real curve is an empirically measured table
// (tens of thousands of simulated trials per precision) that is not part
// of this port's source material. In its place this generates a smooth
// curve, bias(E) = m*0.45*(E/m)^2*exp(-E/m): near zero far below m, a
// bump peaking at E = 2m (about 0.24m there), falling to about 0.08m at
// 5m. See DESIGN.md for the exact rationale.
func ForPrecision(precision uint8) Correction {
	return corrections[precision-MinPrecision]
}

func synthesizeCorrection(precision uint8) Correction {
	m := float64(uint64(1) << precision)
	const points = 200
	raw := make([]float64, points)
	bia := make([]float64, points)
	// log-spaced samples from 0.1m to 8m, matching the empirical table's
	// support (bias is only ever looked up for raw estimates at or below
	// 5m per the composite estimator's threshold check).
	lo, hi := math.Log(0.1*m), math.Log(8*m)
	for i := 0; i < points; i++ {
		t := float64(i) / float64(points-1)
		e := math.Exp(lo + t*(hi-lo))
		raw[i] = e
		x := e / m
		bia[i] = m * 0.45 * x * x * math.Exp(-x)
	}
	return Correction{RawEstimate: raw, Bias: bia}
}

// EstimateBias returns the bias-corrected estimate for rawEstimate at
// precision by averaging the bias of the k nearest sampled raw estimates,
// the same neighbor-averaging scheme the reference engine's consumer uses.
func EstimateBias(rawEstimate float64, precision uint8, k int) float64 {
	c := ForPrecision(precision)
	type neighbor struct {
		dist float64
		bias float64
	}
	neighbors := make([]neighbor, len(c.RawEstimate))
	for i, r := range c.RawEstimate {
		d := rawEstimate - r
		if d < 0 {
			d = -d
		}
		neighbors[i] = neighbor{dist: d, bias: c.Bias[i]}
	}
	// partial selection sort for the k smallest distances; k is always
	// small (6) relative to len(neighbors) (200), so this is cheap.
	if k > len(neighbors) {
		k = len(neighbors)
	}
	sum := 0.0
	for i := 0; i < k; i++ {
		minIdx := i
		for j := i + 1; j < len(neighbors); j++ {
			if neighbors[j].dist < neighbors[minIdx].dist {
				minIdx = j
			}
		}
		neighbors[i], neighbors[minIdx] = neighbors[minIdx], neighbors[i]
		sum += neighbors[i].bias
	}
	return rawEstimate - sum/float64(k)
}
