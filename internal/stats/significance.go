package stats

import "math"

// ZTest holds the outcome of a two-proportion z-test comparing a challenger
// variant against a baseline.
type ZTest struct {
	ZScore      float64
	PValue      float64
	Improvement float64 // relative rate lift over the baseline, percent
	DiffCILower float64 // CI on the rate difference, fraction
	DiffCIUpper float64
	Valid       bool // false when either side has no impressions
}

// TwoProportionTest performs a two-tailed two-proportion z-test.
// baseConv/baseImp describe the baseline variant, varConv/varImp the
// challenger. confidence (0-1) selects the width of the difference CI;
// it does not affect the p-value.
func TwoProportionTest(baseConv, baseImp, varConv, varImp int, confidence float64) ZTest {
	if baseImp == 0 || varImp == 0 {
		// Can't compute without data on both sides.
		return ZTest{PValue: 1}
	}

	p1 := float64(baseConv) / float64(baseImp)
	p2 := float64(varConv) / float64(varImp)
	n1 := float64(baseImp)
	n2 := float64(varImp)

	// Pooled proportion under the null hypothesis (p1 = p2)
	pooledP := (p1*n1 + p2*n2) / (n1 + n2)

	// Standard error of the difference
	se := math.Sqrt(pooledP * (1 - pooledP) * (1/n1 + 1/n2))

	result := ZTest{Valid: true}

	if p1 > 0 {
		result.Improvement = (p2 - p1) / p1 * 100
	}

	if se == 0 {
		// Both rates sit at the same extreme (all or none converted).
		result.PValue = 1
		return result
	}

	result.ZScore = math.Abs(p2-p1) / se
	result.PValue = 2 * (1 - NormalCDF(result.ZScore))

	z := ZScore(confidence)
	diff := p2 - p1
	result.DiffCILower = diff - z*se
	result.DiffCIUpper = diff + z*se

	return result
}

// NormalCDF approximates the cumulative distribution function
// of the standard normal distribution
func NormalCDF(x float64) float64 {
	// Use the approximation from Abramowitz and Stegun
	// Handbook of Mathematical Functions, formula 7.1.26
	a1 := 0.254829592
	a2 := -0.284496736
	a3 := 1.421413741
	a4 := -1.453152027
	a5 := 1.061405429
	p := 0.3275911

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x) / math.Sqrt(2)

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return 0.5 * (1.0 + sign*y)
}
