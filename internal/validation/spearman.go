package validation

import "math"

// SpearmanRho computes Spearman's rank correlation between a predicted and
// an actual finishing order, restricted to the horses present in both
// (scratches and incomplete fields drop out of the comparison). Both
// slices are ordered best-first and must contain normalized names.
//
//	rho = 1 - 6*sum(d^2) / (n*(n^2-1))
//
// Returns 0 when fewer than 2 horses are common to both orders; the final
// value is clamped to [-1,1] to absorb floating-point drift.
func SpearmanRho(predicted, actual []string) float64 {
	actualRank := make(map[string]int, len(actual))
	for i, name := range actual {
		actualRank[name] = i
	}

	// Relative ranks over the common subset, preserving each side's order.
	var predCommon []string
	for _, name := range predicted {
		if _, ok := actualRank[name]; ok {
			predCommon = append(predCommon, name)
		}
	}

	n := len(predCommon)
	if n < 2 {
		return 0
	}

	actualCommonRank := make(map[string]int, n)
	idx := 0
	for _, name := range actual {
		for _, p := range predCommon {
			if p == name {
				actualCommonRank[name] = idx
				idx++
				break
			}
		}
	}

	var sumD2 float64
	for predRank, name := range predCommon {
		d := float64(predRank - actualCommonRank[name])
		sumD2 += d * d
	}

	nf := float64(n)
	rho := 1 - (6*sumD2)/(nf*(nf*nf-1))
	return math.Max(-1, math.Min(1, rho))
}
