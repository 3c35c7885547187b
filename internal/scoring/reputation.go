package scoring

import "math"

// Reputation derives an author's 0-100 reputation from the scores of their
// active questions. ok is false when there are no scores, in which case the
// stored reputation must be left unchanged.
func Reputation(scores []float64) (reputation int, ok bool) {
	if len(scores) == 0 {
		return 0, false
	}

	var total float64
	for _, s := range scores {
		total += s
	}
	avg := total / float64(len(scores))

	return int(math.Round(math.Min(100, math.Max(0, avg*10)))), true
}
