// Package stats implements the robust summary statistics behind every
// diary analysis: mean, floor-middle median, interquartile measures,
// population standard deviation and a 14-sample rolling average with
// wraparound correction for circular domains such as time of day.
//
// Gaps in the input are math.NaN placeholders. They preserve index
// alignment with the timestamps but contribute to no statistic.
package stats

import (
	"math"
	"slices"
)

// rollingWindow is the number of samples averaged per rolling-average
// point; earlier indexes stay undefined.
const rollingWindow = 14

// Summary is the result of summarising one series. Durations,
// Timestamps and InterquartileDurations carry the raw inputs through
// for display; RollingAverage is NaN before the window fills.
type Summary struct {
	// Average is an alias for Mean, kept as the headline statistic so
	// callers can substitute another measure without touching Mean.
	Average                        float64
	Mean                           float64
	InterquartileMean              float64
	Median                         float64
	InterquartileRange             float64
	StandardDeviation              float64
	InterquartileStandardDeviation float64
	Durations                      []float64
	Timestamps                     []int64
	InterquartileDurations         []float64
	RollingAverage                 []float64
}

// Summarise computes the summary of values; NaN entries are gaps.
// It returns nil when no defined values exist.
func Summarise(values []float64, timestamps []int64) *Summary {
	return SummariseCircular(values, timestamps, 0)
}

// SummariseCircular treats the value domain as circular with the given
// period (e.g. a day length), correcting rolling-average windows whose
// samples straddle the wraparound point. A period of zero disables the
// correction.
func SummariseCircular(values []float64, timestamps []int64, period float64) *Summary {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return nil
	}

	sorted := slices.Clone(defined)
	slices.Sort(sorted)

	n := len(sorted)
	lo := int(math.Round(float64(n) * 0.25))
	hi := int(math.Round(float64(n) * 0.75))
	interquartile := sorted[lo:hi]

	s := &Summary{
		Mean:                   mean(defined),
		Median:                 sorted[n/2],
		Durations:              slices.Clone(values),
		Timestamps:             slices.Clone(timestamps),
		InterquartileDurations: slices.Clone(interquartile),
		RollingAverage:         rollingAverage(values, period),
	}
	s.Average = s.Mean
	s.StandardDeviation = stddev(defined, s.Mean)
	s.InterquartileMean = mean(interquartile)
	s.InterquartileRange = interquartile[len(interquartile)-1] - interquartile[0]
	s.InterquartileStandardDeviation = stddev(interquartile, s.InterquartileMean)
	return s
}

func mean(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// stddev is the population standard deviation around mu.
func stddev(values []float64, mu float64) float64 {
	total := 0.0
	for _, v := range values {
		total += (v - mu) * (v - mu)
	}
	return math.Sqrt(total / float64(len(values)))
}

// rollingAverage averages the defined values of each trailing
// 14-sample window. With a circular period, windows mixing values from
// the lowest and highest quarters of the domain are lifted or lowered
// by whole periods before dividing, so averages near the wraparound
// point do not collapse toward the middle of the domain.
func rollingAverage(values []float64, period float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < rollingWindow {
			out[i] = math.NaN()
			continue
		}

		sum := 0.0
		count := 0
		low, high := 0, 0
		for _, v := range values[max(0, i-rollingWindow+1) : i+1] {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			count++
			if period > 0 {
				switch {
				case v < period/4:
					low++
				case v > period*3/4:
					high++
				}
			}
		}
		if count == 0 {
			out[i] = math.NaN()
			continue
		}
		if period > 0 {
			if low < high {
				sum += period * float64(low)
			} else {
				sum -= period * float64(high)
			}
		}
		out[i] = sum / float64(count)
	}
	return out
}
