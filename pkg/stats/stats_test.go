package stats

import (
	"math"
	"testing"
)

func TestSummariseNoData(t *testing.T) {
	if s := Summarise(nil, nil); s != nil {
		t.Errorf("expected nil summary for empty input, got %+v", s)
	}
	gaps := []float64{math.NaN(), math.NaN()}
	if s := Summarise(gaps, []int64{1, 2}); s != nil {
		t.Errorf("expected nil summary for all-gap input, got %+v", s)
	}
}

func TestSummariseBasics(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	timestamps := []int64{100, 200, 300, 400}

	s := Summarise(values, timestamps)
	if s == nil {
		t.Fatal("expected a summary")
	}

	if s.Mean != 25 {
		t.Errorf("mean: want 25, got %v", s.Mean)
	}
	if s.Average != s.Mean {
		t.Errorf("average should alias mean: %v != %v", s.Average, s.Mean)
	}
	// Floor-middle median of a sorted even-length series.
	if s.Median != 30 {
		t.Errorf("median: want 30, got %v", s.Median)
	}
	// Interquartile slice is sorted[round(1):round(3)] = [20, 30].
	if s.InterquartileMean != 25 {
		t.Errorf("interquartile mean: want 25, got %v", s.InterquartileMean)
	}
	if s.InterquartileRange != 10 {
		t.Errorf("interquartile range: want 10, got %v", s.InterquartileRange)
	}

	want := math.Sqrt(125) // population variance of 10,20,30,40 is 125
	if math.Abs(s.StandardDeviation-want) > 1e-9 {
		t.Errorf("stddev: want %v, got %v", want, s.StandardDeviation)
	}

	if len(s.Durations) != 4 || len(s.Timestamps) != 4 {
		t.Errorf("raw arrays should pass through: %d durations, %d timestamps",
			len(s.Durations), len(s.Timestamps))
	}
	if len(s.InterquartileDurations) != 2 {
		t.Errorf("interquartile durations: want 2 values, got %v", s.InterquartileDurations)
	}
}

func TestSummariseSkipsGaps(t *testing.T) {
	values := []float64{10, math.NaN(), 30}
	s := Summarise(values, []int64{1, 2, 3})
	if s == nil {
		t.Fatal("expected a summary")
	}
	if s.Mean != 20 {
		t.Errorf("mean over defined values: want 20, got %v", s.Mean)
	}
	// The gap stays in the raw array.
	if !math.IsNaN(s.Durations[1]) {
		t.Errorf("gap should survive in Durations, got %v", s.Durations[1])
	}
}

func TestRollingAverageWindow(t *testing.T) {
	values := make([]float64, 20)
	timestamps := make([]int64, 20)
	for i := range values {
		values[i] = 5
		timestamps[i] = int64(i)
	}

	s := Summarise(values, timestamps)
	if s == nil {
		t.Fatal("expected a summary")
	}
	for i := 0; i < rollingWindow; i++ {
		if !math.IsNaN(s.RollingAverage[i]) {
			t.Errorf("rolling average[%d] should be undefined, got %v", i, s.RollingAverage[i])
		}
	}
	for i := rollingWindow; i < len(values); i++ {
		if s.RollingAverage[i] != 5 {
			t.Errorf("rolling average[%d]: want 5, got %v", i, s.RollingAverage[i])
		}
	}
}

func TestRollingAverageCircularCorrection(t *testing.T) {
	// Hours of the day alternating just before and just after
	// midnight; a naive average would land near noon.
	const period = 24.0
	values := make([]float64, 20)
	timestamps := make([]int64, 20)
	for i := range values {
		if i%2 == 0 {
			values[i] = 23
		} else {
			values[i] = 1
		}
		timestamps[i] = int64(i)
	}

	s := SummariseCircular(values, timestamps, period)
	if s == nil {
		t.Fatal("expected a summary")
	}
	// Window [1,14] holds seven 23s and seven 1s; the corrected mean
	// is exactly midnight.
	if got := s.RollingAverage[14]; got != 0 {
		t.Errorf("corrected rolling average: want 0, got %v", got)
	}
}
