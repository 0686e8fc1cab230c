package hls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplingStrategyWindows(t *testing.T) {
	strategy := NewSamplingStrategy(DefaultConfig())

	testCases := []struct {
		name   string
		total  int
		early  []int
		middle []int
		late   []int
	}{
		{"no segments", 0, []int{}, []int{}, []int{}},
		{"one segment", 1, []int{0}, []int{0}, []int{0}},
		{"two segments", 2, []int{0, 1}, []int{0, 1}, []int{0, 1}},
		{"three segments", 3, []int{0, 1, 2}, []int{0, 1, 2}, []int{0, 1, 2}},
		{"four segments", 4, []int{0, 1, 2}, []int{1, 2, 3}, []int{1, 2, 3}},
		{"five segments", 5, []int{0, 1, 2}, []int{1, 2, 3}, []int{2, 3, 4}},
		{"long chunklist is capped", 12, []int{0, 1, 2}, []int{1, 2, 3}, []int{2, 3, 4}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			windows := strategy.CandidateWindows(tc.total)
			require.Len(t, windows, 3)

			assert.Equal(t, WindowEarly, windows[0].Position)
			assert.Equal(t, WindowMiddle, windows[1].Position)
			assert.Equal(t, WindowLate, windows[2].Position)

			assert.Equal(t, tc.early, windows[0].Indices)
			assert.Equal(t, tc.middle, windows[1].Indices)
			assert.Equal(t, tc.late, windows[2].Indices)
		})
	}
}

func TestSamplingStrategyBounds(t *testing.T) {
	strategy := SamplingStrategy{MaxCandidates: 5, MaxCombined: 3}

	for total := 0; total <= 20; total++ {
		limit := min(total, strategy.MaxCandidates)
		for w := range strategy.Windows(total) {
			assert.LessOrEqual(t, len(w.Indices), strategy.MaxCombined)
			for _, idx := range w.Indices {
				assert.GreaterOrEqual(t, idx, 0)
				assert.Less(t, idx, limit, "total=%d window=%s", total, w.Position)
			}
		}
	}
}

func TestSamplingStrategyStopsEarly(t *testing.T) {
	strategy := SamplingStrategy{MaxCandidates: 5, MaxCombined: 3}

	var seen []WindowPosition
	for w := range strategy.Windows(5) {
		seen = append(seen, w.Position)
		if w.Position == WindowMiddle {
			break
		}
	}

	assert.Equal(t, []WindowPosition{WindowEarly, WindowMiddle}, seen)
}

func TestCandidateWindowEmpty(t *testing.T) {
	assert.True(t, CandidateWindow{Position: WindowEarly}.Empty())
	assert.False(t, CandidateWindow{Position: WindowEarly, Indices: []int{0}}.Empty())
}
