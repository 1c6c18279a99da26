// Package report turns trial results into tables, statistics and charts.
package report

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/SimonSchneider/pefisim/internal/montecarlo"
)

// Histogram has equal-width bins over [min, max]; the last bin is closed.
type Histogram struct {
	Edges  []float64
	Counts []int
}

// NewHistogram bins the finite values. Failed trials (NaN) are ignored.
func NewHistogram(values []float64, bins int) (Histogram, error) {
	if bins <= 0 {
		return Histogram{}, fmt.Errorf("bins must be positive, got %d", bins)
	}
	vs := finite(values)
	if len(vs) == 0 {
		return Histogram{}, errors.New("no values to bin")
	}
	lo, hi := slices.Min(vs), slices.Max(vs)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	h := Histogram{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi
	for _, v := range vs {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		h.Counts[i]++
	}
	return h, nil
}

// Mode is the midpoint of the fullest bin, the first one on ties.
func (h Histogram) Mode() float64 {
	best := 0
	for i, c := range h.Counts {
		if c > h.Counts[best] {
			best = i
		}
	}
	return (h.Edges[best] + h.Edges[best+1]) / 2
}

// Midpoints are the bin centres.
func (h Histogram) Midpoints() []float64 {
	mids := make([]float64, len(h.Counts))
	for i := range mids {
		mids[i] = (h.Edges[i] + h.Edges[i+1]) / 2
	}
	return mids
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func Mean(values []float64) float64 {
	vs := finite(values)
	if len(vs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// Quantile interpolates linearly between the closest ranks, q in [0, 1].
func Quantile(values []float64, q float64) float64 {
	vs := finite(values)
	if len(vs) == 0 {
		return math.NaN()
	}
	slices.Sort(vs)
	pos := q * float64(len(vs)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return vs[lo] + (vs[hi]-vs[lo])*(pos-float64(lo))
}

type Summary struct {
	Scenario string
	Trials   int
	Failures int
	Mean     float64
	Mode     float64
	P5       float64
	P95      float64
}

// Summarize computes one summary per column of t.
func Summarize(t montecarlo.Table, bins int) ([]Summary, error) {
	summaries := make([]Summary, 0, len(t.Columns))
	for _, name := range t.Columns {
		values := t.Column(name)
		s := Summary{
			Scenario: name,
			Trials:   len(values),
			Failures: len(values) - len(finite(values)),
			Mean:     Mean(values),
			Mode:     math.NaN(),
			P5:       Quantile(values, 0.05),
			P95:      Quantile(values, 0.95),
		}
		if s.Failures < s.Trials {
			h, err := NewHistogram(values, bins)
			if err != nil {
				return nil, fmt.Errorf("histogram of %q: %w", name, err)
			}
			s.Mode = h.Mode()
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Relative subtracts the baseline column from every other column trial by
// trial. The baseline itself is dropped.
func Relative(t montecarlo.Table, baseline string) (montecarlo.Table, error) {
	base := slices.Index(t.Columns, baseline)
	if base < 0 {
		return montecarlo.Table{}, fmt.Errorf("baseline scenario %q not found", baseline)
	}
	out := montecarlo.Table{}
	for j, c := range t.Columns {
		if j != base {
			out.Columns = append(out.Columns, c+"-"+baseline)
		}
	}
	out.Rows = make([][]float64, len(t.Rows))
	for i, row := range t.Rows {
		rel := make([]float64, 0, len(row)-1)
		for j, v := range row {
			if j != base {
				rel = append(rel, v-row[base])
			}
		}
		out.Rows[i] = rel
	}
	return out, nil
}
