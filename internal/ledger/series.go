package ledger

import (
	"sort"

	"github.com/SimonSchneider/goslu/date"
)

type Point struct {
	Date  date.Date
	Value float64
}

// Series is a date-ordered sequence of points, not necessarily daily.
type Series []Point

// At is the value of the last point on or before day, 0 before the first point.
func (s Series) At(day date.Date) float64 {
	i := sort.Search(len(s), func(i int) bool {
		return s[i].Date.After(day)
	})
	if i == 0 {
		return 0
	}
	return s[i-1].Value
}

// Fill returns one point per day of [from, to], carrying values forward.
func (s Series) Fill(from, to date.Date) Series {
	filled := make(Series, 0)
	v, i := 0.0, 0
	for i < len(s) && s[i].Date.Before(from) {
		v = s[i].Value
		i++
	}
	for day := from; !day.After(to); day = day.Add(date.Day) {
		for i < len(s) && !s[i].Date.After(day) {
			v = s[i].Value
			i++
		}
		filled = append(filled, Point{Date: day, Value: v})
	}
	return filled
}

func (s Series) Last() Point {
	if len(s) == 0 {
		return Point{}
	}
	return s[len(s)-1]
}

func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}
