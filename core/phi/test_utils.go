package phi

import (
	"fmt"
)

// NewDenseFromRows creates a Dense whose i-th row is rows[i] and
// belongs to tokens[i].
func NewDenseFromRows(tokens []Token, topicNames []string,
	rows [][]float64) *Dense {
	if len(tokens) != len(rows) {
		panic(fmt.Sprintf("%d tokens but %d rows", len(tokens), len(rows)))
	}
	c := NewTokenCollection()
	for _, t := range tokens {
		c.Add(t)
	}
	d := NewDense(c, topicNames)
	for w, row := range rows {
		if len(row) != len(topicNames) {
			panic(fmt.Sprintf("row %d has %d values, expecting %d",
				w, len(row), len(topicNames)))
		}
		for t, v := range row {
			d.Set(w, t, v)
		}
	}
	return d
}

// CreateTestingMatrix creates a matrix with:
//
//	            t0    t1    t2
//	apple:     0.1   0.2   0.3
//	orange:    0.4   0.5   0.6
//	tiger|@ne: 0.7   0.8   0.9
func CreateTestingMatrix() *Dense {
	return NewDenseFromRows(
		[]Token{
			NewToken("apple", ""),
			NewToken("orange", ""),
			NewToken("tiger", "@ne")},
		[]string{"t0", "t1", "t2"},
		[][]float64{
			{0.1, 0.2, 0.3},
			{0.4, 0.5, 0.6},
			{0.7, 0.8, 0.9}})
}
