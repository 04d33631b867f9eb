package processor

import (
	"math"
	"testing"

	"github.com/godist/artm/core/batch"
	"github.com/godist/artm/core/phi"
	"github.com/stretchr/testify/assert"
)

func TestProcessConservesWeights(t *testing.T) {
	pwt := phi.CreateTestingMatrix()
	phi.Normalize(pwt, nil, pwt)
	nwt := phi.NewDenseLike(pwt)

	b := batch.CreateTestingBatch()
	stats := New(5).Process(b, pwt, nwt)

	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, 7.0, stats.Tokens)
	assert.True(t, stats.LogLikelihood < 0)
	assert.True(t, stats.Perplexity() > 1)

	// Every processed token spreads its weight over topics.
	truth := []float64{2, 2, 3}
	for w := 0; w < nwt.TokenSize(); w++ {
		sum := 0.0
		for _, v := range nwt.Row(w) {
			assert.True(t, v >= 0)
			sum += v
		}
		assert.InDelta(t, truth[w], sum, 1e-9)
	}
}

func TestProcessSkipsUnknownTokens(t *testing.T) {
	pwt := phi.NewDenseFromRows(
		[]phi.Token{phi.NewToken("apple", "")},
		[]string{"t0", "t1"},
		[][]float64{{1, 1}})
	nwt := phi.NewDenseLike(pwt)

	b := batch.CreateTestingBatch()
	stats := New(0).Process(b, pwt, nwt)

	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, 2.0, stats.Tokens)
	assert.InDelta(t, 1.0, nwt.Get(0, 0), 1e-12)
	assert.InDelta(t, 1.0, nwt.Get(0, 1), 1e-12)
	assert.InDelta(t, 0.0, stats.LogLikelihood, 1e-12)
	assert.Equal(t, 1.0, stats.Perplexity())
}

func TestProcessSkipsMalformedItems(t *testing.T) {
	pwt := phi.CreateTestingMatrix()
	phi.Normalize(pwt, nil, pwt)
	nwt := phi.NewDenseLike(pwt)

	b := batch.CreateTestingBatch()
	b.Item[0].TokenWeight = nil
	stats := New(3).Process(b, pwt, nwt)

	assert.Equal(t, 1, stats.Items)
	assert.Equal(t, 4.0, stats.Tokens)
	for _, v := range nwt.Row(0) {
		assert.Equal(t, 0.0, v, "apple occurs only in the skipped item")
	}
}

func TestStats(t *testing.T) {
	var s Stats
	assert.Equal(t, 0.0, s.Perplexity())
	s.Add(Stats{Items: 1, Tokens: 2, LogLikelihood: -2})
	s.Add(Stats{Items: 1, Tokens: 2, LogLikelihood: -2})
	assert.Equal(t, 2, s.Items)
	assert.InDelta(t, math.E, s.Perplexity(), 1e-12)
}
