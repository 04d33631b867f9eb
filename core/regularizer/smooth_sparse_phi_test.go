package regularizer

import (
	"math"
	"testing"

	"github.com/godist/artm/core/dict"
	"github.com/godist/artm/core/phi"
	"github.com/godist/artm/core/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// untouched marks entries a regularizer must not write.
const untouched = -42.0

func newResult(pwt *phi.Dense) *phi.Dense {
	r := phi.NewDenseLike(pwt)
	for w := 0; w < r.TokenSize(); w++ {
		for t := 0; t < r.TopicSize(); t++ {
			r.Set(w, t, untouched)
		}
	}
	return r
}

func newSmoothSparsePhi(t *testing.T, blob string, dicts DictionaryResolver) Regularizer {
	r, e := NewSmoothSparsePhi([]byte(blob), dicts)
	require.NoError(t, e)
	return r
}

func TestSelectedTopics(t *testing.T) {
	pwt := phi.NewDenseFromRows(
		[]phi.Token{phi.NewToken("apple", ""), phi.NewToken("orange", "")},
		[]string{"t0", "t1", "t2"},
		[][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}})
	result := newResult(pwt)

	r := newSmoothSparsePhi(t, `{"topic_name":["t0","t2"]}`, nil)
	require.NoError(t, r.RegularizePhi(pwt, pwt, result))

	for w := 0; w < 2; w++ {
		assert.Equal(t, untouched, result.Get(w, 1))
		assert.Equal(t, pwt.Get(w, 0), result.Get(w, 0))
		assert.Equal(t, pwt.Get(w, 2), result.Get(w, 2))
	}
}

func TestAllTopicsAndUnknownTopicName(t *testing.T) {
	pwt := phi.CreateTestingMatrix()

	result := newResult(pwt)
	r := newSmoothSparsePhi(t, ``, nil)
	require.NoError(t, r.RegularizePhi(pwt, pwt, result))
	for w := 0; w < pwt.TokenSize(); w++ {
		for k := 0; k < pwt.TopicSize(); k++ {
			assert.Equal(t, pwt.Get(w, k), result.Get(w, k))
		}
	}

	result = newResult(pwt)
	r = newSmoothSparsePhi(t, `{"topic_name":["no-such-topic"]}`, nil)
	require.NoError(t, r.RegularizePhi(pwt, pwt, result))
	for w := 0; w < pwt.TokenSize(); w++ {
		for k := 0; k < pwt.TopicSize(); k++ {
			assert.Equal(t, untouched, result.Get(w, k))
		}
	}
}

func TestClassFilter(t *testing.T) {
	pwt := phi.CreateTestingMatrix()
	result := newResult(pwt)

	r := newSmoothSparsePhi(t, `{"class_id":["@ne"]}`, nil)
	require.NoError(t, r.RegularizePhi(pwt, pwt, result))
	for k := 0; k < pwt.TopicSize(); k++ {
		assert.Equal(t, untouched, result.Get(0, k))
		assert.Equal(t, untouched, result.Get(1, k))
		assert.Equal(t, pwt.Get(2, k), result.Get(2, k))
	}
}

func TestDictionaryCoefficient(t *testing.T) {
	pwt := phi.CreateTestingMatrix()
	dicts := dict.NewRegistry()
	dicts.Add(dict.CreateTestingDictionary())
	result := newResult(pwt)

	r := newSmoothSparsePhi(t, `{"dictionary_name":"testing"}`, dicts)
	require.NoError(t, r.RegularizePhi(pwt, pwt, result))
	for k := 0; k < pwt.TopicSize(); k++ {
		assert.InDelta(t, 0.5*pwt.Get(0, k), result.Get(0, k), 1e-12)
		assert.Equal(t, 0.0, result.Get(1, k), "orange is not in the dictionary")
		assert.InDelta(t, 2.0*pwt.Get(2, k), result.Get(2, k), 1e-12)
	}
}

func TestClassFilterWithDictionary(t *testing.T) {
	pwt := phi.CreateTestingMatrix()
	dicts := dict.NewRegistry()
	dicts.Add(dict.CreateTestingDictionary())
	result := newResult(pwt)

	r := newSmoothSparsePhi(t, `{"class_id":["@ne"],"dictionary_name":"testing"}`, dicts)
	require.NoError(t, r.RegularizePhi(pwt, pwt, result))
	for k := 0; k < pwt.TopicSize(); k++ {
		assert.Equal(t, untouched, result.Get(0, k), "apple is in the dictionary but not in @ne")
		assert.Equal(t, untouched, result.Get(1, k))
		assert.InDelta(t, 2.0*pwt.Get(2, k), result.Get(2, k), 1e-12)
	}
}

func TestMissingDictionaryMeansNoDictionary(t *testing.T) {
	pwt := phi.CreateTestingMatrix()
	result := newResult(pwt)

	r := newSmoothSparsePhi(t, `{"dictionary_name":"not-registered"}`, dict.NewRegistry())
	require.NoError(t, r.RegularizePhi(pwt, pwt, result))
	assert.Equal(t, pwt.Get(1, 1), result.Get(1, 1))
}

func TestTransform(t *testing.T) {
	pwt := phi.CreateTestingMatrix()
	result := newResult(pwt)

	r := newSmoothSparsePhi(t,
		`{"topic_name":["t1"],"transform_config":{"transform_type":"logarithm"}}`, nil)
	require.NoError(t, r.RegularizePhi(pwt, pwt, result))
	assert.InDelta(t, math.Log(0.5), result.Get(1, 1), 1e-12)
	assert.Equal(t, untouched, result.Get(1, 0))

	_, e := NewSmoothSparsePhi(
		[]byte(`{"transform_config":{"transform_type":"cubic"}}`), nil)
	assert.ErrorIs(t, e, ErrCorruptedConfig)
	assert.ErrorIs(t, e, transform.ErrInvalidConfig)
}

func TestIdempotent(t *testing.T) {
	pwt := phi.CreateTestingMatrix()
	dicts := dict.NewRegistry()
	dicts.Add(dict.CreateTestingDictionary())
	r := newSmoothSparsePhi(t, `{"topic_name":["t0","t1"],"dictionary_name":"testing"}`, dicts)

	a, b := newResult(pwt), newResult(pwt)
	require.NoError(t, r.RegularizePhi(pwt, pwt, a))
	require.NoError(t, r.RegularizePhi(pwt, pwt, b))
	for w := 0; w < pwt.TokenSize(); w++ {
		assert.Equal(t, a.Row(w), b.Row(w))
	}
}

func TestReconfigure(t *testing.T) {
	r := newSmoothSparsePhi(t, `{"topic_name":["t0"]}`, nil)

	require.NoError(t, r.Reconfigure([]byte(`{"topic_name":["t2","t1"],"class_id":["@ne"]}`)))
	assert.Equal(t, []string{"t2", "t1"}, r.TopicsToRegularize())
	assert.Equal(t, []string{"@ne"}, r.ClassIdsToRegularize())

	topics := r.TopicsToRegularize()
	topics[0] = "t0"
	_ = append(topics[:1], "t9")
	classes := r.ClassIdsToRegularize()
	classes[0] = "@other"
	assert.Equal(t, []string{"t2", "t1"}, r.TopicsToRegularize())
	assert.Equal(t, []string{"@ne"}, r.ClassIdsToRegularize())

	pwt := phi.CreateTestingMatrix()
	result := newResult(pwt)
	require.NoError(t, r.RegularizePhi(pwt, pwt, result))
	assert.Equal(t, untouched, result.Get(2, 0))
	assert.Equal(t, pwt.Get(2, 2), result.Get(2, 2))

	require.NoError(t, r.Reconfigure([]byte(`{}`)))
	assert.Empty(t, r.TopicsToRegularize())
	assert.Empty(t, r.ClassIdsToRegularize())
}

func TestReconfigureCorruptedKeepsConfig(t *testing.T) {
	pwt := phi.CreateTestingMatrix()
	r := newSmoothSparsePhi(t,
		`{"topic_name":["t0"],"transform_config":{"transform_type":"constant"}}`, nil)

	e := r.Reconfigure([]byte(`{"topic_name": [`))
	assert.ErrorIs(t, e, ErrCorruptedConfig)
	e = r.Reconfigure([]byte(`{"transform_config":{"transform_type":"cubic"}}`))
	assert.ErrorIs(t, e, ErrCorruptedConfig)

	assert.Equal(t, []string{"t0"}, r.TopicsToRegularize())
	result := newResult(pwt)
	require.NoError(t, r.RegularizePhi(pwt, pwt, result))
	for w := 0; w < pwt.TokenSize(); w++ {
		assert.Equal(t, 1.0, result.Get(w, 0))
		assert.Equal(t, untouched, result.Get(w, 1))
	}
}

func TestConcurrentDisjointRows(t *testing.T) {
	pwt := phi.CreateTestingMatrix()
	r := newSmoothSparsePhi(t, ``, nil)
	result := newResult(pwt)

	done := make(chan error)
	for _, rg := range phi.NewSharder(3).ShardRows(pwt.TokenSize()) {
		go func(rg phi.Range) {
			done <- r.RegularizePhi(phi.Rows(pwt, rg), phi.Rows(pwt, rg),
				phi.MutableRows(result, rg))
		}(rg)
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, <-done)
	}
	for w := 0; w < pwt.TokenSize(); w++ {
		assert.Equal(t, pwt.Row(w), result.Row(w))
	}
}
