package srv

import (
	"encoding/json"
	"io/ioutil"
	"math"
	"os"
	"path"
	"sync"
	"testing"

	"github.com/godist/artm/core/batch"
	"github.com/godist/artm/core/generation"
	"github.com/godist/artm/core/phi"
	"github.com/godist/artm/core/regularizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestingMaster(t *testing.T, regs ...regularizer.Config) *Master {
	m, e := NewMaster(&Config{
		TopicNames:        []string{"t0", "t1", "t2"},
		NumProcessors:     2,
		NumDocumentPasses: 5,
		Seed:              1,
		Regularizers:      regs,
	})
	require.NoError(t, e)
	for i := 0; i < 3; i++ {
		_, e := m.AddBatch(batch.CreateTestingBatch())
		require.NoError(t, e)
	}
	_, e = m.GatherDictionary("gathered")
	require.NoError(t, e)
	require.NoError(t, m.Initialize("gathered"))
	return m
}

// checkNormalized verifies that every topic column of each class sums
// to one, or is all zero.
func checkNormalized(t *testing.T, pwt phi.Matrix) {
	sums := make(map[string][]float64)
	for w := 0; w < pwt.TokenSize(); w++ {
		c := pwt.Token(w).ClassId
		if sums[c] == nil {
			sums[c] = make([]float64, pwt.TopicSize())
		}
		for k := 0; k < pwt.TopicSize(); k++ {
			assert.True(t, pwt.Get(w, k) >= 0)
			sums[c][k] += pwt.Get(w, k)
		}
	}
	for c, s := range sums {
		for k, v := range s {
			if v != 0 {
				assert.InDelta(t, 1.0, v, 1e-9, "class %s topic %d", c, k)
			}
		}
	}
}

func TestInitialize(t *testing.T) {
	m := createTestingMaster(t)
	pwt := m.Model()
	require.NotNil(t, pwt)
	assert.Equal(t, 3, pwt.TokenSize())
	assert.Equal(t, []string{"t0", "t1", "t2"}, pwt.TopicNames())
	checkNormalized(t, pwt)

	// Initialization depends only on the seed and tokens.
	n := createTestingMaster(t)
	for w := 0; w < pwt.TokenSize(); w++ {
		assert.Equal(t, pwt.Row(w), n.Model().Row(w))
	}

	assert.ErrorIs(t, m.Initialize("not-there"), ErrDictionaryNotFound)
}

func TestFitOffline(t *testing.T) {
	m := createTestingMaster(t)
	stats, e := m.FitOffline(3)
	require.NoError(t, e)
	assert.Equal(t, 6, stats.Items)
	assert.Equal(t, 21.0, stats.Tokens)
	assert.False(t, math.IsNaN(stats.Perplexity()))
	checkNormalized(t, m.Model())
}

func TestFitOfflineNotInitialized(t *testing.T) {
	m, e := NewMaster(&Config{NumTopics: 2})
	require.NoError(t, e)
	_, e = m.FitOffline(1)
	assert.ErrorIs(t, e, ErrNotInitialized)
}

func TestAddMalformedBatch(t *testing.T) {
	m := createTestingMaster(t)
	bad := batch.CreateTestingBatch()
	bad.Item[0].TokenWeight = nil
	_, e := m.AddBatch(bad)
	assert.ErrorIs(t, e, batch.ErrMalformed)
	assert.Len(t, m.Tasks(), 3)

	stats, e := m.FitOffline(1)
	require.NoError(t, e)
	assert.Equal(t, 6, stats.Items)
	checkNormalized(t, m.Model())
}

func TestFitOnline(t *testing.T) {
	m := createTestingMaster(t)
	stats, e := m.FitOnline(1, 1, 0.5)
	require.NoError(t, e)
	assert.Equal(t, 6, stats.Items)
	checkNormalized(t, m.Model())

	_, e = m.FitOnline(0, 1, 0.5)
	assert.Error(t, e)
	_, e = m.FitOnline(1, 0, 0.5)
	assert.Error(t, e)
}

func TestSparsifyingRegularizer(t *testing.T) {
	m := createTestingMaster(t, regularizer.Config{
		Name:   "sparse_t0",
		Type:   regularizer.SmoothSparsePhiType,
		Tau:    -1e6,
		Config: json.RawMessage(`{"topic_name":["t0"]}`),
	})
	_, e := m.FitOffline(2)
	require.NoError(t, e)

	pwt := m.Model()
	for w := 0; w < pwt.TokenSize(); w++ {
		assert.Equal(t, 0.0, pwt.Get(w, 0))
	}
	checkNormalized(t, pwt)
}

func TestRegularizeModel(t *testing.T) {
	m, e := NewMaster(&Config{
		TopicNames:    []string{"t0", "t1", "t2"},
		NumProcessors: 2,
		Regularizers: []regularizer.Config{
			{Name: "a", Type: regularizer.SmoothSparsePhiType, Tau: 2,
				Config: json.RawMessage(`{"topic_name":["t0"]}`)},
			{Name: "b", Type: regularizer.SmoothSparsePhiType, Tau: -1,
				Config: json.RawMessage(`{"topic_name":["t0","t2"],"class_id":["@ne"]}`)},
		},
	})
	require.NoError(t, e)

	pwt := phi.CreateTestingMatrix()
	rwt := m.RegularizeModel(pwt, phi.NewDenseLike(pwt))
	for w := 0; w < 2; w++ {
		assert.InDelta(t, 2*pwt.Get(w, 0), rwt.Get(w, 0), 1e-12)
		assert.Equal(t, 0.0, rwt.Get(w, 1))
		assert.Equal(t, 0.0, rwt.Get(w, 2))
	}
	assert.InDelta(t, pwt.Get(2, 0), rwt.Get(2, 0), 1e-12)
	assert.Equal(t, 0.0, rwt.Get(2, 1))
	assert.InDelta(t, -pwt.Get(2, 2), rwt.Get(2, 2), 1e-12)
}

func TestRegularizerManagement(t *testing.T) {
	m := createTestingMaster(t, regularizer.Config{
		Name: "smooth", Type: regularizer.SmoothSparsePhiType, Tau: 0.5,
		Config: json.RawMessage(`{"topic_name":["t1"]}`),
	})

	e := m.CreateRegularizer(regularizer.Config{
		Name: "smooth", Type: regularizer.SmoothSparsePhiType})
	assert.ErrorIs(t, e, ErrDuplicateRegularizer)
	e = m.CreateRegularizer(regularizer.Config{Name: "x", Type: "no-such-type"})
	assert.ErrorIs(t, e, regularizer.ErrUnknownType)

	e = m.ReconfigureRegularizer(regularizer.Config{
		Name: "smooth", Tau: 3, Config: json.RawMessage(`{"topic_name":`)})
	assert.ErrorIs(t, e, regularizer.ErrCorruptedConfig)
	assert.Equal(t, 0.5, m.Regularizers()[0].Tau)
	assert.JSONEq(t, `{"topic_name":["t1"]}`, string(m.Regularizers()[0].Config))

	e = m.ReconfigureRegularizer(regularizer.Config{
		Name: "smooth", Type: "other", Config: json.RawMessage(`{}`)})
	assert.Error(t, e)

	e = m.ReconfigureRegularizer(regularizer.Config{Name: "nobody"})
	assert.ErrorIs(t, e, ErrRegularizerNotFound)

	require.NoError(t, m.ReconfigureRegularizer(regularizer.Config{
		Name: "smooth", Tau: 3, Config: json.RawMessage(`{"topic_name":["t2"]}`)}))
	rs := m.Regularizers()
	require.Len(t, rs, 1)
	assert.Equal(t, 3.0, rs[0].Tau)
	assert.Equal(t, regularizer.SmoothSparsePhiType, rs[0].Type)

	m.DisposeRegularizer("smooth")
	m.DisposeRegularizer("smooth")
	assert.Empty(t, m.Regularizers())
}

func TestReconfigureDuringTraining(t *testing.T) {
	m := createTestingMaster(t, regularizer.Config{
		Name: "smooth", Type: regularizer.SmoothSparsePhiType, Tau: 0.1})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, e := m.FitOffline(5)
		assert.NoError(t, e)
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			assert.NoError(t, m.ReconfigureRegularizer(regularizer.Config{
				Name: "smooth", Tau: 0.1,
				Config: json.RawMessage(`{"topic_name":["t0"]}`)}))
		}
	}()
	wg.Wait()
	checkNormalized(t, m.Model())
}

func TestDiskMaster(t *testing.T) {
	dir, e := ioutil.TempDir("", "")
	require.NoError(t, e)
	defer os.RemoveAll(dir)
	require.NoError(t, batch.Save(batch.CreateTestingBatch(), path.Join(dir, "a"+batch.Ext)))

	m, e := NewMaster(&Config{NumTopics: 2, DiskPath: dir})
	require.NoError(t, e)
	assert.Len(t, m.Tasks(), 1)

	_, e = m.AddBatch(batch.CreateTestingBatch())
	assert.ErrorIs(t, e, generation.ErrInvalidOperation)
	m.RemoveBatch(m.Tasks()[0].Uuid)
	assert.Len(t, m.Tasks(), 1)

	_, e = m.GatherDictionary("d")
	require.NoError(t, e)
	require.NoError(t, m.Initialize("d"))
	_, e = m.FitOffline(1)
	require.NoError(t, e)
	checkNormalized(t, m.Model())
}

func TestSetModel(t *testing.T) {
	m, e := NewMaster(&Config{TopicNames: []string{"t0", "t1", "t2"}})
	require.NoError(t, e)
	require.NoError(t, m.SetModel(phi.CreateTestingMatrix()))

	n, e := NewMaster(&Config{NumTopics: 3})
	require.NoError(t, e)
	assert.Error(t, n.SetModel(phi.CreateTestingMatrix()))
}
