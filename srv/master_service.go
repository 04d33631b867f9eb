package srv

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"

	"github.com/godist/artm/core/batch"
	"github.com/godist/artm/core/dict"
	"github.com/godist/artm/core/generation"
	"github.com/godist/artm/core/phi"
	"github.com/godist/artm/core/processor"
	"github.com/godist/artm/core/regularizer"
	log "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/wangkuiyi/parallel"
)

var (
	ErrNotInitialized       = errors.New("Model not initialized")
	ErrRegularizerNotFound  = errors.New("Regularizer not found")
	ErrDuplicateRegularizer = errors.New("Duplicated regularizer")
	ErrDictionaryNotFound   = errors.New("Dictionary not found")
)

type regularizerEntry struct {
	cfg regularizer.Config
	r   regularizer.Regularizer
}

// Master drives training iterations.  It loads batches from a
// Generation, dispatches them to processors, regularizes and
// normalizes the model.  Master implements generation.Generation by
// forwarding to its own, so it can serve remote batch producers.
type Master struct {
	cfg       *Config
	gen       generation.Generation
	dicts     *dict.Registry
	processor *processor.Processor

	// regs is read-locked during the regularization phase, and
	// write-locked by regularizer management.
	regs sync.RWMutex
	reg  []*regularizerEntry

	model       sync.RWMutex
	pwt         *phi.Dense
	nwt         *phi.Dense // counters accumulated by FitOnline
	updateCount int
}

func NewMaster(c *Config) (*Master, error) {
	if e := c.Validate(); e != nil {
		return nil, e
	}
	gen, e := generation.New(c.DiskPath)
	if e != nil {
		return nil, e
	}
	m := &Master{
		cfg:       c,
		gen:       gen,
		dicts:     dict.NewRegistry(),
		processor: processor.New(c.NumDocumentPasses),
		reg:       make([]*regularizerEntry, 0, len(c.Regularizers)),
	}

	if len(c.DictionaryFile) > 0 {
		d, e := dict.Load(c.DictionaryFile)
		if e != nil {
			return nil, e
		}
		m.dicts.Add(d)
		if len(c.InitialDictionary) == 0 {
			c.InitialDictionary = d.Name()
		}
	}

	for _, rc := range c.Regularizers {
		if e := m.CreateRegularizer(rc); e != nil {
			return nil, e
		}
	}
	return m, nil
}

func (m *Master) Config() *Config             { return m.cfg }
func (m *Master) Dictionaries() *dict.Registry { return m.dicts }

// Model returns the current Phi matrix, or nil before initialization.
// The returned matrix is never modified by Master.
func (m *Master) Model() *phi.Dense {
	m.model.RLock()
	defer m.model.RUnlock()
	return m.pwt
}

// SetModel replaces the model, e.g., by one loaded from a file.
// Topic names of pwt must be those of the config.
func (m *Master) SetModel(pwt *phi.Dense) error {
	if !equalStrings(pwt.TopicNames(), m.cfg.TopicNames) {
		return fmt.Errorf("Model topics %v differ from configured %v",
			pwt.TopicNames(), m.cfg.TopicNames)
	}
	m.model.Lock()
	defer m.model.Unlock()
	m.pwt = pwt
	m.nwt = nil
	m.updateCount = 0
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Initialize creates a random model whose rows are the tokens of the
// named dictionary.  Initial values of a token depend only on the
// token and c.Seed.
func (m *Master) Initialize(dictionaryName string) error {
	if len(dictionaryName) == 0 {
		dictionaryName = m.cfg.InitialDictionary
	}
	d := m.dicts.Dictionary(dictionaryName)
	if d == nil {
		return fmt.Errorf("%w: %q", ErrDictionaryNotFound, dictionaryName)
	}

	pwt := phi.NewDense(d.Tokens(), m.cfg.TopicNames)
	for w := 0; w < pwt.TokenSize(); w++ {
		rng := rand.New(rand.NewSource(m.cfg.Seed ^ tokenHash(pwt.Token(w))))
		for t := 0; t < pwt.TopicSize(); t++ {
			pwt.Set(w, t, rng.Float64())
		}
	}
	phi.Normalize(pwt, nil, pwt)

	log.Infof("Initialized model of %d tokens and %d topics from dictionary %s",
		pwt.TokenSize(), pwt.TopicSize(), dictionaryName)
	return m.SetModel(pwt)
}

func tokenHash(t phi.Token) int64 {
	h := fnv.New64a()
	h.Write([]byte(t.Keyword))
	h.Write([]byte{0})
	h.Write([]byte(t.ClassId))
	return int64(h.Sum64())
}

// GatherDictionary builds a dictionary named name from all batches of
// the generation and registers it.
func (m *Master) GatherDictionary(name string) (*dict.Dictionary, error) {
	tasks := m.gen.Tasks()
	batches := make([]*batch.Batch, 0, len(tasks))
	for _, task := range tasks {
		b, e := m.gen.Batch(task)
		if errors.Is(e, generation.ErrBatchNotFound) {
			continue
		} else if e != nil {
			return nil, e
		}
		// Gather populates class ids, so it must not touch stored batches.
		c := *b
		c.ClassId = append([]string(nil), b.ClassId...)
		batches = append(batches, &c)
	}
	d := dict.Gather(name, batches)
	m.dicts.Add(d)
	log.Infof("Gathered dictionary %s of %d tokens from %d batches",
		name, d.Len(), len(batches))
	return d, nil
}

// process runs processors over tasks in parallel and returns the
// merged counters.
func (m *Master) process(pwt *phi.Dense, tasks []batch.Task) (*phi.Dense, processor.Stats, error) {
	var total processor.Stats
	shards := m.cfg.NumProcessors
	if shards > len(tasks) {
		shards = len(tasks)
	}
	if shards == 0 {
		return phi.NewDenseLike(pwt), total, nil
	}

	nwts := make([]*phi.Dense, shards)
	stats := make([]processor.Stats, shards)
	if e := parallel.For(0, shards, 1, func(i int) error {
		nwts[i] = phi.NewDenseLike(pwt)
		for j := i; j < len(tasks); j += shards {
			b, e := m.gen.Batch(tasks[j])
			if errors.Is(e, generation.ErrBatchNotFound) {
				continue // removed since listed
			} else if e != nil {
				return fmt.Errorf("Cannot load batch %s: %w", tasks[j].Uuid, e)
			}
			stats[i].Add(m.processor.Process(b, pwt, nwts[i]))
		}
		return nil
	}); e != nil {
		return nil, total, e
	}

	for i := 1; i < shards; i++ {
		nwts[0].Add(nwts[i], 1)
	}
	for i := range stats {
		total.Add(stats[i])
	}
	return nwts[0], total, nil
}

// FitOffline runs passes over all batches.  Each pass processes all
// batches with the same model, then regularizes and normalizes.
func (m *Master) FitOffline(passes int) (processor.Stats, error) {
	var stats processor.Stats
	for pass := 0; pass < passes; pass++ {
		pwt := m.Model()
		if pwt == nil {
			return stats, ErrNotInitialized
		}
		nwt, s, e := m.process(pwt, m.gen.Tasks())
		if e != nil {
			return stats, e
		}
		stats = s
		m.update(pwt, nwt)
		log.Infof("Pass %d processed %d documents, perplexity %f",
			pass, s.Items, s.Perplexity())
	}
	return stats, nil
}

// FitOnline makes one pass over all batches, updating the model after
// every updateEvery batches.  The i-th update weights new counters by
// rho = (tau0 + i)^-kappa and old ones by 1 - rho.
func (m *Master) FitOnline(updateEvery int, tau0, kappa float64) (processor.Stats, error) {
	var stats processor.Stats
	if updateEvery <= 0 {
		return stats, fmt.Errorf("updateEvery (%d) must be positive", updateEvery)
	}
	if tau0 <= 0 {
		return stats, fmt.Errorf("tau0 (%f) must be positive", tau0)
	}
	tasks := m.gen.Tasks()
	for lo := 0; lo < len(tasks); lo += updateEvery {
		hi := lo + updateEvery
		if hi > len(tasks) {
			hi = len(tasks)
		}

		pwt := m.Model()
		if pwt == nil {
			return stats, ErrNotInitialized
		}
		nwt, s, e := m.process(pwt, tasks[lo:hi])
		if e != nil {
			return stats, e
		}
		stats.Add(s)

		m.model.Lock()
		rho := math.Pow(tau0+float64(m.updateCount), -kappa)
		if m.nwt == nil || m.nwt.TokenSize() != nwt.TokenSize() {
			m.nwt = nwt
		} else {
			m.nwt.Scale(1 - rho)
			m.nwt.Add(nwt, rho)
		}
		m.updateCount++
		acc := m.nwt.Clone()
		m.model.Unlock()

		m.update(pwt, acc)
		log.Infof("Online update %d with rho %f over batches [%d, %d)",
			m.updateCount, rho, lo, hi)
	}
	return stats, nil
}

// update regularizes nwt and installs the normalized model.
func (m *Master) update(pwt, nwt *phi.Dense) {
	rwt := m.RegularizeModel(pwt, nwt)
	next := phi.NewDenseLike(pwt)
	phi.Normalize(nwt, rwt, next)

	m.model.Lock()
	defer m.model.Unlock()
	m.pwt = next
}

// RegularizeModel returns sum_r tau_r * R_r, where R_r is computed by
// regularizer r from pwt and nwt.  Each regularizer runs concurrently
// on disjoint row ranges.  A regularizer returning an error is
// skipped.
func (m *Master) RegularizeModel(pwt, nwt *phi.Dense) *phi.Dense {
	rwt := phi.NewDenseLike(pwt)
	ranges := phi.NewSharder(m.cfg.NumProcessors).ShardRows(pwt.TokenSize())

	m.regs.RLock()
	defer m.regs.RUnlock()
	for _, entry := range m.reg {
		result := phi.NewDenseLike(pwt)
		if e := parallel.For(0, len(ranges), 1, func(i int) error {
			return entry.r.RegularizePhi(phi.Rows(pwt, ranges[i]),
				phi.Rows(nwt, ranges[i]), phi.MutableRows(result, ranges[i]))
		}); e != nil {
			log.Errorf("Regularizer %s failed: %v", entry.cfg.Name, e)
			continue
		}
		rwt.Add(result, entry.cfg.Tau)
	}
	return rwt
}

func (m *Master) findRegularizer(name string) int {
	for i, entry := range m.reg {
		if entry.cfg.Name == name {
			return i
		}
	}
	return -1
}

func (m *Master) CreateRegularizer(c regularizer.Config) error {
	m.regs.Lock()
	defer m.regs.Unlock()
	if m.findRegularizer(c.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRegularizer, c.Name)
	}
	r, e := regularizer.New(c, m.dicts)
	if e != nil {
		return fmt.Errorf("Cannot create regularizer %s: %w", c.Name, e)
	}
	m.reg = append(m.reg, &regularizerEntry{c, r})
	log.Infof("Created regularizer %s of type %s", c.Name, c.Type)
	return nil
}

// ReconfigureRegularizer waits for the regularization phase in
// progress.  If it fails, the regularizer keeps its configuration and
// tau.
func (m *Master) ReconfigureRegularizer(c regularizer.Config) error {
	m.regs.Lock()
	defer m.regs.Unlock()
	i := m.findRegularizer(c.Name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRegularizerNotFound, c.Name)
	}
	entry := m.reg[i]
	if len(c.Type) > 0 && c.Type != entry.cfg.Type {
		return fmt.Errorf("Cannot change type of regularizer %s from %s to %s",
			c.Name, entry.cfg.Type, c.Type)
	}
	if e := entry.r.Reconfigure(c.Config); e != nil {
		return fmt.Errorf("Cannot reconfigure regularizer %s: %w", c.Name, e)
	}
	c.Type = entry.cfg.Type
	entry.cfg = c
	return nil
}

// DisposeRegularizer does nothing if name is unknown.
func (m *Master) DisposeRegularizer(name string) {
	m.regs.Lock()
	defer m.regs.Unlock()
	if i := m.findRegularizer(name); i >= 0 {
		m.reg = append(m.reg[:i], m.reg[i+1:]...)
	}
}

// Regularizers returns configurations of active regularizers.
func (m *Master) Regularizers() []regularizer.Config {
	m.regs.RLock()
	defer m.regs.RUnlock()
	cs := make([]regularizer.Config, len(m.reg))
	for i, entry := range m.reg {
		cs[i] = entry.cfg
	}
	return cs
}

func (m *Master) Tasks() []batch.Task { return m.gen.Tasks() }

func (m *Master) Batch(task batch.Task) (*batch.Batch, error) {
	return m.gen.Batch(task)
}

func (m *Master) AddBatch(b *batch.Batch) (uuid.UUID, error) {
	return m.gen.AddBatch(b)
}

func (m *Master) RemoveBatch(id uuid.UUID) { m.gen.RemoveBatch(id) }
