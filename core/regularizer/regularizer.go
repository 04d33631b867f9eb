// Package regularizer implements additive regularizers of Phi.  A
// regularizer computes, from the current Phi, a contribution that the
// trainer adds to the expected counters before normalization.
package regularizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/godist/artm/core/dict"
	"github.com/godist/artm/core/phi"
)

var (
	ErrUnknownType     = errors.New("Unknown regularizer type")
	ErrCorruptedConfig = errors.New("Corrupted regularizer config")
)

// Regularizer is implemented by each variant.  RegularizePhi can be
// called concurrently on disjoint result matrices.  Reconfigure must
// not run concurrently with RegularizePhi.
type Regularizer interface {
	// RegularizePhi writes into result the contribution computed from
	// pwt and nwt.  All three matrices must have the same shape.
	// Entries a regularizer does not cover are left untouched.
	RegularizePhi(pwt, nwt phi.Matrix, result phi.MutableMatrix) error
	// Reconfigure replaces the variant-specific configuration.  On
	// error, the active configuration is kept.
	Reconfigure(blob []byte) error
	TopicsToRegularize() []string
	ClassIdsToRegularize() []string
}

// DictionaryResolver finds dictionaries by name.  It returns nil for
// unknown names.  *dict.Registry is a DictionaryResolver.
type DictionaryResolver interface {
	Dictionary(name string) *dict.Dictionary
}

// Config describes a regularizer instance.  Config is the JSON blob
// interpreted by the variant named by Type.
type Config struct {
	Name   string
	Type   string
	Tau    float64
	Config json.RawMessage `json:",omitempty"`
}

// Constructor creates a regularizer from its variant-specific blob.
type Constructor func(blob []byte, dicts DictionaryResolver) (Regularizer, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register makes a variant available to New.  It is usually called in
// the init function of the variant.
func Register(typ string, c Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[typ]; dup {
		panic("Register called twice for regularizer type " + typ)
	}
	registry[typ] = c
}

// Types lists registered variants.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ts := make([]string, 0, len(registry))
	for t := range registry {
		ts = append(ts, t)
	}
	sort.Strings(ts)
	return ts
}

// New creates the regularizer described by c.
func New(c Config, dicts DictionaryResolver) (Regularizer, error) {
	registryMu.RLock()
	ctor, ok := registry[c.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
	return ctor(c.Config, dicts)
}
