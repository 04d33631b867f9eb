package regularizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/godist/artm/core/dict"
	"github.com/godist/artm/core/phi"
	"github.com/godist/artm/core/transform"
	log "github.com/golang/glog"
)

const SmoothSparsePhiType = "smooth_sparse_phi"

func init() {
	Register(SmoothSparsePhiType, NewSmoothSparsePhi)
}

// SmoothSparsePhiConfig is the JSON blob of smooth_sparse_phi.  Empty
// TopicName selects all topics, and empty ClassId selects all classes.
type SmoothSparsePhiConfig struct {
	TopicName       []string          `json:"topic_name,omitempty"`
	ClassId         []string          `json:"class_id,omitempty"`
	DictionaryName  string            `json:"dictionary_name,omitempty"`
	TransformConfig *transform.Config `json:"transform_config,omitempty"`
}

// ssState is never modified after it is published.
type ssState struct {
	config    SmoothSparsePhiConfig
	transform transform.Function
}

// SmoothSparsePhi sets result[w,t] = c(w) * f(pwt[w,t]) for selected
// topics and classes, where f is the configured transform and c(w) the
// dictionary value of w.  With a positive tau it smooths Phi, and with
// a negative tau it sparsifies Phi.
type SmoothSparsePhi struct {
	dicts DictionaryResolver
	state atomic.Pointer[ssState]
}

func NewSmoothSparsePhi(blob []byte, dicts DictionaryResolver) (Regularizer, error) {
	r := &SmoothSparsePhi{dicts: dicts}
	if e := r.Reconfigure(blob); e != nil {
		return nil, e
	}
	return r, nil
}

func decodeSmoothSparsePhi(blob []byte) (*ssState, error) {
	s := new(ssState)
	if len(bytes.TrimSpace(blob)) > 0 {
		if e := json.Unmarshal(blob, &s.config); e != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptedConfig, e)
		}
	}
	f, e := transform.Create(s.config.TransformConfig)
	if e != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedConfig, e)
	}
	s.transform = f
	return s, nil
}

// Reconfigure accepts an empty blob as the default configuration.
func (r *SmoothSparsePhi) Reconfigure(blob []byte) error {
	s, e := decodeSmoothSparsePhi(blob)
	if e != nil {
		return e
	}
	r.state.Store(s)
	return nil
}

// TopicsToRegularize returns a copy owned by the caller.
func (r *SmoothSparsePhi) TopicsToRegularize() []string {
	return append([]string(nil), r.state.Load().config.TopicName...)
}

// ClassIdsToRegularize returns a copy owned by the caller.
func (r *SmoothSparsePhi) ClassIdsToRegularize() []string {
	return append([]string(nil), r.state.Load().config.ClassId...)
}

func (r *SmoothSparsePhi) dictionary(name string) *dict.Dictionary {
	if len(name) == 0 {
		return nil
	}
	var d *dict.Dictionary
	if r.dicts != nil {
		d = r.dicts.Dictionary(name)
	}
	if d == nil {
		log.Warningf("Dictionary %s not found, regularize without it", name)
	}
	return d
}

func (r *SmoothSparsePhi) RegularizePhi(pwt, nwt phi.Matrix, result phi.MutableMatrix) error {
	s := r.state.Load()
	mask := phi.TopicMask(pwt, s.config.TopicName)
	allClasses := len(s.config.ClassId) == 0
	d := r.dictionary(s.config.DictionaryName)

	for w := 0; w < pwt.TokenSize(); w++ {
		token := pwt.Token(w)
		if !allClasses && !phi.IsMember(token.ClassId, s.config.ClassId) {
			continue
		}

		coefficient := 1.0
		if d != nil {
			coefficient = 0.0
			if entry, ok := d.Entry(token); ok {
				coefficient = entry.Value
			}
		}

		for t := range mask {
			if mask[t] {
				result.Set(w, t, coefficient*s.transform.Apply(pwt.Get(w, t)))
			}
		}
	}
	return nil
}
