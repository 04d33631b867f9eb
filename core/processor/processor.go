// Package processor implements the E-step: it infers topic
// distributions of documents under a fixed Phi and accumulates the
// expected token-topic counters.
package processor

import (
	"math"

	"github.com/godist/artm/core/batch"
	"github.com/godist/artm/core/phi"
)

type Processor struct {
	// NumDocumentPasses is the number of fixed-point iterations
	// inferring theta of each document.
	NumDocumentPasses int
}

func New(numDocumentPasses int) *Processor {
	if numDocumentPasses <= 0 {
		numDocumentPasses = 1
	}
	return &Processor{NumDocumentPasses: numDocumentPasses}
}

// Stats summarizes a processed batch.  Perplexity of a set of batches
// is exp(-sum(LogLikelihood) / sum(Tokens)).
type Stats struct {
	Items         int
	Tokens        float64
	LogLikelihood float64
}

func (s *Stats) Add(o Stats) {
	s.Items += o.Items
	s.Tokens += o.Tokens
	s.LogLikelihood += o.LogLikelihood
}

// Perplexity returns 0 if no token was processed.
func (s Stats) Perplexity() float64 {
	if s.Tokens <= 0 {
		return 0
	}
	return math.Exp(-s.LogLikelihood / s.Tokens)
}

// Process adds the expected counters of documents in b to nwt, which
// must have the rows and topics of pwt.  Tokens not in pwt are
// ignored, and so are malformed items.  Class ids of b must be
// populated.
func (p *Processor) Process(b *batch.Batch, pwt *phi.Dense, nwt phi.MutableMatrix) Stats {
	var stats Stats
	topics := pwt.TopicSize()
	if topics == 0 {
		return stats
	}

	rows := make([]int, len(b.Token))
	for i := range rows {
		rows[i] = pwt.TokenId(b.Tok(i))
	}

	theta := make([]float64, topics)
	ntd := make([]float64, topics)
	for j := range b.Item {
		if b.CheckItem(j) != nil {
			continue
		}
		item := &b.Item[j]
		for t := range theta {
			theta[t] = 1.0 / float64(topics)
		}

		for pass := 0; pass < p.NumDocumentPasses; pass++ {
			for t := range ntd {
				ntd[t] = 0
			}
			for i, id := range item.TokenId {
				w := rows[id]
				if w < 0 {
					continue
				}
				z := zeta(pwt, w, theta)
				if z <= 0 {
					continue
				}
				weight := float64(item.TokenWeight[i])
				for t := range ntd {
					ntd[t] += weight * pwt.Get(w, t) * theta[t] / z
				}
			}
			normalize(ntd, theta)
		}

		for i, id := range item.TokenId {
			w := rows[id]
			if w < 0 {
				continue
			}
			z := zeta(pwt, w, theta)
			if z <= 0 {
				continue
			}
			weight := float64(item.TokenWeight[i])
			for t := 0; t < topics; t++ {
				nwt.Set(w, t, nwt.Get(w, t)+weight*pwt.Get(w, t)*theta[t]/z)
			}
			stats.Tokens += weight
			stats.LogLikelihood += weight * math.Log(z)
		}
		stats.Items++
	}
	return stats
}

// zeta returns p(w|d) = sum_t pwt[w,t] * theta[t].
func zeta(pwt *phi.Dense, w int, theta []float64) float64 {
	z := 0.0
	for t, p := range pwt.Row(w) {
		z += p * theta[t]
	}
	return z
}

// normalize writes counts/sum(counts) into theta, or keeps theta if
// the sum is zero.
func normalize(counts, theta []float64) {
	sum := 0.0
	for _, c := range counts {
		sum += c
	}
	if sum <= 0 {
		return
	}
	for t, c := range counts {
		theta[t] = c / sum
	}
}
