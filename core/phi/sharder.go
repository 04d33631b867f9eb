package phi

import (
	"fmt"
)

// Range is a half-open interval [Lo, Hi) of token ids.
type Range struct {
	Lo, Hi int
}

func (r Range) Len() int { return r.Hi - r.Lo }

// Sharder defines a sequence of fixed number of buckets, and the
// allocation of a zero-based sequence of token ids into these buckets.
// The allocations follows the principle that these buckets have
// similar size.
type Sharder struct {
	Shards int
}

func NewSharder(shards int) Sharder {
	if shards <= 0 {
		panic(fmt.Sprintf("shards (%d) <= 0", shards))
	}
	return Sharder{shards}
}

// ShardRows divides [0, n) into at most s.Shards contiguous ranges.
// The first n%b ranges hold one more token than the others.
func (s Sharder) ShardRows(n int) []Range {
	if n <= 0 {
		return nil
	}
	b := s.Shards
	if n < b {
		b = n
	}
	bucketSize := n / b
	extendedBuckets := n % b

	ranges := make([]Range, 0, b)
	lo := 0
	for j := 0; j < b; j++ {
		size := bucketSize
		if j < extendedBuckets {
			size++
		}
		ranges = append(ranges, Range{lo, lo + size})
		lo += size
	}
	return ranges
}

type rowView struct {
	m      Matrix
	offset int
	size   int
}

func (v *rowView) TokenSize() int       { return v.size }
func (v *rowView) TopicSize() int       { return v.m.TopicSize() }
func (v *rowView) Token(id int) Token   { return v.m.Token(v.offset + id) }
func (v *rowView) TopicNames() []string { return v.m.TopicNames() }

func (v *rowView) Get(tokenId, topicId int) float64 {
	return v.m.Get(v.offset+tokenId, topicId)
}

type mutableRowView struct {
	rowView
	w MutableMatrix
}

func (v *mutableRowView) Set(tokenId, topicId int, value float64) {
	v.w.Set(v.offset+tokenId, topicId, value)
}

// Rows returns a view of the tokens in r.  Token ids of the view start
// from 0.
func Rows(m Matrix, r Range) Matrix {
	checkRange(m, r)
	return &rowView{m, r.Lo, r.Len()}
}

// MutableRows is like Rows, but writes through the view go to m.
// Views over disjoint ranges can be written concurrently if m allows
// concurrent writes to different entries, as Dense does.
func MutableRows(m MutableMatrix, r Range) MutableMatrix {
	checkRange(m, r)
	return &mutableRowView{rowView{m, r.Lo, r.Len()}, m}
}

func checkRange(m Matrix, r Range) {
	if r.Lo < 0 || r.Hi > m.TokenSize() || r.Lo > r.Hi {
		panic(fmt.Sprintf("range [%d, %d) out of [0, %d)",
			r.Lo, r.Hi, m.TokenSize()))
	}
}
