package phi

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is the read-only view of a token-by-topic matrix.  Rows are
// tokens and columns are topics.
type Matrix interface {
	TokenSize() int
	TopicSize() int
	Token(id int) Token
	// TopicNames must not be modified by callers.
	TopicNames() []string
	Get(tokenId, topicId int) float64
}

// MutableMatrix is a Matrix that accepts writes.
type MutableMatrix interface {
	Matrix
	Set(tokenId, topicId int, value float64)
}

// Dense is a Phi matrix whose values are stored in a gonum dense
// matrix.  Concurrent Set calls are safe as long as they write
// different entries.
type Dense struct {
	tokens *TokenCollection
	topics []string
	values *mat.Dense // nil iff the matrix has no token or no topic.
}

func NewDense(tokens *TokenCollection, topicNames []string) *Dense {
	if tokens == nil {
		panic("tokens is nil")
	}
	if tokens.ids == nil {
		tokens.buildIdMap()
	}
	d := &Dense{
		tokens: tokens,
		topics: append([]string(nil), topicNames...),
	}
	if tokens.Len() > 0 && len(topicNames) > 0 {
		d.values = mat.NewDense(tokens.Len(), len(topicNames), nil)
	}
	return d
}

// NewDenseLike returns a zero matrix sharing the token collection and
// topic names of m.
func NewDenseLike(m *Dense) *Dense {
	return NewDense(m.tokens, m.topics)
}

func (d *Dense) TokenSize() int       { return d.tokens.Len() }
func (d *Dense) TopicSize() int       { return len(d.topics) }
func (d *Dense) Token(id int) Token   { return d.tokens.Token(id) }
func (d *Dense) TopicNames() []string { return d.topics }

// Tokens returns the token collection shared by d.
func (d *Dense) Tokens() *TokenCollection { return d.tokens }

// TokenId returns the row of token, or a negative value if d does not
// contain it.
func (d *Dense) TokenId(token Token) int { return d.tokens.Id(token) }

func (d *Dense) Get(tokenId, topicId int) float64 {
	return d.values.At(tokenId, topicId)
}

func (d *Dense) Set(tokenId, topicId int, value float64) {
	d.values.Set(tokenId, topicId, value)
}

// Row returns the values of a token.  The returned slice aliases the
// storage of d.
func (d *Dense) Row(tokenId int) []float64 {
	return d.values.RawRowView(tokenId)
}

func (d *Dense) Clone() *Dense {
	n := &Dense{tokens: d.tokens, topics: d.topics}
	if d.values != nil {
		n.values = mat.DenseCopyOf(d.values)
	}
	return n
}

// Add accumulates weight*o into d.  o must have the shape of d.
func (d *Dense) Add(o *Dense, weight float64) {
	if d.values == nil {
		return
	}
	var scaled mat.Dense
	scaled.Scale(weight, o.values)
	d.values.Add(d.values, &scaled)
}

func (d *Dense) Scale(f float64) {
	if d.values != nil {
		d.values.Scale(f, d.values)
	}
}

func (d *Dense) Reset() {
	if d.values != nil {
		d.values.Zero()
	}
}

type denseGob struct {
	Tokens     []Token
	TopicNames []string
	Values     []float64
}

// GobEncode implements gob.GobEncoder, so a model can be saved by
// gob.NewEncoder(w).Encode(d).
func (d *Dense) GobEncode() ([]byte, error) {
	g := denseGob{Tokens: d.tokens.Tokens, TopicNames: d.topics}
	if d.values != nil {
		g.Values = make([]float64, 0, d.TokenSize()*d.TopicSize())
		for i := 0; i < d.TokenSize(); i++ {
			g.Values = append(g.Values, d.values.RawRowView(i)...)
		}
	}
	var buf bytes.Buffer
	if e := gob.NewEncoder(&buf).Encode(g); e != nil {
		return nil, e
	}
	return buf.Bytes(), nil
}

func (d *Dense) GobDecode(b []byte) error {
	var g denseGob
	if e := gob.NewDecoder(bytes.NewReader(b)).Decode(&g); e != nil {
		return e
	}
	if len(g.Values) != len(g.Tokens)*len(g.TopicNames) {
		return fmt.Errorf("Corrupted phi matrix: %d values for %d x %d",
			len(g.Values), len(g.Tokens), len(g.TopicNames))
	}
	d.tokens = &TokenCollection{Tokens: g.Tokens}
	d.tokens.buildIdMap()
	d.topics = g.TopicNames
	d.values = nil
	if len(g.Values) > 0 {
		d.values = mat.NewDense(len(g.Tokens), len(g.TopicNames), g.Values)
	}
	return nil
}
