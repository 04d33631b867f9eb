// Package dict provides per-token statistics shared read-only by
// regularizers, and a registry that names them.
package dict

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/godist/artm/core/batch"
	"github.com/godist/artm/core/persist"
	"github.com/godist/artm/core/phi"
)

type Entry struct {
	Token phi.Token
	Value float64 // Weight used by regularizers.
	TF    float64 // Total weight of the token in the collection.
	DF    int     // Number of documents containing the token.
}

// Dictionary is immutable after creation, so it is safe for
// concurrent reads.
type Dictionary struct {
	name    string
	entries []Entry
	index   map[phi.Token]int
}

// New creates a dictionary.  If a token appears more than once, the
// last entry wins the lookup.
func New(name string, entries []Entry) *Dictionary {
	d := &Dictionary{
		name:    name,
		entries: append([]Entry(nil), entries...),
	}
	d.buildIndex()
	return d
}

func (d *Dictionary) buildIndex() {
	d.index = make(map[phi.Token]int, len(d.entries))
	for i := range d.entries {
		d.index[d.entries[i].Token] = i
	}
}

func (d *Dictionary) Name() string { return d.name }
func (d *Dictionary) Len() int     { return len(d.entries) }

// Entry returns the entry of token and true, or nil and false if d
// does not cover token.
func (d *Dictionary) Entry(token phi.Token) (*Entry, bool) {
	if i, ok := d.index[token]; ok {
		return &d.entries[i], true
	}
	return nil, false
}

// Entries must not be modified by callers.
func (d *Dictionary) Entries() []Entry { return d.entries }

// Tokens returns a new collection of the tokens of d in entry order.
func (d *Dictionary) Tokens() *phi.TokenCollection {
	c := phi.NewTokenCollection()
	for i := range d.entries {
		c.Add(d.entries[i].Token)
	}
	return c
}

// Gather builds a dictionary from batches.  Entries follow the order
// tokens are first seen.  Value is the share of the token in the
// total weight of all tokens.  Malformed items are skipped.
func Gather(name string, batches []*batch.Batch) *Dictionary {
	entries := make([]Entry, 0)
	index := make(map[phi.Token]int)
	total := 0.0

	for _, b := range batches {
		batch.PopulateClassId(b)
		for k := range b.Item {
			if b.CheckItem(k) != nil {
				continue
			}
			item := &b.Item[k]
			for i, id := range item.TokenId {
				tok := b.Tok(id)
				j, ok := index[tok]
				if !ok {
					j = len(entries)
					index[tok] = j
					entries = append(entries, Entry{Token: tok})
				}
				w := float64(item.TokenWeight[i])
				entries[j].TF += w
				entries[j].DF++
				total += w
			}
		}
	}

	if total > 0 {
		for i := range entries {
			entries[i].Value = entries[i].TF / total
		}
	}
	return New(name, entries)
}

type dictGob struct {
	Name    string
	Entries []Entry
}

func (d *Dictionary) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if e := gob.NewEncoder(&buf).Encode(dictGob{d.name, d.entries}); e != nil {
		return nil, e
	}
	return buf.Bytes(), nil
}

func (d *Dictionary) GobDecode(b []byte) error {
	var g dictGob
	if e := gob.NewDecoder(bytes.NewReader(b)).Decode(&g); e != nil {
		return e
	}
	d.name = g.Name
	d.entries = g.Entries
	d.buildIndex()
	return nil
}

func Save(d *Dictionary, filename string) error {
	return persist.Save(filename, d)
}

func Load(filename string) (*Dictionary, error) {
	d := new(Dictionary)
	if e := persist.Load(filename, d); e != nil {
		return nil, fmt.Errorf("Cannot load dictionary: %w", e)
	}
	return d, nil
}
