package batch

import (
	"strings"

	"github.com/godist/artm/core/phi"
	"github.com/google/uuid"
)

// ParseToken parses "keyword" or "keyword|class".
func ParseToken(s string) phi.Token {
	if i := strings.LastIndex(s, "|"); i > 0 && i < len(s)-1 {
		return phi.NewToken(s[:i], s[i+1:])
	}
	return phi.NewToken(s, "")
}

// Builder groups documents into batches.  Each batch but the last one
// has itemsPerBatch items.  A complete batch is passed to emit.
type Builder struct {
	itemsPerBatch int
	emit          func(*Batch) error

	current  *Batch
	ids      map[phi.Token]int
	nextItem int
}

func NewBuilder(itemsPerBatch int, emit func(*Batch) error) *Builder {
	if itemsPerBatch <= 0 {
		panic("itemsPerBatch must be positive")
	}
	return &Builder{itemsPerBatch: itemsPerBatch, emit: emit}
}

// Add appends a document to the current batch.  Repeated words of a
// document add up to the weight of a token.  Documents without words
// are ignored.
func (b *Builder) Add(title string, words []string) error {
	if len(words) == 0 {
		return nil
	}
	if b.current == nil {
		b.current = &Batch{Id: uuid.New().String()}
		b.ids = make(map[phi.Token]int)
	}

	item := Item{Id: b.nextItem, Title: title}
	local := make(map[int]int) // batch token id -> index in item
	for _, w := range words {
		tok := ParseToken(w)
		id, ok := b.ids[tok]
		if !ok {
			id = len(b.current.Token)
			b.ids[tok] = id
			b.current.Token = append(b.current.Token, tok.Keyword)
			b.current.ClassId = append(b.current.ClassId, tok.ClassId)
		}
		if i, ok := local[id]; ok {
			item.TokenWeight[i]++
		} else {
			local[id] = len(item.TokenId)
			item.TokenId = append(item.TokenId, id)
			item.TokenWeight = append(item.TokenWeight, 1)
		}
	}
	b.current.Item = append(b.current.Item, item)
	b.nextItem++

	if len(b.current.Item) >= b.itemsPerBatch {
		return b.Flush()
	}
	return nil
}

// Flush emits the current batch if it is not empty.
func (b *Builder) Flush() error {
	if b.current == nil {
		return nil
	}
	c := b.current
	b.current = nil
	return b.emit(c)
}
