// Package batch defines the unit of training data, a batch of
// documents, and how batches are persisted and discovered on disk.
package batch

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/godist/artm/core/persist"
	"github.com/godist/artm/core/phi"
	"github.com/google/uuid"
	fs "github.com/wangkuiyi/file"
)

const (
	Ext           = ".batch"
	CompressedExt = ".batch.gz"
)

// Batch is a set of documents sharing a local token table.  Token[i]
// and ClassId[i] describe the token referred to by TokenId i of items.
type Batch struct {
	Id      string
	Token   []string
	ClassId []string // Could be shorter than Token in persisted batches.
	Item    []Item
}

// Item is a document as a bag of tokens.
type Item struct {
	Id          int
	Title       string
	TokenId     []int
	TokenWeight []float32
}

func (b *Batch) Len() int { return len(b.Item) }

// Tok returns the token with batch-local id i.  PopulateClassId must
// have been called.
func (b *Batch) Tok(i int) phi.Token {
	return phi.NewToken(b.Token[i], b.ClassId[i])
}

// PopulateClassId assigns the default class to tokens whose class id
// is not stored.
func PopulateClassId(b *Batch) {
	for len(b.ClassId) < len(b.Token) {
		b.ClassId = append(b.ClassId, phi.DefaultClass)
	}
}

var ErrMalformed = errors.New("Malformed batch")

// CheckItem returns an error if the i-th item refers to a token not in
// b, or has a different number of token ids and weights.
func (b *Batch) CheckItem(i int) error {
	item := &b.Item[i]
	if len(item.TokenId) != len(item.TokenWeight) {
		return fmt.Errorf("%w: item %d has %d token ids but %d weights",
			ErrMalformed, i, len(item.TokenId), len(item.TokenWeight))
	}
	for _, id := range item.TokenId {
		if id < 0 || id >= len(b.Token) {
			return fmt.Errorf("%w: item %d refers to token %d of %d",
				ErrMalformed, i, id, len(b.Token))
		}
	}
	return nil
}

// Validate checks that every item of b is well formed and that b does
// not store more class ids than tokens.
func Validate(b *Batch) error {
	if b == nil {
		return fmt.Errorf("%w: nil batch", ErrMalformed)
	}
	if len(b.ClassId) > len(b.Token) {
		return fmt.Errorf("%w: %d class ids for %d tokens",
			ErrMalformed, len(b.ClassId), len(b.Token))
	}
	for i := range b.Item {
		if e := b.CheckItem(i); e != nil {
			return e
		}
	}
	return nil
}

// Task refers to a batch that is not loaded yet.
type Task struct {
	Uuid     uuid.UUID
	FilePath string
}

// Save writes b into filename.  A filename ending with ".gz" gets a
// compressed file.
func Save(b *Batch, filename string) error {
	return persist.Save(filename, b)
}

// Load reads a batch as it is stored.  It does not populate class ids.
func Load(filename string) (*Batch, error) {
	b := new(Batch)
	if e := persist.Load(filename, b); e != nil {
		return nil, e
	}
	return b, nil
}

// IsBatchFile returns the name without its batch extension and true,
// if name is a batch file name.
func IsBatchFile(name string) (string, bool) {
	for _, ext := range []string{CompressedExt, Ext} {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return "", false
}

// ListAll returns a task for each batch file directly under dir,
// ordered by file name.  A file named by a UUID gets that UUID; other
// files get a UUID derived from their path, so listing the same
// directory twice gives the same tasks.
func ListAll(dir string) ([]Task, error) {
	is, e := fs.ReadDir(dir)
	if e != nil {
		return nil, e
	}
	sort.Slice(is, func(i, j int) bool { return is[i].Name() < is[j].Name() })

	tasks := make([]Task, 0, len(is))
	for _, info := range is {
		if info.IsDir() {
			continue
		}
		stem, ok := IsBatchFile(info.Name())
		if !ok {
			continue
		}
		filePath := path.Join(dir, info.Name())
		id, e := uuid.Parse(stem)
		if e != nil {
			id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(filePath))
		}
		tasks = append(tasks, Task{Uuid: id, FilePath: filePath})
	}
	return tasks, nil
}
