// Package generation provides the sources of batches a trainer
// iterates over.  A disk generation serves the batch files found in a
// directory, and a memory generation serves batches added at runtime.
package generation

import (
	"errors"
	"fmt"
	"path"

	"github.com/godist/artm/core/batch"
	"github.com/google/uuid"
	log "github.com/golang/glog"
)

var (
	ErrInvalidOperation = errors.New("Invalid operation")
	ErrBatchNotFound    = errors.New("Batch not found")
)

// Generation is safe for concurrent use.
type Generation interface {
	// Tasks lists batches in a stable order.
	Tasks() []batch.Task
	// Batch loads the batch of task.  The Id of the returned batch
	// equals task.Uuid.
	Batch(task batch.Task) (*batch.Batch, error)
	AddBatch(b *batch.Batch) (uuid.UUID, error)
	RemoveBatch(id uuid.UUID)
}

// New returns a disk generation over diskPath, or a memory generation
// if diskPath is empty.
func New(diskPath string) (Generation, error) {
	if len(diskPath) > 0 {
		return NewDisk(diskPath)
	}
	return NewMemory(), nil
}

// Disk never changes after NewDisk returns.  Batch files added to the
// directory later are not visible.
type Disk struct {
	diskPath string
	tasks    []batch.Task
}

func NewDisk(diskPath string) (*Disk, error) {
	tasks, e := batch.ListAll(diskPath)
	if e != nil {
		return nil, fmt.Errorf("Cannot list batches in %s: %w", diskPath, e)
	}
	log.Infof("Found %d batches in %s", len(tasks), diskPath)
	return &Disk{diskPath: diskPath, tasks: tasks}, nil
}

func (g *Disk) Tasks() []batch.Task {
	return append([]batch.Task(nil), g.tasks...)
}

func (g *Disk) Batch(task batch.Task) (*batch.Batch, error) {
	b, e := batch.Load(task.FilePath)
	if e != nil {
		return nil, e
	}
	if e := batch.Validate(b); e != nil {
		return nil, fmt.Errorf("%s: %w", task.FilePath, e)
	}
	b.Id = task.Uuid.String()
	batch.PopulateClassId(b)
	return b, nil
}

func (g *Disk) AddBatch(*batch.Batch) (uuid.UUID, error) {
	return uuid.Nil, fmt.Errorf("%w: AddBatch is not allowed when DiskPath "+
		"is set (%s). Set DiskPath to an empty string to enable AddBatch, "+
		"or save batches into %s by generation.Save.",
		ErrInvalidOperation, g.diskPath, g.diskPath)
}

func (g *Disk) RemoveBatch(id uuid.UUID) {
	log.Warningf("RemoveBatch(%s) is not supported by disk generation", id)
}

// Save writes all batches of g into dir, one file per batch named by
// its task uuid, and returns the number of saved batches.
func Save(g Generation, dir string) (int, error) {
	n := 0
	for _, task := range g.Tasks() {
		b, e := g.Batch(task)
		if errors.Is(e, ErrBatchNotFound) {
			continue // removed meanwhile
		} else if e != nil {
			return n, e
		}
		if e := batch.Save(b, path.Join(dir, task.Uuid.String()+batch.Ext)); e != nil {
			return n, e
		}
		n++
	}
	return n, nil
}
