package generation

import (
	"fmt"
	"sync"

	"github.com/godist/artm/core/batch"
	"github.com/google/uuid"
)

// Memory holds batches added by AddBatch.  Tasks are listed in the
// order batches were added.
type Memory struct {
	mutex   sync.RWMutex
	tasks   []batch.Task
	batches map[uuid.UUID]*batch.Batch
}

func NewMemory() *Memory {
	return &Memory{
		tasks:   make([]batch.Task, 0),
		batches: make(map[uuid.UUID]*batch.Batch),
	}
}

func (g *Memory) Tasks() []batch.Task {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]batch.Task(nil), g.tasks...)
}

// Batch returns the stored batch itself.  Callers must not modify it.
func (g *Memory) Batch(task batch.Task) (*batch.Batch, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	if b, ok := g.batches[task.Uuid]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, task.Uuid)
}

// AddBatch stores a shallow copy of b whose Id is a new uuid.  Class
// ids of the copy are populated.  Malformed batches are rejected.
func (g *Memory) AddBatch(b *batch.Batch) (uuid.UUID, error) {
	if b == nil {
		return uuid.Nil, fmt.Errorf("%w: AddBatch(nil)", ErrInvalidOperation)
	}
	if e := batch.Validate(b); e != nil {
		return uuid.Nil, e
	}
	id := uuid.New()
	c := *b
	c.Id = id.String()
	c.ClassId = append([]string(nil), b.ClassId...)
	batch.PopulateClassId(&c)

	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.batches[id] = &c
	g.tasks = append(g.tasks, batch.Task{Uuid: id})
	return id, nil
}

// RemoveBatch does nothing if id is unknown.
func (g *Memory) RemoveBatch(id uuid.UUID) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if _, ok := g.batches[id]; !ok {
		return
	}
	delete(g.batches, id)
	for i := range g.tasks {
		if g.tasks[i].Uuid == id {
			g.tasks = append(g.tasks[:i], g.tasks[i+1:]...)
			break
		}
	}
}
