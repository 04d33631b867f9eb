package srv

import (
	"expvar"
	"fmt"
	"net/rpc"

	"github.com/godist/artm/core/batch"
	"github.com/godist/artm/core/generation"
	log "github.com/golang/glog"
	"github.com/google/uuid"
)

const BatchServiceName = "BatchService"

// BatchService exposes a Generation over net/rpc, so that remote
// producers can stream batches into a running trainer.
type BatchService struct {
	gen generation.Generation
}

// RegisterBatchService registers gen on server under BatchServiceName.
// To serve over HTTP, pass rpc.DefaultServer and call rpc.HandleHTTP.
func RegisterBatchService(server *rpc.Server, gen generation.Generation) error {
	return server.RegisterName(BatchServiceName, &BatchService{gen})
}

// PublishTasks publishes the number of batches of gen as an expvar.
func PublishTasks(gen generation.Generation) {
	expvar.Publish("tasks", expvar.Func(func() interface{} {
		return len(gen.Tasks())
	}))
}

func (s *BatchService) ListTasks(_ int, tasks *[]batch.Task) error {
	*tasks = s.gen.Tasks()
	return nil
}

func (s *BatchService) LoadBatch(task batch.Task, b *batch.Batch) error {
	l, e := s.gen.Batch(task)
	if e != nil {
		return e
	}
	*b = *l
	return nil
}

func (s *BatchService) AddBatch(b *batch.Batch, id *uuid.UUID) error {
	u, e := s.gen.AddBatch(b)
	if e != nil {
		return e
	}
	log.V(1).Infof("Added batch %s of %d documents", u, b.Len())
	*id = u
	return nil
}

func (s *BatchService) RemoveBatch(id uuid.UUID, _ *int) error {
	s.gen.RemoveBatch(id)
	return nil
}

// BatchClient calls a remote BatchService.  It implements the methods
// of generation.Generation with error returns, as any call could fail
// in the network.
type BatchClient struct {
	*RpcClient
}

func DialBatchService(addr string) (*BatchClient, error) {
	cs, e := dialAll([]string{addr})
	if e != nil {
		return nil, e
	}
	return &BatchClient{cs[0]}, nil
}

// DialBatchServices connects to a number of trainers in parallel.
func DialBatchServices(addrs []string) ([]*BatchClient, error) {
	cs, e := dialAll(addrs)
	if e != nil {
		return nil, e
	}
	bs := make([]*BatchClient, len(cs))
	for i := range cs {
		bs[i] = &BatchClient{cs[i]}
	}
	return bs, nil
}

// CloseBatchClients closes all clients in parallel.
func CloseBatchClients(bs []*BatchClient) error {
	cs := make([]*RpcClient, len(bs))
	for i := range bs {
		cs[i] = bs[i].RpcClient
	}
	return closeAll(cs)
}

func (c *BatchClient) Tasks() ([]batch.Task, error) {
	var dumb int
	var tasks []batch.Task
	if e := c.Call(BatchServiceName+".ListTasks", dumb, &tasks); e != nil {
		return nil, fmt.Errorf("%s ListTasks: %v", c, e)
	}
	return tasks, nil
}

func (c *BatchClient) Batch(task batch.Task) (*batch.Batch, error) {
	b := new(batch.Batch)
	if e := c.Call(BatchServiceName+".LoadBatch", task, b); e != nil {
		return nil, fmt.Errorf("%s LoadBatch %s: %v", c, task.Uuid, e)
	}
	return b, nil
}

func (c *BatchClient) AddBatch(b *batch.Batch) (uuid.UUID, error) {
	var id uuid.UUID
	if e := c.Call(BatchServiceName+".AddBatch", b, &id); e != nil {
		return uuid.Nil, fmt.Errorf("%s AddBatch: %v", c, e)
	}
	return id, nil
}

func (c *BatchClient) RemoveBatch(id uuid.UUID) error {
	var dumb int
	if e := c.Call(BatchServiceName+".RemoveBatch", id, &dumb); e != nil {
		return fmt.Errorf("%s RemoveBatch %s: %v", c, id, e)
	}
	return nil
}
