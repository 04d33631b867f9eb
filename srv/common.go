package srv

import (
	"fmt"
	"net/rpc"

	"github.com/wangkuiyi/parallel"
)

// RpcClient represent rpc.Client and the address.  This makes it easy
// to display RPC connections in logs or expvars.
type RpcClient struct {
	*rpc.Client
	Name string
}

// String is required by interface Stringer.
func (r *RpcClient) String() string {
	return r.Name
}

// dialAll connects to all addrs in parallel.  It fails if any of them
// fails, after closing the connected ones.
func dialAll(addrs []string) ([]*RpcClient, error) {
	clients := make([]*RpcClient, len(addrs))
	if e := parallel.For(0, len(addrs), 1, func(i int) error {
		c, e := rpc.DialHTTP("tcp", addrs[i])
		if e != nil {
			return fmt.Errorf("Connect to %s: %v", addrs[i], e)
		}
		clients[i] = &RpcClient{c, addrs[i]}
		return nil
	}); e != nil {
		for _, c := range clients {
			if c != nil {
				c.Close()
			}
		}
		return nil, e
	}
	return clients, nil
}

func closeAll(closers []*RpcClient) error {
	return parallel.For(0, len(closers), 1, func(i int) error {
		return closers[i].Close()
	})
}
