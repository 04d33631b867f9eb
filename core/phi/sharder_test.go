package phi

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShardRows(t *testing.T) {
	truth := []Range{{0, 3}, {3, 5}, {5, 7}}
	if r := NewSharder(3).ShardRows(7); !reflect.DeepEqual(r, truth) {
		t.Errorf("Expecting %v, got %v", truth, r)
	}

	truth = []Range{{0, 1}, {1, 2}}
	if r := NewSharder(4).ShardRows(2); !reflect.DeepEqual(r, truth) {
		t.Errorf("Expecting %v, got %v", truth, r)
	}

	if r := NewSharder(4).ShardRows(0); r != nil {
		t.Errorf("Expecting nil, got %v", r)
	}
}

func TestRowsView(t *testing.T) {
	m := CreateTestingMatrix()
	v := Rows(m, Range{1, 3})
	require.Equal(t, 2, v.TokenSize())
	require.Equal(t, 3, v.TopicSize())
	require.Equal(t, NewToken("orange", ""), v.Token(0))
	require.Equal(t, 0.9, v.Get(1, 2))

	w := MutableRows(m, Range{2, 3})
	w.Set(0, 0, 7.0)
	require.Equal(t, 7.0, m.Get(2, 0))
	require.Equal(t, 0.4, m.Get(1, 0))

	require.Panics(t, func() { Rows(m, Range{2, 4}) })
}
