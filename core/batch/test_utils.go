package batch

import (
	"github.com/godist/artm/core/phi"
)

// CreateTestingBatch creates a batch with two documents:
//
//	doc0: apple apple orange
//	doc1: orange tiger|@ne tiger|@ne tiger|@ne
func CreateTestingBatch() *Batch {
	return &Batch{
		Id:      "testing-batch",
		Token:   []string{"apple", "orange", "tiger"},
		ClassId: []string{phi.DefaultClass, phi.DefaultClass, "@ne"},
		Item: []Item{
			{Id: 0, Title: "doc0", TokenId: []int{0, 1}, TokenWeight: []float32{2, 1}},
			{Id: 1, Title: "doc1", TokenId: []int{1, 2}, TokenWeight: []float32{1, 3}},
		},
	}
}
