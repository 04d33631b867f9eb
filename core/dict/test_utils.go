package dict

import (
	"github.com/godist/artm/core/phi"
)

// CreateTestingDictionary covers apple and tiger|@ne, but not orange.
func CreateTestingDictionary() *Dictionary {
	return New("testing", []Entry{
		{Token: phi.NewToken("apple", ""), Value: 0.5, TF: 2, DF: 1},
		{Token: phi.NewToken("tiger", "@ne"), Value: 2.0, TF: 3, DF: 1},
	})
}
