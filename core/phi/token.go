package phi

import (
	"fmt"
)

// DefaultClass is the class id of tokens whose batch does not carry
// class information.
const DefaultClass = "@default_class"

// Token identifies a row of a Phi matrix.  Two tokens are equal iff
// both their keyword and class id are equal.
type Token struct {
	Keyword string
	ClassId string
}

func NewToken(keyword, classId string) Token {
	if len(classId) == 0 {
		classId = DefaultClass
	}
	return Token{Keyword: keyword, ClassId: classId}
}

func (t Token) String() string {
	if t.ClassId == DefaultClass {
		return t.Keyword
	}
	return t.Keyword + "|" + t.ClassId
}

// TokenCollection maintains the bi-directional mapping between tokens
// and row ids.  Unlike a vocabulary sorted by fingerprints, ids are
// assigned in the order tokens are added, so that rows of a Phi
// matrix keep the order of the dictionary it was initialized from.
type TokenCollection struct {
	Tokens []Token
	ids    map[Token]int
}

func NewTokenCollection() *TokenCollection {
	return &TokenCollection{
		Tokens: make([]Token, 0),
		ids:    make(map[Token]int),
	}
}

// Add appends token if it is not in the collection yet, and returns
// its id in either case.
func (c *TokenCollection) Add(token Token) int {
	if c.ids == nil {
		c.buildIdMap()
	}
	if id, ok := c.ids[token]; ok {
		return id
	}
	c.Tokens = append(c.Tokens, token)
	c.ids[token] = len(c.Tokens) - 1
	return len(c.Tokens) - 1
}

// buildIdMap is required after gob decoding, which restores Tokens
// only.
func (c *TokenCollection) buildIdMap() {
	c.ids = make(map[Token]int, len(c.Tokens))
	for i := range c.Tokens {
		c.ids[c.Tokens[i]] = i
	}
}

func (c *TokenCollection) Len() int {
	return len(c.Tokens)
}

func (c *TokenCollection) Token(id int) Token {
	if id < 0 || id >= len(c.Tokens) {
		panic(fmt.Sprintf("id=%d out of range [0, %d)", id, len(c.Tokens)))
	}
	return c.Tokens[id]
}

// Id returns the row id of token.  If token is not in the collection,
// it returns a negative value.
func (c *TokenCollection) Id(token Token) int {
	if c.ids == nil {
		c.buildIdMap()
	}
	if id, ok := c.ids[token]; ok {
		return id
	}
	return -1
}
