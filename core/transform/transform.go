// Package transform provides the elementwise functions regularizers
// apply to Phi values before weighting them.
package transform

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidConfig = errors.New("Invalid transform config")

const (
	Identity   = "identity"
	Constant   = "constant"
	Logarithm  = "logarithm"
	Polynomial = "polynomial"
)

// Function is stateless, so one value can be shared by concurrent
// RegularizePhi calls.
type Function interface {
	Apply(x float64) float64
}

// Config selects a Function.  N and A are used by polynomial only.
type Config struct {
	Type string   `json:"transform_type,omitempty"`
	N    *float64 `json:"n,omitempty"`
	A    *float64 `json:"a,omitempty"`
}

// Create validates c and returns the Function it describes.  A nil c
// or an empty Type gives the identity.
func Create(c *Config) (Function, error) {
	if c == nil {
		return identity{}, nil
	}
	switch c.Type {
	case "", Identity:
		return identity{}, nil
	case Constant:
		return constant{}, nil
	case Logarithm:
		return logarithm{}, nil
	case Polynomial:
		n, e := param("n", c.N)
		if e != nil {
			return nil, e
		}
		a, e := param("a", c.A)
		if e != nil {
			return nil, e
		}
		return polynomial{n: n, a: a}, nil
	}
	return nil, fmt.Errorf("%w: unknown transform_type %q", ErrInvalidConfig, c.Type)
}

func param(name string, v *float64) (float64, error) {
	if v == nil {
		return 1, nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidConfig, name, *v)
	}
	return *v, nil
}

type identity struct{}

func (identity) Apply(x float64) float64 { return x }

type constant struct{}

func (constant) Apply(float64) float64 { return 1 }

type logarithm struct{}

func (logarithm) Apply(x float64) float64 {
	if x > 0 {
		return math.Log(x)
	}
	return 0
}

// polynomial computes a * x^n for positive x.
type polynomial struct {
	n, a float64
}

func (p polynomial) Apply(x float64) float64 {
	if x > 0 {
		return p.a * math.Pow(x, p.n)
	}
	return 0
}
