package solver

import (
	"github.com/zucenko/pathfinder/model"
	"math"
)

// Connectivity selects which neighbouring cells a move can reach.
type Connectivity int

const (
	EightWay Connectivity = iota
	FourWay
)

func (c Connectivity) String() string {
	if c == FourWay {
		return "four"
	}
	return "eight"
}

// Heuristic estimates the remaining cost between two cells. It must never
// overestimate for the chosen connectivity.
type Heuristic func(from, to model.Position) float64

// Chebyshev is exact on an open 8-connected grid with unit diagonal cost.
func Chebyshev(from, to model.Position) float64 {
	return math.Max(math.Abs(float64(from.Row-to.Row)), math.Abs(float64(from.Col-to.Col)))
}

// Manhattan is exact on an open 4-connected grid.
func Manhattan(from, to model.Position) float64 {
	return math.Abs(float64(from.Row-to.Row)) + math.Abs(float64(from.Col-to.Col))
}

type Options struct {
	Connectivity Connectivity
	Heuristic    Heuristic
}

type Option func(*Options)

func WithConnectivity(c Connectivity) Option {
	return func(o *Options) { o.Connectivity = c }
}

// WithHeuristic overrides the connectivity's default heuristic. Find only
// returns minimum cost paths when h is admissible for the connectivity in use:
// Manhattan is not, on an EightWay grid.
func WithHeuristic(h Heuristic) Option {
	return func(o *Options) { o.Heuristic = h }
}

func buildOptions(options []Option) Options {
	opts := Options{Connectivity: EightWay}
	for _, o := range options {
		o(&opts)
	}
	if opts.Heuristic == nil {
		if opts.Connectivity == FourWay {
			opts.Heuristic = Manhattan
		} else {
			opts.Heuristic = Chebyshev
		}
	}
	return opts
}
