package utils

import (
	"bytes"
	"expvar"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/golang/glog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

type Iteration struct {
	StartTime  time.Time
	Duration   time.Duration
	Perplexity float64
}

// Iterations records training progress.  It is safe to read it from
// HTTP handlers while the trainer appends to it.
type Iterations struct {
	mutex sync.Mutex
	iters []*Iteration
}

func (is *Iterations) String() string { // Implements expvar.Var
	is.mutex.Lock()
	defer is.mutex.Unlock()
	var buf bytes.Buffer
	for i, iter := range is.iters {
		fmt.Fprintf(&buf, "%05d: %s\t%s\t%f\n",
			i, iter.StartTime, iter.Duration, iter.Perplexity)
	}
	return buf.String()
}

func (is *Iterations) Start() Iteration {
	is.mutex.Lock()
	defer is.mutex.Unlock()
	i := &Iteration{StartTime: time.Now()}
	is.iters = append(is.iters, i)
	return *i
}

func (is *Iterations) End(perplexity float64) Iteration {
	is.mutex.Lock()
	defer is.mutex.Unlock()
	i := is.iters[len(is.iters)-1]
	i.Duration = time.Since(i.StartTime)
	i.Perplexity = perplexity
	return *i
}

func (is *Iterations) Len() int {
	is.mutex.Lock()
	defer is.mutex.Unlock()
	return len(is.iters)
}

// points returns (i, f(iters[i])) for iterations accepted by f.
func (is *Iterations) points(f func(i int, iter *Iteration) (float64, bool)) plotter.XYs {
	is.mutex.Lock()
	defer is.mutex.Unlock()
	ps := make(plotter.XYs, 0, len(is.iters))
	for i, iter := range is.iters {
		if y, ok := f(i, iter); ok {
			ps = append(ps, plotter.XY{X: float64(i), Y: y})
		}
	}
	return ps
}

// EnableExpvar publishes progress and serves it, with figures, on
// addr.  If addr is empty, nothing is served.  The server also serves
// anything registered on http.DefaultServeMux, like net/rpc services.
func EnableExpvar(addr string) *Iterations {
	is := new(Iterations)
	expvar.Publish("Iterations", is)
	http.Handle("/progress/perplexity", newPerplexityFigureHandler(is))
	http.Handle("/progress/duration", newDurationFigureHandler(is))

	if len(addr) > 0 {
		go func() {
			if e := http.ListenAndServe(addr, nil); e != nil {
				log.Fatalf("ListenAndServe on %s failed: %v", addr, e)
			}
		}()
	}
	return is
}

func newPerplexityFigureHandler(is *Iterations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps := is.points(func(i int, iter *Iteration) (float64, bool) {
			return iter.Perplexity, iter.Perplexity > 0.0
		})
		if e := plotFigure(w, ps, "Iteration", "Perplexity"); e != nil {
			http.Error(w, e.Error(), http.StatusInternalServerError)
		}
	}
}

func newDurationFigureHandler(is *Iterations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps := is.points(func(i int, iter *Iteration) (float64, bool) {
			// Skip the initialization and yet-complete iterations.
			return iter.Duration.Minutes(), i > 0 && iter.Duration > 0
		})
		if e := plotFigure(w, ps, "Iteration", "Duration"); e != nil {
			http.Error(w, e.Error(), http.StatusInternalServerError)
		}
	}
}

func plotFigure(w io.Writer, ps plotter.XYs, xLabel, yLabel string) error {
	p := plot.New()
	p.Title.Text = strings.Join(os.Args, " ")
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	p.Add(plotter.NewGrid())
	if len(ps) > 0 {
		if e := plotutil.AddLinePoints(p, "", ps); e != nil {
			return fmt.Errorf("plotutil.AddLinePoints failed: %v", e)
		}
	}

	wt, e := p.WriterTo(vg.Points(640), vg.Points(480), "png")
	if e != nil {
		return fmt.Errorf("Cannot render figure: %v", e)
	}
	_, e = wt.WriteTo(w)
	return e
}
