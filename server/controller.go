package server

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/pathfinder/model"
	"github.com/zucenko/pathfinder/solver"
	"sync"
	"time"
)

var ErrSearchRunning = errors.New("search already running")

type Outcome struct {
	RunID      string
	Start, End model.Position
	Found      bool
	Cost       float64
	PathLength int
	Expanded   int
	Duration   time.Duration
	// Stale is set when StopSearch was called before the run finished; its
	// result was discarded.
	Stale bool
	Err   error
}

func (o Outcome) Status() model.Status {
	st := model.Status{
		RunID:      o.RunID,
		Found:      o.Found,
		Stale:      o.Stale,
		Cost:       o.Cost,
		PathLength: o.PathLength,
		Expanded:   o.Expanded,
		Duration:   o.Duration,
	}
	if o.Err != nil {
		st.Error = o.Err.Error()
	}
	return st
}

// SearchController runs at most one search at a time against a grid.
// StopSearch is cooperative: the solver keeps running until it finishes, but
// its result is dropped, and the next StartSearch waits for it first.
type SearchController struct {
	mu         sync.Mutex
	grid       *model.Grid
	options    []solver.Option
	state      SearchState
	generation uint64
	done       chan struct{}
	runID      string
	last       *Outcome
	onComplete func(Outcome)
}

func NewSearchController(grid *model.Grid, options ...solver.Option) *SearchController {
	return &SearchController{grid: grid, options: options, state: SS_IDLE}
}

// OnComplete registers fn to run on the search goroutine after every run,
// stale ones included. fn must not call Wait, Quiesce or Exclusive.
func (c *SearchController) OnComplete(fn func(Outcome)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = fn
}

func (c *SearchController) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == SS_RUNNING
}

func (c *SearchController) State() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RunID is the id of the running or most recent search.
func (c *SearchController) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

func (c *SearchController) Last() (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Outcome{}, false
	}
	return *c.last, true
}

// StartSearch launches a search from start to end and returns its run id.
// It fails with ErrSearchRunning while a search is running, and blocks while
// a stopped search is still finishing.
func (c *SearchController) StartSearch(start, end model.Position) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if c.state == SS_RUNNING {
			return "", ErrSearchRunning
		}
		prev := c.done
		if prev == nil || isClosed(prev) {
			break
		}
		log.Infof("SearchController.StartSearch waiting for run %s", c.runID)
		c.mu.Unlock()
		<-prev
		c.mu.Lock()
	}

	if err := c.prepare(start, end); err != nil {
		return "", err
	}

	c.generation++
	c.state = SS_RUNNING
	c.runID = uuid.NewString()
	c.done = make(chan struct{})
	searchRunning.Set(1)
	log.WithFields(log.Fields{"run": c.runID, "start": start, "end": end}).Info("search started")
	go c.run(c.generation, c.runID, start, end, c.done)
	return c.runID, nil
}

// prepare checks the endpoints and wipes marks left by the previous run.
func (c *SearchController) prepare(start, end model.Position) error {
	for _, p := range []model.Position{start, end} {
		if !p.IsSet() {
			return errors.Wrap(solver.ErrInvalidArgument, "start and end must be set")
		}
		state, err := c.grid.CellAt(p.Row, p.Col)
		if err != nil {
			return errors.Wrapf(solver.ErrInvalidArgument, "%v: %v", p, err)
		}
		if state == model.CELL_BLOCKED {
			return errors.Wrapf(solver.ErrInvalidArgument, "%v is blocked", p)
		}
	}
	c.grid.ClearSearch()
	if err := c.grid.SetCell(start.Row, start.Col, model.CELL_START); err != nil {
		return err
	}
	return c.grid.SetCell(end.Row, end.Col, model.CELL_END)
}

func (c *SearchController) run(generation uint64, runID string, start, end model.Position, done chan struct{}) {
	defer close(done)
	began := time.Now()
	sv := solver.New(c.grid, c.options...)
	goal, err := sv.Find(model.NewNode(start.Row, start.Col), model.NewNode(end.Row, end.Col))
	outcome := Outcome{
		RunID:    runID,
		Start:    start,
		End:      end,
		Expanded: sv.Stats().Expanded,
		Duration: time.Since(began),
		Err:      err,
	}
	if goal != nil {
		outcome.Found = true
		outcome.Cost = goal.Cost
		outcome.PathLength = goal.Len()
	}

	c.mu.Lock()
	if generation != c.generation || c.state != SS_RUNNING {
		outcome.Stale = true
	} else {
		if goal != nil {
			if err := c.grid.ApplyPath(goal); err != nil {
				outcome.Err = err
			}
		}
		c.state = SS_IDLE
		searchRunning.Set(0)
	}
	c.last = &outcome
	fn := c.onComplete
	c.mu.Unlock()

	observeOutcome(outcome)
	log.WithFields(log.Fields{
		"run":      runID,
		"found":    outcome.Found,
		"cost":     outcome.Cost,
		"expanded": outcome.Expanded,
		"stale":    outcome.Stale,
		"took":     outcome.Duration,
	}).Info("search finished")
	if outcome.Err != nil {
		log.Warnf("search %s failed: %v", runID, outcome.Err)
	}
	if fn != nil {
		fn(outcome)
	}
}

// StopSearch returns the controller to idle right away. The running solver
// is not interrupted; its result is discarded when it completes.
func (c *SearchController) StopSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stop()
}

func (c *SearchController) stop() {
	if c.state != SS_RUNNING {
		return
	}
	c.generation++
	c.state = SS_IDLE
	searchRunning.Set(0)
	log.WithField("run", c.runID).Info("search stopped")
}

// Exclusive stops any search, waits for its goroutine and runs fn before
// another search can start. Map loads and clears go through here.
func (c *SearchController) Exclusive(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		c.stop()
		prev := c.done
		if prev == nil || isClosed(prev) {
			break
		}
		c.mu.Unlock()
		<-prev
		c.mu.Lock()
	}
	return fn()
}

// WhileIdle runs fn unless a search is running, in which case it returns
// ErrSearchRunning. No search can start while fn runs.
func (c *SearchController) WhileIdle(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == SS_RUNNING {
		return ErrSearchRunning
	}
	return fn()
}

// Wait blocks until no search goroutine is outstanding.
func (c *SearchController) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Quiesce stops any search and waits for it. Used at shutdown.
func (c *SearchController) Quiesce() {
	c.StopSearch()
	c.Wait()
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
