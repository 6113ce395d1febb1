package mtdesign

import (
	"runtime"
	"sync"

	"github.com/go-kit/kit/log"
)

// SolutionPoint is one cell of the search-space sweep. Points are immutable
// once produced.
type SolutionPoint struct {
	CoastDays    float64
	Engines      int
	MissDistance float64 // DU
	FuelUsed     float64 // kg
	Rendezvous   bool
	ElapsedDays  float64
	CoastMiss    float64 // ballistic reference miss (DU)
	Converged    bool
	Err          error // non-nil marks an aborted cell, never a silent NaN
}

// Sweep evaluates the recovery solver over the cross product of coast
// durations and engine counts. Cells are independent and are dispatched to
// parallel workers, each owning its own solver; the returned sequence is in
// duration-major grid order regardless of scheduling.
type Sweep struct {
	cst     Constants
	mission MissionConfig
	conf    SweepConfig
	logger  log.Logger
}

// NewSweep returns a sweep driver. The logger may be a nop logger.
func NewSweep(cst Constants, m MissionConfig, conf SweepConfig, logger log.Logger) *Sweep {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Sweep{cst: cst, mission: m, conf: conf, logger: logger}
}

// Run evaluates every grid cell and returns the ordered solution points.
// A ModelingError in one cell flags that point and does not stop the sweep.
func (sw *Sweep) Run() []SolutionPoint {
	type cell struct {
		idx       int
		coastDays float64
		engines   int
	}
	cells := make([]cell, 0, len(sw.conf.CoastDurations)*len(sw.conf.EngineCounts))
	// Duration-major order: for each coast duration, every engine count.
	for _, coast := range sw.conf.CoastDurations {
		for _, engines := range sw.conf.EngineCounts {
			cells = append(cells, cell{len(cells), coast, engines})
		}
	}

	workers := sw.conf.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(cells) {
		workers = len(cells)
	}

	points := make([]SolutionPoint, len(cells))
	jobs := make(chan cell, len(cells))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker owns its solver: no shared mutable state between
			// cells.
			solver := NewRecoverySolver(sw.cst, sw.mission, sw.logger)
			for c := range jobs {
				rslt, err := solver.Solve(c.coastDays, c.engines)
				if err != nil {
					sw.logger.Log("level", "error", "subsys", "sweep",
						"coast(days)", c.coastDays, "engines", c.engines, "err", err)
					points[c.idx] = SolutionPoint{CoastDays: c.coastDays, Engines: c.engines, Err: err}
					continue
				}
				points[c.idx] = SolutionPoint{
					CoastDays:    c.coastDays,
					Engines:      c.engines,
					MissDistance: rslt.MissDistance,
					FuelUsed:     rslt.FuelUsed,
					Rendezvous:   rslt.Rendezvous(),
					ElapsedDays:  rslt.ElapsedDays,
					CoastMiss:    rslt.CoastMiss,
					Converged:    rslt.Converged,
				}
			}
		}()
	}
	for _, c := range cells {
		jobs <- c
	}
	close(jobs)
	wg.Wait()

	sw.logger.Log("level", "notice", "subsys", "sweep", "status", "finished", "cells", len(cells), "workers", workers)
	return points
}
