package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/ChristopherRabotin/mtdesign"
	kitlog "github.com/go-kit/kit/log"
)

var (
	scenarioPath string
	outputPath   string
	cpus         int
	verbose      bool
)

func init() {
	flag.StringVar(&scenarioPath, "scenario", "scenario.toml", "path to the TOML scenario file")
	flag.StringVar(&outputPath, "output", "sweep.csv", "path of the CSV output (use - for stdout)")
	flag.IntVar(&cpus, "cpus", -1, "number of CPUs to use for this sweep (set to 0 for max CPUs)")
	flag.BoolVar(&verbose, "v", false, "log every solve, not just the sweep summary")
}

func main() {
	flag.Parse()
	availableCPUs := runtime.NumCPU()
	if cpus <= 0 || cpus > availableCPUs {
		cpus = availableCPUs
	}
	runtime.GOMAXPROCS(cpus)

	scenario, err := mtdesign.LoadScenario(scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	if scenario.Sweep.Workers <= 0 {
		scenario.Sweep.Workers = cpus
	}

	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	logger = kitlog.With(logger, "subsys", "mtsweep")
	solveLogger := kitlog.NewNopLogger()
	if verbose {
		solveLogger = logger
	}

	logger.Log("level", "info", "scenario", scenarioPath,
		"grid", fmt.Sprintf("%dx%d", len(scenario.Sweep.CoastDurations), len(scenario.Sweep.EngineCounts)),
		"cpus", cpus)

	sweep := mtdesign.NewSweep(scenario.Constants, scenario.Mission, scenario.Sweep, solveLogger)
	points := sweep.Run()

	out := os.Stdout
	if outputPath != "-" {
		out, err = os.Create(outputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not create output: %s\n", err)
			os.Exit(1)
		}
		defer out.Close()
	}
	if err = mtdesign.WriteCSV(out, points); err != nil {
		fmt.Fprintf(os.Stderr, "could not write output: %s\n", err)
		os.Exit(1)
	}

	achieved := 0
	for _, pt := range points {
		if pt.Rendezvous {
			achieved++
		}
	}
	logger.Log("level", "notice", "status", "finished", "cells", len(points), "rendezvous", achieved)
}
