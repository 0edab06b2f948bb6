// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"memsim/checker"
	"memsim/core"
	"memsim/logger"
	"memsim/sim"
	"memsim/tools"
)

var checkFlags = struct {
	trials   int
	seed     int64
	workers  int
	maxDepth int
	monitor  bool
	csvFile  string
	timeout  time.Duration
}{}

var checkCmd = cobra.Command{
	Use:   "check [flags] <program.yaml>",
	Short: "Explores the interleavings of a program and checks every history",
	Args:  IsArgsn,
	RunE:  checkRun,

	DisableFlagsInUseLine: true,
}

func init() {
	flags := checkCmd.PersistentFlags()
	flags.IntVarP(&checkFlags.trials, "trials", "t", 0, "number of random trials; 0 explores every interleaving")
	flags.Int64Var(&checkFlags.seed, "seed", 0, "seed of the random trials")
	flags.IntVar(&checkFlags.workers, "workers", 0, "parallel random-trial workers; 0 uses one per CPU")
	addDepthFlag(flags, &checkFlags.maxDepth)
	addMonitorFlag(flags, &checkFlags.monitor)
	flags.StringVar(&checkFlags.csvFile, "csv-log", "", "CSV file to append the final result to ")
	flags.DurationVar(&checkFlags.timeout, "timeout", 0, "Random-trial timeout, e.g., 1s for 1 second, 1m for 1 minute.\ntimeout 0 is equivalent to no timeout")
	rootCmd.AddCommand(&checkCmd)
}

func addDepthFlag(flags *pflag.FlagSet, p *int) {
	flags.IntVar(p, "max-depth", 0, "maximum scheduler steps per run; 0 is unbounded")
}

func addMonitorFlag(flags *pflag.FlagSet, p *bool) {
	flags.BoolVar(p, "monitor", false, "validate the cache coherence invariant after every step")
}

func checkRun(_ *cobra.Command, args []string) (err error) {
	var (
		fn       = args[0]
		ts       = time.Now()
		out      *sim.Outcome
		strength core.Strength
	)
	defer func() {
		csvReport{
			name:     fn,
			strength: strength,
			duration: time.Since(ts),
			outcome:  out,
			err:      err,
		}.save(checkFlags.csvFile)
	}()

	if strength, err = getStrength(); err != nil {
		return
	}

	if err = tools.FileExists(fn); err != nil {
		err = merror(configError, err)
		return
	}
	var pf *core.ProgramFile
	if pf, err = core.LoadProgram(fn); err != nil {
		err = merror(configError, err)
		return
	}

	cfg := sim.Config{
		Strength: strength,
		MaxDepth: checkFlags.maxDepth,
		Trials:   checkFlags.trials,
		Seed:     checkFlags.seed,
		Workers:  checkFlags.workers,
		Monitor:  checkFlags.monitor,
	}

	if checkFlags.trials > 0 {
		cxt := context.Background()
		if checkFlags.timeout != 0 {
			var cancel context.CancelFunc
			cxt, cancel = context.WithTimeout(cxt, checkFlags.timeout)
			defer cancel()
		}
		out, err = sim.Sample(cxt, pf.Program, pf.Init, cfg)
	} else {
		out, err = sim.Explore(pf.Program, pf.Init, cfg)
	}
	if err != nil {
		err = merror(internalError, err)
		return
	}

	return checkResults(out, time.Since(ts))
}

func checkResults(out *sim.Outcome, dur time.Duration) (err error) {
	for _, w := range out.Warnings {
		logger.Warnf("%s", w)
	}
	if f := out.First; f != nil {
		logger.Println()
		logger.Println("== COUNTEREXAMPLE ============================")
		logger.Println()
		logger.Print(f.History)
		for _, v := range f.Result.Violations {
			logger.Printf("  %v: %s\n", v.Kind, v.Detail)
		}
		err = mfail(checker.Violation, errors.New("memory consistency violation"))
	}
	logger.Println()
	logger.Printf("Outcomes\n%v\n", out)
	logger.Printf("Verdict\n  %s\n\n", coloredVerdict(out.Verdict()))
	if !out.Exhaustive {
		logger.Warnf("depth bound hit: exploration is incomplete")
	}
	if out.Stuck > 0 {
		logger.Warnf("%d runs stuck on an await that never fires", out.Stuck)
	}
	logger.Printf("Elapsed time\n  %v\n", dur)
	logger.Println()
	return
}
