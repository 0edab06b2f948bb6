// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"sort"

	"github.com/spf13/cobra"

	"memsim/checker"
	"memsim/core"
	"memsim/logger"
	"memsim/sim"
	"memsim/tools"
)

var traceFlags = struct {
	seed    int64
	monitor bool
}{}

var traceCmd = cobra.Command{
	Use:   "trace [flags] <program.yaml>",
	Short: "Runs one seeded interleaving and prints its history",
	Args:  IsArgsn,
	RunE:  traceRun,

	DisableFlagsInUseLine: true,
}

func init() {
	flags := traceCmd.PersistentFlags()
	flags.Int64Var(&traceFlags.seed, "seed", 0, "seed of the traced interleaving")
	addMonitorFlag(flags, &traceFlags.monitor)
	rootCmd.AddCommand(&traceCmd)
}

func traceRun(_ *cobra.Command, args []string) error {
	strength, err := getStrength()
	if err != nil {
		return err
	}
	if err := tools.FileExists(args[0]); err != nil {
		return merror(configError, err)
	}
	pf, err := core.LoadProgram(args[0])
	if err != nil {
		return merror(configError, err)
	}

	s := sim.NewScheduler(pf.Program, pf.Init, strength)
	s.Monitor = traceFlags.monitor
	res, err := s.Run(sim.NewRandom(traceFlags.seed, 1))
	if err != nil {
		return merror(internalError, err)
	}

	logger.Println()
	logger.Println("== HISTORY ===================================")
	logger.Println()
	for _, r := range res.History.Records {
		logger.Println(coloredRecord(r))
	}
	logger.Println()

	if res.Stuck {
		logger.Warnf("run stuck on an await that never fires")
		return nil
	}

	var addrs []core.Addr
	for a := range res.Final {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	logger.Println("Final memory")
	for _, a := range addrs {
		logger.Printf("  %s = %d\n", a, res.Final[a])
	}
	logger.Println()

	r := checker.Check(res.History, pf.Program)
	for _, w := range r.Warnings {
		logger.Warnf("%s", w)
	}
	for _, v := range r.Violations {
		logger.Printf("  %v: %s\n", v.Kind, v.Detail)
	}
	logger.Printf("Verdict\n  %s\n\n", coloredVerdict(r.Verdict))
	if r.Verdict == checker.Violation {
		return mfail(r.Verdict, nil)
	}
	return nil
}
