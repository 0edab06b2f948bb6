// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/spf13/cobra"

	"memsim/core"
	"memsim/logger"
	"memsim/relax"
	"memsim/tools"
)

var relaxFlags = struct {
	maxDepth   int
	outputFile string
}{}

var relaxCmd = cobra.Command{
	Use:   "relax [flags] <program.yaml>",
	Short: "Searches for a maximally relaxed ordering assignment",
	Args:  IsArgsn,
	RunE:  relaxRun,

	DisableFlagsInUseLine: true,
}

func init() {
	flags := relaxCmd.PersistentFlags()
	addDepthFlag(flags, &relaxFlags.maxDepth)
	flags.StringVarP(&relaxFlags.outputFile, "output", "o", "",
		"save the relaxed program to this file")
	rootCmd.AddCommand(&relaxCmd)
}

func relaxRun(_ *cobra.Command, args []string) error {
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

	d := relax.NewDriver(relax.Config{
		Strength: strength,
		MaxDepth: relaxFlags.maxDepth,
	})
	sol, err := d.Run(pf.Program, pf.Init)
	if err != nil {
		return merror(internalError, err)
	}

	logger.Println()
	if len(sol.Changes) == 0 {
		logger.Println("No ordering can be weakened")
	} else {
		logger.Println("Weakened orderings")
		for _, ch := range sol.Changes {
			logger.Printf("  c%d[%d] %v: %s -> %s\n",
				ch.Core, ch.Index, sol.Program[ch.Core][ch.Index].Kind,
				coloredOrdering(ch.Before), coloredOrdering(ch.After))
		}
		logger.Println()
		logger.Printf("%d of %d positions weakened in %d checks\n",
			len(sol.Changes), sol.Program.Len(), sol.Checks)
	}
	logger.Println()

	if relaxFlags.outputFile != "" {
		out := &core.ProgramFile{Program: sol.Program, Init: pf.Init}
		if err := tools.Dump(out, relaxFlags.outputFile); err != nil {
			return merror(internalError, err)
		}
	}
	return nil
}
