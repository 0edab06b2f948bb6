// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main is the main memsim program of this project.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"memsim/core"
	"memsim/logger"
	"memsim/tools"
)

var rootCmd = cobra.Command{
	Use:           "memsim",
	Short:         "",
	Long:          "",
	SilenceUsage:  true,
	SilenceErrors: true,

	TraverseChildren: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("run 'memsim -h' for help")
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch rootFlags.log {
		case "INFO":
			logger.SetLevel(logger.INFO)
		case "WARN":
			logger.SetLevel(logger.WARN)
		default:
			logger.SetLevel(logger.ERROR)
		}
		if rootFlags.debug {
			logger.SetLevel(logger.DEBUG)
		}
		if rootFlags.quiet {
			logger.SetFileDescriptor(nil)
		}
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			color.NoColor = true
		}
	},
}

func init() {
	tools.RegEnv("MEMSIM_DEFAULT_STRENGTH", "weak", "Default coherence strength of the simulated machine")

	helpMessage :=
		`memsim -- simulation and consistency checking of concurrent programs on WMM`

	helpMessage += "\n\nEnvironment Variables:"
	for _, ev := range tools.GetEnvvars() {
		helpMessage += "\n  " + ev.Name + " " +
			"(default: \"" + ev.Defv + "\")\n\t" + ev.Desc
	}
	rootCmd.Long = helpMessage

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.log, "log", "ERROR", "log level (ERROR|INFO|WARN)")
	flags.StringVarP(&rootFlags.strength, "strength", "s", tools.GetEnv("MEMSIM_DEFAULT_STRENGTH"), "coherence strength (strong|weak)")
	flags.BoolVarP(&rootFlags.debug, "debug", "d", false, "set debug mode")
	flags.BoolVarP(&rootFlags.quiet, "quiet", "q", false, "do not produce output")

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}

func getStrength() (core.Strength, error) {
	st := core.ParseStrength(rootFlags.strength)
	if st == core.InvalidStrength {
		return st, merror(configError, fmt.Errorf("error: invalid strength '%s'", rootFlags.strength))
	}
	return st, nil
}

var rootFlags struct {
	log      string
	strength string
	debug    bool
	quiet    bool
}

type errCode struct {
	err  error
	code int
}

func handlePanic() {
	e := recover()
	if e == nil {
		return
	}
	exit, ok := e.(errCode)
	if !ok {
		panic(e)
	}
	if exit.err != nil {
		logger.Printf("panic: %v\n", exit.err)
	}
}

func main() {
	if !rootFlags.debug {
		defer handlePanic()
	}
	if err := rootCmd.Execute(); err != nil {
		var (
			code = getErrorCode(err)
			msg  = getErrorMessage(err)
		)

		if msg != "" {
			logger.Println(msg)
		}
		os.Exit(code)
	}
}
