// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"memsim/logger"
)

// ProgramFile is the external description of a simulated program: one
// instruction sequence per core plus initial memory values.
type ProgramFile struct {
	Program Program
	Init    map[Addr]Value
}

type yamlFile struct {
	Init  map[string]int64 `yaml:"init"`
	Cores []yamlCore       `yaml:"cores"`
}

type yamlCore struct {
	Program []yamlInst `yaml:"program"`
}

type yamlInst struct {
	Op       string `yaml:"op"`
	Addr     string `yaml:"addr,omitempty"`
	Ordering string `yaml:"ordering"`
	Value    int64  `yaml:"value,omitempty"`
	Expect   int64  `yaml:"expect,omitempty"`
	Await    bool   `yaml:"await,omitempty"`
}

// LoadProgram reads and validates a YAML program description.
func LoadProgram(fn string) (*ProgramFile, error) {
	logger.Infof("Parse '%s'", fn)
	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	return ParseProgram(data)
}

// ParseProgram parses and validates a YAML program description.
func ParseProgram(data []byte) (*ProgramFile, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("cannot parse program: %v", err)
	}
	if len(yf.Cores) == 0 {
		return nil, fmt.Errorf("program has no cores")
	}

	pf := &ProgramFile{
		Program: make(Program),
		Init:    make(map[Addr]Value),
	}
	for a, v := range yf.Init {
		pf.Init[Addr(a)] = Value(v)
	}
	for i, c := range yf.Cores {
		var seq []Instruction
		for _, yi := range c.Program {
			seq = append(seq, Instruction{
				Kind:     ParseOpKind(yi.Op),
				Addr:     Addr(yi.Addr),
				Ordering: ParseOrdering(yi.Ordering),
				Operand:  Value(yi.Value),
				Expect:   Value(yi.Expect),
				Await:    yi.Await,
			})
		}
		pf.Program[CoreID(i)] = seq
	}

	if err := pf.Program.Validate(); err != nil {
		return nil, err
	}
	return pf, nil
}

var opTokens = map[OpKind]string{
	Load:    "load",
	Store:   "store",
	RMW:     "rmw",
	Cmpxchg: "cas",
	Fence:   "fence",
}

var orderingTokens = map[Ordering]string{
	Relaxed: "rlx",
	Acquire: "acq",
	Release: "rel",
	AcqRel:  "acq_rel",
	SeqCst:  "sc",
}

// String renders the program file in the YAML format accepted by
// ParseProgram.
func (pf *ProgramFile) String() string {
	yf := yamlFile{}
	if len(pf.Init) > 0 {
		yf.Init = make(map[string]int64)
		for a, v := range pf.Init {
			yf.Init[string(a)] = int64(v)
		}
	}
	for _, c := range pf.Program.Cores() {
		var yc yamlCore
		for _, in := range pf.Program[c] {
			yc.Program = append(yc.Program, yamlInst{
				Op:       opTokens[in.Kind],
				Addr:     string(in.Addr),
				Ordering: orderingTokens[in.Ordering],
				Value:    int64(in.Operand),
				Expect:   int64(in.Expect),
				Await:    in.Await,
			})
		}
		yf.Cores = append(yf.Cores, yc)
	}
	data, err := yaml.Marshal(&yf)
	if err != nil {
		logger.Warnf("cannot marshal program: %v", err)
		return ""
	}
	return string(data)
}
