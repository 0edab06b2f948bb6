// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tools contains environment and file helpers shared by the
// memsim commands.
package tools

import (
	"os"
	"sort"
)

// Envvar describes a registered environment variable.
type Envvar struct {
	Name string
	Defv string
	Desc string
}

var envvars = make(map[string]Envvar)

// RegEnv registers an environment variable with a default value and a
// description. Registered variables appear in the command help text.
func RegEnv(name, defv, desc string) {
	envvars[name] = Envvar{
		Name: name,
		Defv: defv,
		Desc: desc,
	}
}

// GetEnv returns the value of a registered environment variable or its
// default value if the variable is not set.
func GetEnv(name string) string {
	if v, has := os.LookupEnv(name); has {
		return v
	}
	return envvars[name].Defv
}

// GetEnvvars returns all registered environment variables sorted by name.
func GetEnvvars() []Envvar {
	var evs []Envvar
	for _, ev := range envvars {
		evs = append(evs, ev)
	}
	sort.Slice(evs, func(i, j int) bool {
		return evs[i].Name < evs[j].Name
	})
	return evs
}
