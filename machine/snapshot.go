// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package machine

import (
	"github.com/jinzhu/copier"

	"memsim/logger"
)

// Snapshot returns a deep copy of the machine. The scheduler snapshots
// the initial state once and restores from it between explored
// interleavings.
func (m *Machine) Snapshot() *Machine {
	var s Machine
	if err := copier.CopyWithOption(&s, m, copier.Option{DeepCopy: true}); err != nil {
		logger.Fatalf("cannot snapshot machine: %v", err)
	}
	return &s
}
