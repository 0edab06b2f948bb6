// Copyright (C) 2023 Huawei Technologies Co., Ltd. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"fmt"
	"os"

	"memsim/logger"
)

const fileMode = 0600

// MockFileExistsErr is a mock error returned by FileExists in tests
var MockFileExistsErr error

// FileExists returns nil if a file exists otherwise an error
func FileExists(fn string) error {
	if MockFileExistsErr != nil {
		return MockFileExistsErr
	}
	if _, err := os.Stat(fn); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", fn)
	}
	return nil
}

// Dump writes the string representation of m to a file.
func Dump(m fmt.Stringer, fn string) error {
	logger.Debugf("Dump file '%s'", fn)
	out, err := os.OpenFile(fn,
		os.O_TRUNC|os.O_WRONLY|os.O_CREATE, fileMode)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Warnf("error closing file: %v", err)
		}
	}()
	_, err = fmt.Fprint(out, m)
	return err
}
