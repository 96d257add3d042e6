// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/absmach/cloudca/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logMsg struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(&buf, "info")
	require.Nil(t, err, "unexpected error creating logger")

	log.Debug("hidden")
	assert.Zero(t, buf.Len(), "debug message logged at info level")

	log.Info("visible")
	var out logMsg
	require.Nil(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "INFO", out.Level)
	assert.Equal(t, "visible", out.Msg)
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := logger.New(&bytes.Buffer{}, "loud")
	assert.NotNil(t, err, "expected error for invalid level")
}

func TestExitWithErrorZero(t *testing.T) {
	code := 0
	logger.ExitWithError(&code)
	logger.ExitWithError(nil)
}
