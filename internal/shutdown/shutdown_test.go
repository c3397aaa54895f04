// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package shutdown

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagStartsClear(t *testing.T) {
	var f Flag
	assert.False(t, f.Requested())
}

func TestRequestSetsFlag(t *testing.T) {
	var f Flag
	f.Request()
	assert.True(t, f.Requested())
}

func TestInstallCatchesSigterm(t *testing.T) {
	f := Install()
	require.False(t, f.Requested())

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	assert.Eventually(t, f.Requested, 2*time.Second, 10*time.Millisecond)
}
