// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/pkg/errutil"
)

func runMigrateCmd(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append([]string{"migrate"}, args...))
	return cmd.Execute()
}

func TestMigrateUp_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("GATEWARDEN_DATABASE_URL", "")

	err := runMigrateCmd(t, "up")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_MISSING_DATABASE")
}

func TestMigrateDown_RequiresConfirmation(t *testing.T) {
	// The confirmation check fires before the migrator is built, so no
	// database URL is needed.
	t.Setenv("GATEWARDEN_DATABASE_URL", "")

	err := runMigrateCmd(t, "down")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIRMATION_REQUIRED")
}

func TestMigrateForce_RejectsBadVersions(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "non-numeric", args: []string{"force", "abc"}},
		{name: "negative", args: []string{"force", "--", "-1"}},
		{name: "whitespace", args: []string{"force", " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runMigrateCmd(t, tt.args...)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "INVALID_VERSION")
		})
	}
}

func TestMigrateStatus_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("GATEWARDEN_DATABASE_URL", "")

	err := runMigrateCmd(t, "status")
	assert.Error(t, err)
}
