// Copyright (c) 2025 Justin Cranford

package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	paporgTelemetry "github.com/iperka/paporg-sub000/internal/telemetry"
)

func TestNew_StdoutOnly(t *testing.T) {
	t.Parallel()

	svc, err := paporgTelemetry.New(paporgTelemetry.Options{Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, svc)
	require.NotNil(t, svc.Slogger)
	require.NoError(t, svc.Shutdown(context.Background()))
}

func TestNew_WithLogDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, err := paporgTelemetry.New(paporgTelemetry.Options{Level: "debug", LogDir: dir, Component: "test"})
	require.NoError(t, err)
	require.NotNil(t, svc)

	svc.Slogger.Info("hello")
	require.NoError(t, svc.Shutdown(context.Background()))
}

func TestRequireNewForTest(t *testing.T) {
	t.Parallel()

	svc := paporgTelemetry.RequireNewForTest("unit-test")
	require.NotNil(t, svc)
	require.True(t, svc.Uptime() >= 0)
}
