// Copyright (c) 2025 Justin Cranford

package gitops

import (
	"testing"

	"github.com/stretchr/testify/require"

	paporgBroadcast "github.com/iperka/paporg-sub000/internal/broadcast"
)

func TestParseProgressLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		line    string
		phase   Phase
		pct     uint8
		current uint64
		total   uint64
		bytes   uint64
	}{
		{"counting", "Counting objects: 100% (10/10), done.", PhaseCounting, 100, 10, 10, 0},
		{"compressing", "Compressing objects:  50% (5/10)", PhaseCompressing, 50, 5, 10, 0},
		{"writing_with_bytes", "Writing objects:  33% (1/3), 256 bytes | 256.00 KiB/s", PhaseWriting, 33, 1, 3, 256},
		{"receiving_mib", "Receiving objects:  75% (75/100), 1.00 MiB | 512.00 KiB/s", PhaseReceiving, 75, 75, 100, 1024 * 1024},
		{"resolving", "Resolving deltas: 100% (5/5), done.", PhaseResolving, 100, 5, 5, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			parsed := ParseProgressLine(tc.line)
			require.True(t, parsed.HasPhase)
			require.Equal(t, tc.phase, parsed.Phase)
			require.True(t, parsed.HasPercent)
			require.Equal(t, tc.pct, parsed.Percentage)
			require.True(t, parsed.HasCount)
			require.Equal(t, tc.current, parsed.Current)
			require.Equal(t, tc.total, parsed.Total)
			if tc.bytes > 0 {
				require.True(t, parsed.HasBytes)
				require.Equal(t, tc.bytes, parsed.Bytes)
			}
		})
	}
}

func TestParseProgressLine_EnumeratingAndUnknownLines(t *testing.T) {
	t.Parallel()
	parsed := ParseProgressLine("remote: Enumerating done")
	require.True(t, parsed.HasPhase)
	require.Equal(t, PhaseCounting, parsed.Phase)

	parsed = ParseProgressLine("some unrelated text")
	require.False(t, parsed.HasPhase)
}

func TestOperationProgress_PublishesToBroadcaster(t *testing.T) {
	t.Parallel()
	b := paporgBroadcast.New[ProgressEvent](4)
	sub := b.Subscribe()

	op := NewOperationProgress(OperationPull, b)
	require.NotEmpty(t, op.OperationID())

	op.Phase(PhasePulling, "Starting pull...")
	event := <-sub.Events
	require.Equal(t, op.OperationID(), event.OperationID)
	require.Equal(t, OperationPull, event.OperationType)
	require.Equal(t, PhasePulling, event.Phase)

	op.UpdateFromOutput("Receiving objects:  50% (5/10), 1.00 MiB | 512.00 KiB/s")
	event = <-sub.Events
	require.Equal(t, PhaseReceiving, event.Phase)
	require.NotNil(t, event.Progress)
	require.Equal(t, uint8(50), *event.Progress)
	require.NotNil(t, event.BytesTransferred)

	op.Completed("done")
	event = <-sub.Events
	require.Equal(t, PhaseCompleted, event.Phase)

	op.Failed("boom")
	event = <-sub.Events
	require.Equal(t, PhaseFailed, event.Phase)
	require.NotNil(t, event.Error)
	require.Equal(t, "boom", *event.Error)
}

func TestOperationProgress_NilBroadcasterIsNoop(t *testing.T) {
	t.Parallel()
	op := NewOperationProgress(OperationFetch, nil)
	require.NotPanics(t, func() { op.Phase(PhaseFetching, "x") })
}

func TestOperationProgress_Cancel(t *testing.T) {
	t.Parallel()
	op := NewOperationProgress(OperationPush, nil)
	require.False(t, op.IsCancelled())
	op.Cancel()
	require.True(t, op.IsCancelled())
}

func TestOperationProgress_UpdateFromOutput_UnrecognizedLineIsIgnored(t *testing.T) {
	t.Parallel()
	b := paporgBroadcast.New[ProgressEvent](4)
	sub := b.Subscribe()
	op := NewOperationProgress(OperationPull, b)

	op.UpdateFromOutput("nothing to see here")

	select {
	case <-sub.Events:
		t.Fatal("expected no event for an unrecognized line")
	default:
	}
}
