// Copyright (c) 2025 Justin Cranford

package gitops

import (
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	paporgBroadcast "github.com/iperka/paporg-sub000/internal/broadcast"
)

var (
	rePercentage = regexp.MustCompile(`(\d+)%`)
	reCount      = regexp.MustCompile(`\((\d+)/(\d+)\)`)
	reBytes      = regexp.MustCompile(`([\d.]+)\s*(bytes?|[KMGT]i?B)`)
	reSpeed      = regexp.MustCompile(`\|\s*([\d.]+)\s*([KMGT]?i?B)/s`)
)

// ParsedProgress is what a single line of git's stderr progress
// output decodes to (spec §4.11, grounded on progress.rs's
// parse_git_progress).
type ParsedProgress struct {
	Phase      Phase
	HasPhase   bool
	Current    uint64
	Total      uint64
	HasCount   bool
	Percentage uint8
	HasPercent bool
	Bytes      uint64
	HasBytes   bool
	Speed      uint64
	HasSpeed   bool
}

// ParseProgressLine recognizes the handful of git progress patterns:
//
//	Counting objects: 100% (10/10), done.
//	Compressing objects:  50% (5/10)
//	Writing objects:  33% (1/3), 256 bytes | 256.00 KiB/s
//	Receiving objects:  75% (75/100), 1.00 MiB | 512.00 KiB/s
//	Resolving deltas: 100% (5/5), done.
func ParseProgressLine(line string) ParsedProgress {
	var p ParsedProgress

	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "counting"), strings.Contains(lower, "enumerating"):
		p.Phase, p.HasPhase = PhaseCounting, true
	case strings.Contains(lower, "compressing"):
		p.Phase, p.HasPhase = PhaseCompressing, true
	case strings.Contains(lower, "writing"):
		p.Phase, p.HasPhase = PhaseWriting, true
	case strings.Contains(lower, "receiving"):
		p.Phase, p.HasPhase = PhaseReceiving, true
	case strings.Contains(lower, "resolving"):
		p.Phase, p.HasPhase = PhaseResolving, true
	case strings.Contains(lower, "unpacking"):
		p.Phase, p.HasPhase = PhaseUnpacking, true
	}

	if m := rePercentage.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseUint(m[1], 10, 8); err == nil {
			p.Percentage, p.HasPercent = uint8(v), true
		}
	}

	if m := reCount.FindStringSubmatch(line); m != nil {
		cur, errC := strconv.ParseUint(m[1], 10, 64)
		tot, errT := strconv.ParseUint(m[2], 10, 64)
		if errC == nil && errT == nil {
			p.Current, p.Total, p.HasCount = cur, tot, true
		}
	}

	if m := reBytes.FindStringSubmatch(line); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.Bytes, p.HasBytes = uint64(n*unitMultiplier(m[2])), true
		}
	}

	if m := reSpeed.FindStringSubmatch(line); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.Speed, p.HasSpeed = uint64(n*unitMultiplier(m[2])), true
		}
	}

	return p
}

func unitMultiplier(unit string) float64 {
	switch strings.ToLower(unit) {
	case "byte", "bytes", "b":
		return 1
	case "kib", "kb":
		return 1024
	case "mib", "mb":
		return 1024 * 1024
	case "gib", "gb":
		return 1024 * 1024 * 1024
	case "tib", "tb":
		return 1024 * 1024 * 1024 * 1024
	default:
		return 1
	}
}

// OperationProgress tracks one in-flight git operation: it owns a
// cancellation flag an external caller may set, and publishes
// ProgressEvents to a shared broadcaster (spec §4.11's "operation
// objects carry a cancellation token that may be set externally").
type OperationProgress struct {
	operationID   string
	operationType OperationType
	broadcaster   *paporgBroadcast.Broadcaster[ProgressEvent]
	cancelled     atomic.Bool
}

// NewOperationProgress starts tracking a new operation of opType,
// publishing to broadcaster (nil is allowed: every publish becomes a
// no-op, matching Broadcaster's zero-subscriber behavior).
func NewOperationProgress(opType OperationType, broadcaster *paporgBroadcast.Broadcaster[ProgressEvent]) *OperationProgress {
	return &OperationProgress{
		operationID:   uuid.NewString(),
		operationType: opType,
		broadcaster:   broadcaster,
	}
}

// OperationID returns the generated id correlating every event this
// tracker publishes.
func (p *OperationProgress) OperationID() string { return p.operationID }

func (p *OperationProgress) publish(event ProgressEvent) {
	if p.broadcaster == nil {
		return
	}
	event.OperationID = p.operationID
	event.OperationType = p.operationType
	event.Timestamp = time.Now()
	p.broadcaster.Publish(event)
}

// Phase broadcasts an explicit phase transition.
func (p *OperationProgress) Phase(phase Phase, message string) {
	p.publish(ProgressEvent{Phase: phase, Message: message})
}

// UpdateFromOutput parses one line of git's progress output and, if
// it matched a known phase, broadcasts the derived event.
func (p *OperationProgress) UpdateFromOutput(line string) {
	parsed := ParseProgressLine(line)
	if !parsed.HasPhase {
		return
	}

	event := ProgressEvent{Phase: parsed.Phase, Message: string(parsed.Phase), RawOutput: &line}
	switch {
	case parsed.HasCount:
		pct := uint8(min64(parsed.Current*100/max64(parsed.Total, 1), 100))
		event.Current, event.Total, event.Progress = &parsed.Current, &parsed.Total, &pct
	case parsed.HasPercent:
		event.Progress = &parsed.Percentage
	}
	if parsed.HasBytes {
		event.BytesTransferred = &parsed.Bytes
		if parsed.HasSpeed {
			event.TransferSpeed = &parsed.Speed
		}
	}
	p.publish(event)
}

// Completed broadcasts the terminal success event.
func (p *OperationProgress) Completed(message string) {
	p.publish(ProgressEvent{Phase: PhaseCompleted, Message: message})
}

// Failed broadcasts the terminal failure event.
func (p *OperationProgress) Failed(err string) {
	p.publish(ProgressEvent{Phase: PhaseFailed, Message: "Operation failed", Error: &err})
}

// Cancel sets the cancellation flag and broadcasts a failure event.
func (p *OperationProgress) Cancel() {
	p.cancelled.Store(true)
	p.Failed("operation cancelled")
}

// IsCancelled reports whether Cancel has been called.
func (p *OperationProgress) IsCancelled() bool {
	return p.cancelled.Load()
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
