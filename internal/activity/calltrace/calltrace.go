// Package calltrace captures and formats short call-chain snapshots for
// an Activity's optional CallStack field: runtime.Callers for the fast
// capture, runtime.CallersFrames for the slow, reporting-only
// symbolication.
package calltrace

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/kolkov/activitytracker/internal/activity/record"
)

// Capture captures up to record.CallStackDepth program counters starting
// skip frames above Capture itself (0 records Capture's own frame first,
// 1 starts at its caller), zero-terminated if the real stack is
// shorter than the capacity. Activities are fixed-size and own their
// call stack directly, so there is no dedup depot: callers on the hot
// path (Tracker.Push) pay exactly one runtime.Callers call.
func Capture(skip int) (pcs [record.CallStackDepth]uintptr) {
	n := runtime.Callers(skip+1, pcs[:])
	if n < len(pcs) {
		pcs[n] = 0
	}
	return pcs
}

// Format renders a captured call stack as human-readable frames, for use
// by the CLI's dump -symbols flag. Symbolication is only meaningful
// against the same binary that captured the stack; a cross-process or
// post-crash reader should treat unresolved frames as expected, not an
// error.
func Format(pcs [record.CallStackDepth]uintptr) string {
	n := 0
	for n < len(pcs) && pcs[n] != 0 {
		n++
	}
	if n == 0 {
		return "  <no call stack>\n"
	}

	frames := runtime.CallersFrames(pcs[:n])
	var buf strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&buf, "  %s\n      %s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return buf.String()
}
