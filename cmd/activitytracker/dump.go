// dump.go implements the 'activitytracker dump' command.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kolkov/activitytracker/internal/activity/calltrace"
	"github.com/kolkov/activitytracker/internal/activity/reader"
	"github.com/kolkov/activitytracker/internal/activity/tracker"
)

type dumpConfig struct {
	file    string
	size    int64
	symbols bool
	watch   bool
}

// dumpCommand implements the 'activitytracker dump' command: it opens a
// segment read-only and prints one block per live thread region,
// including each activity's category, wall time, and (with -symbols)
// symbolicated call stack. With -watch it repeats every second until
// interrupted.
//
// Example:
//
//	activitytracker dump -file=/tmp/activity.dat -symbols -watch
func dumpCommand(args []string) {
	cfg, err := parseDumpArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for {
		if err := dumpOnce(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !cfg.watch {
			return
		}
		time.Sleep(time.Second)
	}
}

func dumpOnce(cfg dumpConfig) error {
	r, err := reader.OpenFile(cfg.file, cfg.size, "")
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.file, err)
	}
	defer r.Close()

	count := 0
	r.Walk(func(snap tracker.Snapshot) bool {
		count++
		fmt.Printf("thread %q (pid=%d tid=%d depth=%d)\n", snap.ThreadName, snap.ProcessID, snap.ThreadID, snap.ActivityStackDepth)
		for i, act := range snap.ActivityStack {
			when := time.Unix(0, act.TimeInternal)
			fmt.Printf("  [%d] category=%d action=%d origin=%#x time=%s\n",
				i, act.ActivityType.Category(), act.ActivityType.Action(), act.OriginAddress, when.Format(time.RFC3339Nano))
			if cfg.symbols {
				fmt.Printf("      %s\n", calltrace.Format(act.CallStack))
			}
		}
		return true
	})

	if count == 0 {
		fmt.Println("no live thread regions found")
	}
	return nil
}

func parseDumpArgs(args []string) (dumpConfig, error) {
	cfg := dumpConfig{size: 1 << 20}

	for _, arg := range args {
		if arg == "-symbols" {
			cfg.symbols = true
			continue
		}
		if arg == "-watch" {
			cfg.watch = true
			continue
		}
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return cfg, fmt.Errorf("expected -flag=value, got %q", arg)
		}
		switch key {
		case "-file":
			cfg.file = value
		case "-size":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("invalid -size: %w", err)
			}
			cfg.size = n
		default:
			return cfg, fmt.Errorf("unknown flag %q", key)
		}
	}

	if cfg.file == "" {
		return cfg, fmt.Errorf("-file is required")
	}
	return cfg, nil
}
