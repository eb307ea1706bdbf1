// create.go implements the 'activitytracker create' command.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kolkov/activitytracker/internal/activity/allocator"
	"github.com/kolkov/activitytracker/internal/activity/global"
)

type createConfig struct {
	file  string
	size  int64
	id    uint64
	name  string
	depth int
}

// createCommand implements the 'activitytracker create' command: it
// creates (or reopens) a file-backed segment, records -id in the
// segment header, registers a thread region for the current goroutine
// and releases that region again before returning. The segment stays on
// disk for a later 'dump'; the released region is not listed there.
//
// Example:
//
//	activitytracker create -file=/tmp/activity.dat -size=1048576 -id=42 -name=myapp
func createCommand(args []string) {
	cfg, err := parseCreateArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fa, err := allocator.OpenFile(cfg.file, cfg.size, cfg.name, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating segment: %v\n", err)
		os.Exit(1)
	}
	fa.SetID(cfg.id)

	gt, err := global.NewWithAllocator(fa, global.Config{StackDepth: cfg.depth})
	if err != nil {
		fa.Close()
		fmt.Fprintf(os.Stderr, "Error creating segment: %v\n", err)
		os.Exit(1)
	}

	mt := gt.CreateTrackerForCurrentThread(cfg.name)
	defer mt.Release()

	fmt.Printf("Created segment %s (%d bytes, id=%d), thread region for %q registered\n", cfg.file, cfg.size, cfg.id, cfg.name)
}

func parseCreateArgs(args []string) (createConfig, error) {
	cfg := createConfig{size: 1 << 20, name: "activitytracker", depth: global.DefaultStackDepth}

	for _, arg := range args {
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
		case "-id":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("invalid -id: %w", err)
			}
			cfg.id = n
		case "-name":
			cfg.name = value
		case "-depth":
			n, err := strconv.Atoi(value)
			if err != nil {
				return cfg, fmt.Errorf("invalid -depth: %w", err)
			}
			cfg.depth = n
		default:
			return cfg, fmt.Errorf("unknown flag %q", key)
		}
	}

	if cfg.file == "" {
		return cfg, fmt.Errorf("-file is required")
	}
	return cfg, nil
}
