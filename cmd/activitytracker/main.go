// Package main implements the activitytracker CLI tool.
//
// activitytracker creates and inspects persistent activity-tracker
// segments: files recording, for every live thread of a process, the
// stack of in-flight operations (task runs, lock acquisitions, event
// waits, thread joins, process waits) it was in the middle of -- data
// meant to survive a crash and be read back by a separate process.
//
// Usage:
//
//	activitytracker create -file=path -size=bytes [-id=N] [-name=str]
//	activitytracker dump   -file=path [-symbols] [-watch]
//
// This is the CLI entry point for the standalone activity-tracker tool.
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "create":
		createCommand(os.Args[2:])
	case "dump":
		dumpCommand(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("activitytracker version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`activitytracker - crash-survivable thread activity tracker tool

USAGE:
    activitytracker <command> [arguments]

COMMANDS:
    create     Create a new persistent activity-tracker segment
    dump       Dump live thread regions from a segment
    version    Show version information
    help       Show this help message

EXAMPLES:
    # Create a 1 MiB segment for process id 42
    activitytracker create -file=/tmp/activity.dat -size=1048576 -id=42 -name=myapp

    # Dump every live thread region in a segment
    activitytracker dump -file=/tmp/activity.dat

    # Dump with symbolicated call stacks, refreshing every second
    activitytracker dump -file=/tmp/activity.dat -symbols -watch

ABOUT:
    activitytracker manages a persistent, lock-free ring of per-thread
    activity stacks backed by a single memory-mapped file. A writer
    process pushes and pops activities with no locks and no per-call
    allocation; a reader -- in the same process, a different process, or
    reading the file after the writer has crashed -- walks the segment
    and reconstructs each thread's in-flight call stack as of the last
    consistent snapshot it could take.

FOR MORE INFORMATION:
    Repository: https://github.com/kolkov/activitytracker

`)
}
