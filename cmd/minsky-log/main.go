// Command minsky-log views bus traffic log files recorded by
// minsky-broker with the -record flag.
//
// Usage:
//
//	minsky-log <command> [flags] <file.mlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	minsky-log view traffic.mlog
//
//	# View only incoming publishes of one client
//	minsky-log view -client minsky-bot -direction in traffic.mlog
//
//	# Show statistics
//	minsky-log stats traffic.mlog
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/minsky-robotics/minsky-go/pkg/buslog"
)

const usage = `minsky-log - MinskyBot bus traffic viewer

Usage:
  minsky-log <command> [flags] <file.mlog>

Commands:
  view     View log file in human-readable format
  stats    Show statistics about the log file

Use "minsky-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	client := fs.String("client", "", "Filter by client ID")
	topic := fs.String("topic", "", "Filter by topic")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: minsky-log view [flags] <file.mlog>")
		os.Exit(1)
	}

	filter := &buslog.Filter{ClientID: *client, Topic: *topic}
	switch *direction {
	case "":
	case "in":
		d := buslog.DirectionIn
		filter.Direction = &d
	case "out":
		d := buslog.DirectionOut
		filter.Direction = &d
	default:
		fmt.Fprintf(os.Stderr, "invalid direction %q, want in or out\n", *direction)
		os.Exit(1)
	}

	events, err := buslog.ReadFile(fs.Arg(0), filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read failed: %v\n", err)
		os.Exit(1)
	}

	for _, event := range events {
		printEvent(event)
	}
}

func printEvent(event buslog.Event) {
	line := fmt.Sprintf("%s %-3s %-12s %s",
		event.Timestamp.Format(time.StampMilli),
		event.Direction,
		event.Type,
		event.ClientID)
	if event.Topic != "" {
		line += " " + event.Topic
	}
	if len(event.Payload) > 0 {
		line += fmt.Sprintf(" %q", event.Payload)
	}
	fmt.Println(line)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: minsky-log stats <file.mlog>")
		os.Exit(1)
	}

	events, err := buslog.ReadFile(fs.Arg(0), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read failed: %v\n", err)
		os.Exit(1)
	}

	if len(events) == 0 {
		fmt.Println("no events")
		return
	}

	byTopic := make(map[string]int)
	byClient := make(map[string]int)
	for _, event := range events {
		if event.Topic != "" {
			byTopic[event.Topic]++
		}
		byClient[event.ClientID]++
	}

	first := events[0].Timestamp
	last := events[len(events)-1].Timestamp
	fmt.Printf("events:   %d\n", len(events))
	fmt.Printf("span:     %s to %s (%s)\n",
		first.Format(time.DateTime), last.Format(time.DateTime),
		last.Sub(first).Round(time.Millisecond))

	fmt.Println("clients:")
	for _, name := range sortedKeys(byClient) {
		fmt.Printf("  %-24s %d\n", name, byClient[name])
	}
	fmt.Println("topics:")
	for _, name := range sortedKeys(byTopic) {
		fmt.Printf("  %-34s %d\n", name, byTopic[name])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
