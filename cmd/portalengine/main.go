package main

import (
	"fmt"
	"os"
	"strings"
)

// version is set at build time via ldflags.
var version = "dev"

type command struct {
	usage   string
	summary string
	run     func(args []string) error
}

var commands = []command{
	{"serve", "Run a portal configured through the environment", func([]string) error {
		return runServe()
	}},
	{"new <name>", "Create a new portalengine project", func(args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: portalengine new <project-name>")
		}
		return runNew(args[0])
	}},
	{"version", "Print the portalengine version", func([]string) error {
		fmt.Printf("portalengine %s\n", version)
		return nil
	}},
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name, args := os.Args[1], os.Args[2:]
	switch name {
	case "help", "-h", "--help":
		printUsage()
		return
	}

	for _, cmd := range commands {
		if name != strings.Fields(cmd.usage)[0] {
			continue
		}
		if err := cmd.run(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
	printUsage()
	os.Exit(1)
}

func printUsage() {
	var b strings.Builder
	b.WriteString("portalengine - A portal content engine built with Go, Echo, and gomponents\n\n")
	b.WriteString("Usage:\n  portalengine <command> [arguments]\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "  %-14s%s\n", cmd.usage, cmd.summary)
	}
	fmt.Fprintf(&b, "  %-14s%s\n", "help", "Show this help message")
	b.WriteString("\nExamples:\n  portalengine serve\n  portalengine new myportal\n  portalengine new github.com/user/myportal")
	fmt.Println(b.String())
}
