package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/claude-buddy/claude-buddy/internal/settings"
)

// RunSetup installs the Claude Buddy hooks into Claude Code's
// settings.json and returns the process exit code.
func RunSetup(stdin io.Reader) int {
	out := settings.Merge(settings.MergeOptions{Interactive: true})
	printMergeOutput(out)

	if out.Result == settings.MergeNeedsConfirmation {
		fmt.Print("Keep the existing command and install the rest? [y/N] ")
		reader := bufio.NewReader(stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Setup aborted; settings.json was not modified.")
			return 1
		}

		out = settings.Merge(settings.MergeOptions{Interactive: false})
		printMergeOutput(out)
	}

	switch out.Result {
	case settings.MergeSuccess:
		fmt.Println("Done. Claude Code sessions will now ping claude-buddy.")
		return 0
	case settings.MergeAlreadyConfigured:
		return 0
	case settings.MergeError:
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", out.Err)
		return 1
	default:
		return 1
	}
}

func printMergeOutput(out settings.MergeOutput) {
	for _, msg := range out.Messages {
		fmt.Println(msg)
	}
	for _, warning := range out.Warnings {
		fmt.Fprintln(os.Stderr, warning)
	}
}
