package main

import (
	"fmt"
	"os"

	"github.com/hatchpm/hatch/internal/herrors"
)

// Exit codes let scripts distinguish failure modes without parsing
// stderr text.
const (
	ExitSuccess   = 0
	ExitGeneral   = 1
	ExitUsage     = 2
	ExitCancelled = 130
)

func exitWithCode(code int) {
	os.Exit(code)
}

// handleError prints err to stderr and exits with the code matching
// its herrors kind, or ExitGeneral for anything unclassified.
func handleError(err error) {
	printError(err)
	exitWithCode(classifyError(err))
}

// classifyError maps one of the ten herrors kinds to an exit code.
// Parse-shaped failures (malformed input, ambiguous or missing
// requirements) are usage errors; everything else is a general
// failure, since scripts mostly need to distinguish "you asked for
// something wrong" from "the operation itself failed".
func classifyError(err error) int {
	switch err.(type) {
	case *herrors.ParseError, *herrors.Ambiguous, *herrors.NoCandidate, *herrors.NoSuchRevision:
		return ExitUsage
	default:
		return ExitGeneral
	}
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func printInfo(a ...interface{}) {
	if !quietFlag {
		fmt.Println(a...)
	}
}

func printInfof(format string, a ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, a...)
	}
}
