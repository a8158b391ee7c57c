package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/peterh/liner"

	"github.com/thomasha1310/jlox-interpreter/interpreter"
	"github.com/thomasha1310/jlox-interpreter/parser"
	"github.com/thomasha1310/jlox-interpreter/report"
)

const historyFile = ".jlox_history"

// Maintain the interpreter state by making it global throughout the session.
var (
	reporter        = report.NewReporter()
	lox_interpreter = interpreter.NewInterpreter(reporter)
)

func main() {
	// Start CPU profile if enabled via the env-var CPUPROFILE.
	if prof_out, has := os.LookupEnv("CPUPROFILE"); has && prof_out != "" {
		f, err := os.Create(prof_out)
		if err != nil {
			log.Fatalf(
				"Cannot create profile output file: '%v' (%v).\n",
				prof_out, err,
			)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	switch len(os.Args) {
	case 0, 1:
		execPrompt()
	case 2:
		execFromFile(os.Args[1])

	default:
		fmt.Println("Usage: jlox [script]")
		os.Exit(64)
	}
}

func execFromFile(filepath string) {
	source, err := os.ReadFile(filepath)

	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open file '%v' (%v).\n", filepath, err.Error())
		os.Exit(1)
	}

	run(string(source))

	// Indicate an error in the exit code.
	if reporter.HadError {
		os.Exit(65)
	}
	if reporter.HadRuntimeError {
		os.Exit(70)
	}
}

func execPrompt() {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt("> ")
		if errors.Is(err, io.EOF) {
			fmt.Println()
			break
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v.\n", err.Error())
			os.Exit(1)
		}

		if line != "" {
			ln.AppendHistory(line)
		}

		run(line)

		// Reset the error flag so the user can continue running code.
		reporter.ResetError()
	}
}

func run(source string) {
	p := parser.MakeParser(source, reporter)
	statements := p.Parse()

	// Stop if there was a syntax error.
	if reporter.HadError {
		return
	}

	resolver := interpreter.NewResolver(lox_interpreter, reporter)
	resolver.Resolve(statements)

	// Stop if there was a resolution error.
	if reporter.HadError {
		return
	}

	lox_interpreter.Interpret(statements)
}
