package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/attrinspect"
)

func runInspect(args []string) error {
	var (
		file    string
		title   string
		raw     bool
		asJSON  bool
		verbose bool
	)

	fs := newFlagSet("inspect", "[value | -] [flags]")
	fs.StringVarP(&file, "file", "f", "", "read the value from a file as raw bytes")
	fs.StringVarP(&title, "title", "t", "", "title for content that is neither compressed nor JSON")
	fs.BoolVar(&raw, "raw", false, "treat stdin as raw bytes instead of text")
	fs.BoolVar(&asJSON, "json", false, "print the full inspection result as JSON")
	fs.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v, err := readInspectValue(fs.Args(), file, raw, os.Stdin)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, verbose)
	res := attrinspect.New(attrinspect.WithLogger(logger)).InspectNamed(context.Background(), title, v)

	if asJSON {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		printCode(os.Stdout, string(b), "json")
		return nil
	}

	printResult(os.Stdout, res)
	if res.DecompressionFailed {
		printWarning(os.Stderr, "decompression failed", res.Diagnostic)
	}
	return nil
}

// readInspectValue picks the input: a file is raw bytes, a positional value
// is text, and "-" or no argument reads stdin.
func readInspectValue(args []string, file string, raw bool, stdin io.Reader) (attrinspect.Value, error) {
	if file != "" {
		if len(args) > 0 {
			return attrinspect.Value{}, errors.New("give either --file or a value, not both")
		}
		b, err := os.ReadFile(file)
		if err != nil {
			return attrinspect.Value{}, fmt.Errorf("read value: %w", err)
		}
		return attrinspect.Bytes(b), nil
	}

	switch {
	case len(args) > 1:
		return attrinspect.Value{}, errors.New("expected at most one value")
	case len(args) == 1 && args[0] != "-":
		return attrinspect.Text(args[0]), nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return attrinspect.Value{}, fmt.Errorf("read stdin: %w", err)
	}
	if raw {
		return attrinspect.Bytes(b), nil
	}
	// Shells and editors leave a trailing newline that is not part of the value.
	return attrinspect.Text(strings.TrimRight(string(b), "\r\n")), nil
}

func printResult(w io.Writer, res attrinspect.Result) {
	printTitle(w, res.Title)
	if res.IsStructured {
		printCode(w, res.Content, "json")
		return
	}
	fmt.Fprintln(w, res.Content)
}
