// Copyright 2025 The Corestream Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command jsonstream-lint drives the jsonstream core over a file or stdin
// in caller-controlled chunk sizes and prints the event trace it produces,
// or a structured report if the input is malformed.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/corestream-dev/jsonstream"
)

var log zerolog.Logger

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jsonstream-lint",
		Short:         "Stream JSON through the jsonstream core and report events or errors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newParseCmd())
	return root
}

type parseFlags struct {
	chunkSize              int
	verbose                bool
	allowComments          bool
	allowTrailingCommas    bool
	allowNonfiniteNumbers  bool
	allowSingleQuotes      bool
	allowUnescapedControls bool
	allowLeadingBOM        bool
	validateUTF8           bool
	maxDepth               int
	maxStringBytes         int
	maxNumberBytes         int
	maxContainerElems      int
	maxTotalBytes          int
}

func newParseCmd() *cobra.Command {
	f := &parseFlags{}
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a JSON document from a file or stdin, printing its event trace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log = newLogger(f.verbose)

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			r, closer, err := openInput(path)
			if err != nil {
				return errors.Wrap(err, "jsonstream-lint: opening input")
			}
			defer closer()

			opts := f.toOptions()
			return runParse(cmd.OutOrStdout(), r, opts, f.chunkSize)
		},
	}

	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 4096, "bytes read from input per Feed call")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "log chunk and timing diagnostics to stderr")
	cmd.Flags().BoolVar(&f.allowComments, "allow-comments", false, "accept // and /* */ comments")
	cmd.Flags().BoolVar(&f.allowTrailingCommas, "allow-trailing-commas", false, "accept a trailing comma before ] or }")
	cmd.Flags().BoolVar(&f.allowNonfiniteNumbers, "allow-nonfinite-numbers", false, "accept NaN, Infinity, -Infinity")
	cmd.Flags().BoolVar(&f.allowSingleQuotes, "allow-single-quotes", false, "accept '...' strings")
	cmd.Flags().BoolVar(&f.allowUnescapedControls, "allow-unescaped-controls", false, "accept literal control bytes inside strings")
	cmd.Flags().BoolVar(&f.allowLeadingBOM, "allow-leading-bom", false, "accept a leading UTF-8 BOM")
	cmd.Flags().BoolVar(&f.validateUTF8, "validate-utf8", true, "set Options.ValidateUTF8 (invalid UTF-8 in strings is rejected either way)")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "override max nesting depth (0 = library default)")
	cmd.Flags().IntVar(&f.maxStringBytes, "max-string-bytes", 0, "override max decoded string size (0 = library default)")
	cmd.Flags().IntVar(&f.maxNumberBytes, "max-number-bytes", 0, "override max number lexeme size (0 = library default)")
	cmd.Flags().IntVar(&f.maxContainerElems, "max-container-elems", 0, "override max elements per container (0 = library default)")
	cmd.Flags().IntVar(&f.maxTotalBytes, "max-total-bytes", 0, "override max total input size (0 = library default)")

	return cmd
}

func (f *parseFlags) toOptions() jsonstream.Options {
	opts := jsonstream.Options{
		AllowComments:          f.allowComments,
		AllowTrailingCommas:    f.allowTrailingCommas,
		AllowNonfiniteNumbers:  f.allowNonfiniteNumbers,
		AllowSingleQuotes:      f.allowSingleQuotes,
		AllowUnescapedControls: f.allowUnescapedControls,
		AllowLeadingBOM:        f.allowLeadingBOM,
		ValidateUTF8:           f.validateUTF8,
		PreserveNumberLexeme:   true,
		ParseInt64:             true,
		ParseUint64:            true,
		ParseDouble:            true,
	}
	if f.maxDepth > 0 {
		opts.MaxDepth = jsonstream.AtLimit(f.maxDepth)
	}
	if f.maxStringBytes > 0 {
		opts.MaxStringBytes = jsonstream.AtLimit(f.maxStringBytes)
	}
	if f.maxNumberBytes > 0 {
		opts.MaxNumberBytes = jsonstream.AtLimit(f.maxNumberBytes)
	}
	if f.maxContainerElems > 0 {
		opts.MaxContainerElems = jsonstream.AtLimit(f.maxContainerElems)
	}
	if f.maxTotalBytes > 0 {
		opts.MaxTotalBytes = jsonstream.AtLimit(f.maxTotalBytes)
	}
	return opts
}

func newLogger(verbose bool) zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { _ = file.Close() }, nil
}

func runParse(out io.Writer, r io.Reader, opts jsonstream.Options, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	depth := 0
	handler := func(ev jsonstream.Event) error {
		printEvent(out, ev, &depth)
		return nil
	}

	s, err := jsonstream.NewStream(opts, handler)
	if err != nil {
		return errors.Wrap(err, "jsonstream-lint: constructing stream")
	}

	start := time.Now()
	buf := make([]byte, chunkSize)
	totalRead := 0
	chunks := 0
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if s.State() == jsonstream.StateDone {
				break
			}
			chunks++
			totalRead += n
			log.Debug().Int("chunk", chunks).Int("bytes", n).Msg("feeding chunk")
			if feedErr := s.Feed(buf[:n]); feedErr != nil {
				return reportParseError(out, feedErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return errors.Wrap(readErr, "jsonstream-lint: reading input")
		}
	}

	if s.State() != jsonstream.StateDone {
		if finishErr := s.Finish(); finishErr != nil {
			return reportParseError(out, finishErr)
		}
	}

	log.Info().
		Int("chunks", chunks).
		Int("bytes", totalRead).
		Dur("elapsed", time.Since(start)).
		Msg("parse complete")
	return nil
}

func printEvent(out io.Writer, ev jsonstream.Event, depth *int) {
	switch ev.Kind {
	case jsonstream.ArrayEnd, jsonstream.ObjectEnd:
		*depth--
	}
	indent := ""
	for i := 0; i < *depth; i++ {
		indent += "  "
	}
	switch ev.Kind {
	case jsonstream.ObjectBegin:
		fmt.Fprintf(out, "%s%s\n", indent, ev.Kind)
	case jsonstream.ArrayBegin:
		fmt.Fprintf(out, "%s%s\n", indent, ev.Kind)
	case jsonstream.Key:
		fmt.Fprintf(out, "%s%s %q\n", indent, ev.Kind, ev.Text)
	case jsonstream.String:
		fmt.Fprintf(out, "%s%s %q\n", indent, ev.Kind, ev.Text)
	case jsonstream.Number:
		fmt.Fprintf(out, "%s%s %s\n", indent, ev.Kind, ev.Num.Lexeme)
	case jsonstream.Bool:
		fmt.Fprintf(out, "%s%s %v\n", indent, ev.Kind, ev.Bool)
	case jsonstream.Null:
		fmt.Fprintf(out, "%s%s\n", indent, ev.Kind)
	default:
		fmt.Fprintf(out, "%s%s\n", indent, ev.Kind)
	}
	switch ev.Kind {
	case jsonstream.ArrayBegin, jsonstream.ObjectBegin:
		*depth++
	}
}

func reportParseError(out io.Writer, err error) error {
	var jerr *jsonstream.Error
	if errors.As(err, &jerr) {
		fmt.Fprintf(out, "error: %s\n", jerr.Error())
		if jerr.Context != "" {
			fmt.Fprintf(out, "  %s\n", jerr.Context)
			if jerr.CaretOffset >= 0 {
				fmt.Fprintf(out, "  %s^\n", spaces(jerr.CaretOffset))
			}
		}
		log.Error().Str("code", jerr.Code().String()).Uint64("offset", jerr.Offset).Msg("parse failed")
		return err
	}
	log.Error().Err(err).Msg("parse failed")
	return err
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
