package main

import (
	"flag"
	"strings"
)

const versionString = "0.1.0"

// stringList accumulates repeatable flag values, e.g. multiple --exclude.
type stringList []string

func (s *stringList) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

type cliOptions struct {
	exclude           stringList
	ignoreTypeImports bool
	debug             bool
	silent            bool
	numberOfCycles    int
	watch             bool
	tsconfigPath      string
	noTsconfig        bool
	noWorkspace       bool
	jsonOutput        bool
	expectedHash      string
	allowlistPath     string
	updateHash        bool
	init              bool
	sarifPath         string
	metricsAddr       string
	otlpEndpoint      string
	version           bool
	args              []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("tscircular", flag.ContinueOnError)

	fs.Var(&opts.exclude, "exclude", "Path or glob to exclude from discovery (repeatable)")
	fs.BoolVar(&opts.ignoreTypeImports, "ignore-type-imports", false, "Erase type-only edges before cycle detection")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug-level logging")
	fs.BoolVar(&opts.silent, "silent", false, "Suppress all logging except fatal errors")
	fs.IntVar(&opts.numberOfCycles, "numberOfCycles", -1, "Expected number of non-allowed cycles for exit code 0 (defaults to the config file's expected_cycles)")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run analysis on file changes")
	fs.StringVar(&opts.tsconfigPath, "tsconfig", "", "Path to a starting tsconfig.json")
	fs.BoolVar(&opts.noTsconfig, "no-tsconfig", false, "Disable tsconfig alias resolution")
	fs.BoolVar(&opts.noWorkspace, "no-workspace", false, "Disable workspace package resolution")
	fs.BoolVar(&opts.jsonOutput, "json", false, "Print the pinned JSON report to stdout")
	fs.StringVar(&opts.expectedHash, "expected-hash", "", "Expected combined cycle hash for exit code 0")
	fs.StringVar(&opts.allowlistPath, "allowlist", "", "Path to a config file whose allowed_cycles is applied in addition to the discovered config")
	fs.BoolVar(&opts.updateHash, "update-hash", false, "Rewrite the config file with the observed cycle count and hash")
	fs.BoolVar(&opts.init, "init", false, "Write a starter .cddrc.json and exit")
	fs.StringVar(&opts.sarifPath, "sarif", "", "Write a SARIF 2.1.0 report to this path")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "OTLP/gRPC collector endpoint for tracing")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
