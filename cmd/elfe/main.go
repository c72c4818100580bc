// Command elfe is the reference CLI: read a source file (or stdin),
// evaluate it, print the result. Flags are parsed by hand off os.Args,
// in the same dispatch-by-position style as funxy's own cmd/funxy/main.go
// rather than the standard library's flag package.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/pombredanne/elfe/internal/ast"
	"github.com/pombredanne/elfe/internal/config"
	"github.com/pombredanne/elfe/internal/diag"
	"github.com/pombredanne/elfe/internal/evaluator"
	"github.com/pombredanne/elfe/pkg/host"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-v] [-depth N] [-config path] [-opcode-endpoint addr] [file]\n", os.Args[0])
}

type cliArgs struct {
	file           string
	verbose        bool
	depthOverride  int
	configPath     string
	opcodeEndpoint string
}

func parseArgs(argv []string) (cliArgs, error) {
	args := cliArgs{configPath: "elfe.yaml"}
	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "-v", "--verbose":
			args.verbose = true
		case "-depth":
			i++
			if i >= len(argv) {
				return args, fmt.Errorf("-depth requires a value")
			}
			if _, err := fmt.Sscanf(argv[i], "%d", &args.depthOverride); err != nil {
				return args, fmt.Errorf("-depth: %w", err)
			}
		case "-config":
			i++
			if i >= len(argv) {
				return args, fmt.Errorf("-config requires a value")
			}
			args.configPath = argv[i]
		case "-opcode-endpoint":
			i++
			if i >= len(argv) {
				return args, fmt.Errorf("-opcode-endpoint requires a value")
			}
			args.opcodeEndpoint = argv[i]
		case "-h", "-help", "--help":
			usage()
			os.Exit(0)
		default:
			if args.file != "" {
				return args, fmt.Errorf("unexpected argument %q", argv[i])
			}
			args.file = argv[i]
		}
	}
	return args, nil
}

func readSource(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func main() {
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(args.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if args.verbose {
		cfg.Verbose = true
	}
	if args.opcodeEndpoint != "" {
		cfg.OpcodeEndpoint = args.opcodeEndpoint
	}

	opts := []host.Option{host.FromConfig(cfg)}
	if args.depthOverride > 0 {
		opts = append(opts, host.WithDepthLimit(args.depthOverride))
	}

	h, err := host.New(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer h.Close()

	source, err := readSource(args.file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	start := time.Now()
	result, err := h.Eval(source)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	color := isatty.IsTerminal(os.Stdout.Fd())
	printDiagnostics(h.Diagnostics(), color)

	fmt.Println(ast.String(evaluator.Deref(result)))

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "evaluated %s of source in %s\n", humanize.Bytes(uint64(len(source))), elapsed)
	}
}

func printDiagnostics(records []diag.Record, color bool) {
	for _, r := range records {
		label := r.Kind.String()
		if color {
			fmt.Fprintf(os.Stderr, "\x1b[33m%d:%d: %s: %s\x1b[0m\n", r.Pos.Line, r.Pos.Column, label, r.Template)
		} else {
			fmt.Fprintf(os.Stderr, "%d:%d: %s: %s\n", r.Pos.Line, r.Pos.Column, label, r.Template)
		}
	}
}
