// Command explainctl checks and summarises export files offline.
//
//	explainctl validate FILE...
//	explainctl summary FILE
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vbonduro/explainui/internal/exchange"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("explainctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: explainctl validate FILE... | explainctl summary FILE")
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return 2
	}

	switch fs.Arg(0) {
	case "validate":
		return validate(fs.Args()[1:], stdout, stderr)
	case "summary":
		return summary(fs.Arg(1), stdout, stderr)
	default:
		fs.Usage()
		return 2
	}
}

func readFile(path string) (*exchange.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return exchange.Read(f)
}

func validate(paths []string, stdout, stderr io.Writer) int {
	code := 0
	for _, path := range paths {
		m, err := readFile(path)
		if err != nil {
			var ve *exchange.ValidationError
			if errors.As(err, &ve) && ve.Field != "" {
				fmt.Fprintf(stderr, "%s: %s: %s\n", path, ve.Field, ve.Reason)
			} else {
				fmt.Fprintf(stderr, "%s: %v\n", path, err)
			}
			code = 1
			continue
		}
		fmt.Fprintf(stdout, "%s: ok (%d pins)\n", path, len(m.Pins))
	}
	return code
}

func summary(path string, stdout, stderr io.Writer) int {
	m, err := readFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return 1
	}

	size := m.Image.NaturalSize
	fmt.Fprintf(stdout, "image %gx%g, %d pins, exported %s\n", size.Width, size.Height, len(m.Pins), m.ExportedAt)
	for i, p := range m.Pins {
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(stdout, "%3d  %-8s %-13s %-6s (%g, %g)  %s\n",
			len(m.Pins)-i, p.Category.Label(), p.Perspective.Label(), p.Severity, p.X, p.Y, title)
	}
	return 0
}
