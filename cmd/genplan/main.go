// Command genplan writes a built-in evaluation plan as a YAML plan file, as a
// starting point for a custom plan.
//
// Usage:
//
//	go run ./cmd/genplan -name heat-waves -events events.yaml -out plans/heat.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/couchcryptid/forecast-eval-runner/internal/plan"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("genplan", flag.ContinueOnError)
	name := fs.String("name", "", "built-in plan to export ("+strings.Join(plan.BuiltinNames(), ", ")+")")
	events := fs.String("events", "", "events_file to set in the exported plan")
	out := fs.String("out", "", "output path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -name")
	}

	f, ok := plan.Builtin(*name)
	if !ok {
		return fmt.Errorf("unknown built-in plan %q", *name)
	}
	if *events != "" {
		f.EventsFile = *events
	}

	// Compile first so an exported plan is always loadable.
	if _, err := plan.Compile(&f); err != nil {
		return fmt.Errorf("plan %s: %w", *name, err)
	}

	if *out == "" {
		return encodePlan(stdout, f)
	}
	file, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := writePlan(file, f); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %s (%d runs)", *out, len(f.Runs))
	return nil
}

// writePlan encodes f to wc and closes it, reporting a failed close.
func writePlan(wc io.WriteCloser, f plan.File) error {
	if err := encodePlan(wc, f); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

func encodePlan(w io.Writer, f plan.File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return enc.Close()
}
