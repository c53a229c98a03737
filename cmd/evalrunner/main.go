// Command evalrunner executes declarative forecast evaluation plans against
// the evaluation engine and writes one result file per run.
//
// Usage:
//
//	evalrunner run --builtin hres-all-events --events events.yaml
//	evalrunner validate --plan plans/heat.yaml
//	evalrunner cases --events events.yaml --field event_type --value freeze
//	evalrunner plans
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
