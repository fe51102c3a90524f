// Command compositord drives a compositor pipeline from a YAML scenario.
//
// simulate runs a fixed number of vsyncs and prints a report; serve runs
// the pipeline on a vsync timer and exposes Prometheus metrics and debug
// endpoints over HTTP.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
