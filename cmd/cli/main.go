// schedcompare - Scheduler Trace Comparison Tool
//
// schedcompare extracts idle time, finish timelines and context switches
// from scheduler execution traces and compares two schedulers side by side.
package main

import (
	"os"

	"github.com/ccollicutt/schedcompare/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
