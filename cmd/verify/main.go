// Checks that the local training setup is complete. Nothing is modified.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sensorable/foodprep"
)

var (
	rootPath  string                // The project directory to inspect.
	setupOpts foodprep.SetupOptions // The checks to run.
)

func init() {
	cfg := foodprep.LoadConfig()

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.StringVar(&rootPath, "root", ".", "The project `path` to inspect")
	python := flag.String("python", cfg.Python, "The python `interpreter`")
	flag.Parse()

	setupOpts = foodprep.DefaultSetupOptions(rootPath, cfg)
	setupOpts.Python = *python
}

func main() {
	checklist := foodprep.RunSetupChecks(setupOpts)
	foodprep.PrintChecklist(os.Stdout, checklist)

	if checklist.Verdict() == foodprep.VerdictFailed {
		os.Exit(1)
	}
}
