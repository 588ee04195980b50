package foodprep

// Read-only checks of the local training setup.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// CheckResult is one line of the setup checklist.
type CheckResult struct {
	Name   string
	OK     bool
	Detail string // Extra information, printed below the item.
	Hint   string // How to fix a failed check.
}

// CheckSection groups related checks under a numbered title.
type CheckSection struct {
	Title   string
	Results []CheckResult
}

// Verdict summarizes a checklist.
type Verdict int

// The possible verdicts.
const (
	VerdictReady       Verdict = iota // Everything passed.
	VerdictAlmostReady                // Everything passed, but no virtual environment is active.
	VerdictFailed                     // At least one check failed.
)

// Checklist is the outcome of RunSetupChecks.
type Checklist struct {
	Sections []CheckSection
	InVenv   bool
	failed   bool
}

// Verdict returns the overall outcome.
func (c *Checklist) Verdict() Verdict {
	switch {
	case c.failed:
		return VerdictFailed
	case !c.InVenv:
		return VerdictAlmostReady
	}
	return VerdictReady
}

func (c *Checklist) add(title string, results ...CheckResult) {
	for _, r := range results {
		if !r.OK {
			c.failed = true
		}
	}
	c.Sections = append(c.Sections, CheckSection{Title: title, Results: results})
}

// SetupOptions configures RunSetupChecks. Paths are relative to Root.
type SetupOptions struct {
	Root          string
	Python        string
	RequiredFiles []string
	DatasetDirs   []string
	VenvDir       string
	YOLOv5Dir     string
	Packages      map[string]string // Python module to display name.

	run    commandRunner
	getenv func(string) string
}

// DefaultSetupOptions returns the checks for the project under root, with the dataset layout,
// descriptor, interpreter and YOLOv5 checkout taken from cfg. Relative paths in cfg are relative to
// root.
func DefaultSetupOptions(root string, cfg *Config) SetupOptions {
	var datasetDirs []string
	for _, set := range []string{TrainSetDirName, TestSetDirName} {
		for _, sub := range []string{ImagesDirName, LabelsDirName} {
			datasetDirs = append(datasetDirs, filepath.Join(cfg.SplitDir, set, sub))
		}
	}

	return SetupOptions{
		Root:          root,
		Python:        cfg.Python,
		RequiredFiles: []string{"requirements.txt", "setup_env.sh", cfg.DataYAML, "README.md"},
		DatasetDirs:   datasetDirs,
		VenvDir:       "venv",
		YOLOv5Dir:     cfg.YOLOv5Dir,
		Packages: map[string]string{
			"torch":      "PyTorch",
			"yaml":       "PyYAML",
			"cv2":        "OpenCV",
			"pandas":     "Pandas",
			"matplotlib": "Matplotlib",
		},
	}
}

// minPythonMinor is the oldest supported Python 3 minor version.
const minPythonMinor = 7

// RunSetupChecks inspects the project under opts.Root without modifying anything.
func RunSetupChecks(opts SetupOptions) *Checklist {
	run := opts.run
	if run == nil {
		run = runCommand
	}
	getenv := opts.getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	path := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(opts.Root, p)
	}

	c := &Checklist{}

	// Runtime versions.
	runtimes := []CheckResult{{Name: "Go " + strings.TrimPrefix(runtime.Version(), "go"), OK: true}}
	py := CheckResult{Name: "Python", Hint: "Python 3." + strconv.Itoa(minPythonMinor) + "+ required"}
	if v, err := pythonVersion(run, opts.Python); err != nil {
		py.Detail = err.Error()
	} else {
		py.Name += " " + v
		py.OK = pythonVersionOK(v)
	}
	c.add("Runtime Version", append(runtimes, py)...)

	// Required files.
	var files []CheckResult
	for _, f := range opts.RequiredFiles {
		files = append(files, CheckResult{Name: f, OK: fileExists(path(f))})
	}
	c.add("Required Files", files...)

	// Dataset structure.
	var dirs []CheckResult
	for _, d := range opts.DatasetDirs {
		r := CheckResult{Name: d}
		if entries, err := os.ReadDir(path(d)); err == nil {
			r.OK = len(entries) > 0
			r.Detail = fmt.Sprintf("(%d files)", len(entries))
			if !r.OK {
				r.Hint = "Directory is empty"
			}
		}
		dirs = append(dirs, r)
	}
	c.add("Dataset Structure", dirs...)

	c.add("Virtual Environment", CheckResult{
		Name: opts.VenvDir + "/ directory",
		OK:   dirExists(path(opts.VenvDir)),
		Hint: "Run ./setup_env.sh to create virtual environment",
	})

	c.add("YOLOv5 Repository", CheckResult{
		Name: opts.YOLOv5Dir + "/ directory",
		OK:   dirExists(path(opts.YOLOv5Dir)),
		Hint: "Run ./setup_env.sh to clone YOLOv5",
	})

	// Activation is informational; it changes the verdict but does not fail it.
	c.InVenv = getenv("VIRTUAL_ENV") != ""
	status := CheckResult{Name: "Currently in virtual environment", OK: c.InVenv}
	if !c.InVenv {
		status.Hint = "Activate with: source " + opts.VenvDir + "/bin/activate"
	}
	c.Sections = append(c.Sections, CheckSection{Title: "Virtual Environment Status",
		Results: []CheckResult{status}})

	if c.InVenv {
		var pkgs []CheckResult
		for _, module := range sortedKeys(opts.Packages) {
			r := CheckResult{Name: opts.Packages[module]}
			if err := importPackage(run, opts.Python, module); err == nil {
				r.OK = true
			} else {
				r.Detail = "(not installed)"
			}
			pkgs = append(pkgs, r)
		}
		c.add("Required Packages", pkgs...)
	}

	return c
}

// pythonVersionOK reports whether version is at least 3.minPythonMinor.
func pythonVersionOK(version string) bool {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return false
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	return err1 == nil && err2 == nil && major == 3 && minor >= minPythonMinor
}

// PrintChecklist writes the numbered checklist and the final verdict to w.
func PrintChecklist(w io.Writer, c *Checklist) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "YOLOv5 Local Setup Verification")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	for i, s := range c.Sections {
		fmt.Fprintf(w, "%d. %s\n", i+1, s.Title)
		for _, r := range s.Results {
			fmt.Fprintf(w, "   %s %s\n", checkMark(r.OK), r.Name)
			if r.Detail != "" {
				fmt.Fprintf(w, "      %s\n", r.Detail)
			}
			if !r.OK && r.Hint != "" {
				fmt.Fprintf(w, "   ! %s\n", r.Hint)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, rule)
	switch c.Verdict() {
	case VerdictReady:
		fmt.Fprintln(w, "✓ All checks passed! Ready to train.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "To start training, run:")
		fmt.Fprintln(w, "  train")
	case VerdictAlmostReady:
		fmt.Fprintln(w, "! Almost ready! Activate virtual environment:")
		fmt.Fprintln(w, "  source venv/bin/activate")
	default:
		fmt.Fprintln(w, "✗ Some checks failed. Please fix the issues above.")
	}
	fmt.Fprintln(w, rule)
}

func checkMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
