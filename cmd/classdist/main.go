// Tabulates the number of bounding boxes per class over a label directory and plots the
// distribution.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/sensorable/foodprep"
)

var (
	labelDirPath  string // The input directory with the label files.
	outputDirPath string // The output directory for the chart and table.
	dataYAMLPath  string // Optional dataset descriptor providing the class names.
	plotFormat    string // The chart file format.
)

func init() {
	cfg := foodprep.LoadConfig()

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	flag.StringVar(&labelDirPath, "labels", cfg.LabelDir, "The `path` to the label input directory")
	flag.StringVar(&outputDirPath, "out", cfg.DistributionDir, "The `path` to the output directory")
	flag.StringVar(&dataYAMLPath, "data", "",
		"The dataset descriptor `file` to read class names from (built-in food classes if empty)")
	flag.StringVar(&plotFormat, "format", "png", "The chart `format` {png, svg, pdf}")

	flag.Parse()

	if labelDirPath == "" || outputDirPath == "" {
		printUsageAndExit("Missing label or output path argument")
	}
	switch plotFormat {
	case "png", "svg", "pdf":
	default:
		printUsageAndExit("Unsupported chart format: ", plotFormat)
	}
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime)

	classes, err := foodprep.LoadClassTable(dataYAMLPath)
	if err != nil {
		log.Fatal("Failed to load the class names: ", err)
	}

	counts, err := foodprep.CountClasses(labelDirPath)
	if err != nil {
		log.Fatal("Failed to count classes: ", err)
	}

	if err := os.MkdirAll(outputDirPath, 0755); err != nil {
		log.Fatal(err)
	}

	// Print the table.
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCLASS\tBOXES")
	for _, c := range counts {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\n", c.ClassID, classes.Name(c.ClassID), c.Count)
	}
	_, _ = fmt.Fprintf(w, "\tTotal\t%d\n", counts.Total())
	_ = w.Flush()

	csvPath := filepath.Join(outputDirPath, "class_distribution.csv")
	if err := foodprep.WriteClassDistributionCSV(counts, classes, csvPath); err != nil {
		log.Fatal(err)
	}
	log.Print("Class table saved as ", csvPath)

	if len(counts) == 0 {
		log.Print("No bounding boxes found, skipping the charts")
		return
	}
	plotPath := filepath.Join(outputDirPath, "class_distribution_barplot."+plotFormat)
	if err := foodprep.PlotClassDistribution(counts, classes, plotPath); err != nil {
		log.Fatal(err)
	}
	log.Print("Bar plot saved as ", plotPath)

	// The pie chart renderer supports PNG and SVG only.
	pieFormat := plotFormat
	if pieFormat == "pdf" {
		pieFormat = "png"
	}
	piePath := filepath.Join(outputDirPath, "class_distribution_piechart."+pieFormat)
	if err := foodprep.PlotClassProportions(counts, classes, piePath); err != nil {
		log.Fatal(err)
	}
	log.Print("Pie chart saved as ", piePath)
}
