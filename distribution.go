package foodprep

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ClassCount is the number of bounding boxes of one class.
type ClassCount struct {
	ClassID int
	Count   int
}

// ClassCounts is a class histogram sorted by class id.
type ClassCounts []ClassCount

// Total is the sum of all counts.
func (c ClassCounts) Total() int {
	total := 0
	for _, v := range c {
		total += v.Count
	}
	return total
}

// CountClasses tabulates the number of bounding boxes per class id over all .txt label files in
// labelDir. Blank lines are ignored, other files in the directory are not considered.
func CountClasses(labelDir string) (ClassCounts, error) {
	files, err := filesByExtInDir(labelDir, LabelFileExt)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, path := range files {
		lines, err := readLines(path)
		if err != nil {
			logSkip(path, err)
			continue
		}
		for _, line := range lines {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			id, err := strconv.Atoi(fields[0])
			if err != nil || id < 0 {
				log.Printf("Ignoring line with invalid class id in %q: %q", path, line)
				continue
			}
			counts[id]++
		}
	}

	return sortedCounts(counts), nil
}

// sortedCounts converts a histogram map to ClassCounts in ascending class id order.
func sortedCounts(counts map[int]int) ClassCounts {
	result := make(ClassCounts, 0, len(counts))
	for id, n := range counts {
		result = append(result, ClassCount{ClassID: id, Count: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClassID < result[j].ClassID })
	return result
}

// PlotClassDistribution renders counts as a bar chart to path. The image format follows the file
// extension (png, svg, pdf, ...).
func PlotClassDistribution(counts ClassCounts, classes ClassTable, path string) error {
	p := plot.New()
	p.Title.Text = "Distribution of Food Items in Dataset"
	p.X.Label.Text = "Food Classes"
	p.Y.Label.Text = "Number of Bounding Boxes"

	values := make(plotter.Values, len(counts))
	names := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		names[i] = classes.Name(c.ClassID)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return errors.Wrap(err, "failed to build the bar chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = ClassColor(0)
	p.Add(bars)
	p.NominalX(names...)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save plot %q", path)
	}
	return nil
}

// PlotClassProportions renders the share of each class as a pie chart to path. SVG is written for
// a .svg extension, PNG otherwise. Classes without boxes are left out.
func PlotClassProportions(counts ClassCounts, classes ClassTable, path string) (err error) {
	total := counts.Total()
	if total == 0 {
		return errors.New("no bounding boxes to plot")
	}

	values := make([]chart.Value, 0, len(counts))
	for _, c := range counts {
		if c.Count == 0 {
			continue
		}
		fill := color.NRGBAModel.Convert(ClassColor(c.ClassID)).(color.NRGBA)
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", classes.Name(c.ClassID), 100*float64(c.Count)/float64(total)),
			Value: float64(c.Count),
			Style: chart.Style{
				FillColor:   drawing.Color{R: fill.R, G: fill.G, B: fill.B, A: 255},
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}

	pie := chart.PieChart{
		Title:  "Proportion of Food Classes",
		Width:  800,
		Height: 800,
		Values: values,
	}

	renderer := chart.PNG
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		renderer = chart.SVG
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", path)
	}
	defer closeWithErrCheck(file, &err)

	if err := pie.Render(renderer, file); err != nil {
		return errors.Wrapf(err, "failed to render pie chart %q", path)
	}
	return nil
}

// WriteClassDistributionCSV writes counts to path as class_id,class_name,count,percent rows.
func WriteClassDistributionCSV(counts ClassCounts, classes ClassTable, path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", path)
	}
	defer closeWithErrCheck(file, &err)

	total := counts.Total()
	w := csv.NewWriter(file)
	_ = w.Write([]string{"class_id", "class_name", "count", "percent"})
	for _, c := range counts {
		percent := 0.0
		if total > 0 {
			percent = 100 * float64(c.Count) / float64(total)
		}
		_ = w.Write([]string{
			strconv.Itoa(c.ClassID),
			classes.Name(c.ClassID),
			strconv.Itoa(c.Count),
			strconv.FormatFloat(percent, 'f', 1, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "failed to write %q", path)
	}

	return nil
}
