/*stepstats summarizes the step-table files written by a [Sim] run with the
StepTable option: step time percentiles and the drift in total kinetic
energy over the run. With -Plot set, it also saves a step-time curve and a
kinetic energy curve for each table as pngs in the given directory.

    stepstats [-Plot plot_dir] steps.txt [more_steps.txt ...]
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"path"
	"sort"
	"strings"

	"github.com/phil-mansfield/table"
	plt "github.com/phil-mansfield/pyplot"
)

func main() {
	var plotDir string
	flag.StringVar(
		&plotDir, "Plot", "",
		"Directory to save step-time and kinetic energy plots to. "+
			"No plots are made if unset.",
	)
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("Usage: stepstats [-Plot plot_dir] step_table " +
			"[step_table ...]")
	}

	for _, file := range files {
		micros, kinetic, err := readStepTable(file)
		if err != nil { log.Fatal(err.Error()) }
		if len(micros) == 0 {
			log.Fatalf("%s contains no steps.", file)
		}

		sorted := make([]float64, len(micros))
		copy(sorted, micros)
		sort.Float64s(sorted)

		fmt.Printf("%s: %d steps\n", file, len(micros))
		fmt.Printf(
			"%11s: %10.0f µs  %10.0f µs  %10.0f µs\n", "p10/p50/p90",
			percentile(sorted, 0.1),
			percentile(sorted, 0.5),
			percentile(sorted, 0.9),
		)
		fmt.Printf("%11s: %10.0f µs\n", "mean", mean(micros))
		fmt.Printf(
			"%11s: %10g -> %10g\n", "kinetic",
			kinetic[0], kinetic[len(kinetic)-1],
		)

		if plotDir != "" {
			plotStepTimes(file, plotDir, micros)
			plotKinetic(file, plotDir, kinetic)
		}
	}

	if plotDir != "" {
		plt.Execute()
	}
}

// readStepTable reads the Micros and Kinetic columns of a step table.
func readStepTable(file string) (micros, kinetic []float64, err error) {
	cols, err := table.ReadTable(file, []int{1, 2}, nil)
	if err != nil { return nil, nil, err }
	return cols[0], cols[1], nil
}

func plotStepTimes(file, plotDir string, micros []float64) {
	plt.Figure()
	plt.Plot(stepAxis(len(micros)), micros, "b", plt.LW(2))

	plt.Title(fmt.Sprintf("%s: step times", path.Base(file)))
	plt.XLabel("Step", plt.FontSize(16))
	plt.YLabel(`$t$ $[\mu {\rm s}]$`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(plotName(file, plotDir, "step_times"))
}

func plotKinetic(file, plotDir string, kinetic []float64) {
	plt.Figure()
	plt.Plot(stepAxis(len(kinetic)), kinetic, "k", plt.LW(2))

	plt.Title(fmt.Sprintf("%s: kinetic energy", path.Base(file)))
	plt.XLabel("Step", plt.FontSize(16))
	plt.YLabel(`$E_{\rm kin}$`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(plotName(file, plotDir, "kinetic"))
}

func stepAxis(n int) []float64 {
	steps := make([]float64, n)
	for i := range steps { steps[i] = float64(i) }
	return steps
}

func plotName(file, plotDir, suffix string) string {
	base := strings.TrimSuffix(path.Base(file), path.Ext(file))
	return path.Join(plotDir, fmt.Sprintf("%s_%s.png", base, suffix))
}

func mean(xs []float64) float64 {
	s := 0.0
	for _, x := range xs { s += x }
	return s / float64(len(xs))
}

// percentile returns the p-th percentile of sorted xs, 0 <= p <= 1.
func percentile(xs []float64, p float64) float64 {
	i := int(p * float64(len(xs)))
	if i >= len(xs) {
		i = len(xs) - 1
	}
	return xs[i]
}
