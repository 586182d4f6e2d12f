package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"gopkg.in/gcfg.v1"

	"github.com/gravitree/gravitree"
	"github.com/gravitree/gravitree/accel"
	"github.com/gravitree/gravitree/geom"
	"github.com/gravitree/gravitree/inits"
	"github.com/gravitree/gravitree/io"
	"github.com/gravitree/gravitree/runlog"
)

var numCores = runtime.NumCPU()

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil { log.Fatal(err.Error()) }
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil { log.Fatal(err.Error()) }
	}
}

func main() {
	var (
		runStr        string
		exampleConfig string
	)
	vars := map[string]*string{
		"Run":           &runStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.IntVar(
		&numCores, "Threads", runtime.NumCPU(),
		"Number of threads used. Default is the number of logical cores.",
	)
	flag.StringVar(
		&runStr, "Run", "",
		"Configuration file for [Sim] mode: runs a headless simulation.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. The only accepted argument is 'Sim'.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil { log.Fatal(err.Error()) }

	switch modeName {
	case "Run":
		wrap := io.DefaultSimWrapper()
		err := gcfg.ReadFileInto(wrap, runStr)
		if err != nil { log.Fatal(err.Error()) }
		con := &wrap.Sim

		if !con.ValidParticleNum() {
			log.Fatal("Invalid 'ParticleNum' value.")
		} else if !con.ValidSteps() {
			log.Fatal("Invalid/non-existent 'Steps' value.")
		} else if !con.ValidSim() {
			log.Fatal("Invalid 'Sim' value. Must be 'Tree' or 'Naive'.")
		} else if !con.ValidInit() {
			log.Fatal("Invalid 'Init' value. Must be 'Uniform' or 'Disc'.")
		} else if !con.ValidTheta() {
			log.Fatal("Invalid 'Theta' value.")
		} else if !con.ValidSnapshotEvery() {
			log.Fatal("Invalid 'SnapshotEvery' value.")
		}

		runMain(con)

	case "ExampleConfig":
		switch exampleConfig {
		case "Sim":
			fmt.Println(io.ExampleSimFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only " +
					"recognized argument is 'Sim'.",
			)
		}
	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive
// error if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" { setNames = append(setNames, name) }
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but only one flag may be "+
				"given at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func setupFileGroup(con *io.SimConfig) *FileGroup {
	fg := &FileGroup{}

	if con.ValidLogFile() {
		f, err := os.Create(con.LogFile)
		if err != nil { log.Fatal(err.Error()) }
		log.SetOutput(f)
		fg.log = f
	}
	if con.ValidProfileFile() {
		f, err := os.Create(con.ProfileFile)
		if err != nil { log.Fatal(err.Error()) }
		err = pprof.StartCPUProfile(f)
		if err != nil { log.Fatal(err.Error()) }
		fg.prof = f
	}
	return fg
}

func runMain(con *io.SimConfig) {
	fg := setupFileGroup(con)
	defer fg.Close()

	params := gravitree.SimParams{
		ParticleNum: con.ParticleNum,
		G:           float32(con.G),
		E:           float32(con.E),
		DT:          float32(con.DT),
	}

	var initFn gravitree.InitFunc
	switch con.Init {
	case "Uniform":
		initFn = inits.Uniform
	case "Disc":
		initFn = inits.Disc
	}

	mem := accel.NewHost()
	var sim gravitree.Simulator
	var err error
	switch con.Sim {
	case "Tree":
		kern := &accel.TreeKernel{Workers: numCores}
		var ts *gravitree.TreeSim
		ts, err = gravitree.NewTreeSim(
			mem, kern, params, float32(con.Theta), initFn,
		)
		if err == nil {
			ts.Workers(numCores)
			ts.Log(true)
			sim = ts
		}
	case "Naive":
		sim, err = gravitree.NewNaiveSim(mem, params, initFn)
	}
	if err != nil { log.Fatal(err.Error()) }

	rl := setupRunLog(con)
	defer rl.close()

	ps := make([]geom.Particle, con.ParticleNum)

	log.Printf(
		"Running %s simulation: %d particles, %d steps, %d threads.",
		con.Sim, con.ParticleNum, con.Steps, numCores,
	)

	for step := 0; step < con.Steps; step++ {
		start := time.Now()
		err := sim.Step()
		if err != nil { log.Fatal(err.Error()) }
		dt := time.Since(start)

		err = gravitree.ReadParticles(mem, sim, ps)
		if err != nil { log.Fatal(err.Error()) }
		kinetic := gravitree.KineticEnergy(ps)

		rl.logStep(step, dt, kinetic)

		if con.ValidSnapshotDir() && (step+1)%con.SnapshotEvery == 0 {
			writeSnapshot(con, sim, step, ps)
		}
	}

	log.Printf("Finished running.")
}

func writeSnapshot(
	con *io.SimConfig, sim gravitree.Simulator,
	step int, ps []geom.Particle,
) {
	hd := &io.SnapshotHeader{
		Count: int64(len(ps)),
		Step:  int64(step),
		G:     con.G, E: con.E, DT: con.DT, Theta: con.Theta,
	}
	if ts, ok := sim.(*gravitree.TreeSim); ok {
		hd.RootWidth = float64(ts.RootWidth())
	}

	file := path.Join(con.SnapshotDir, fmt.Sprintf("snap_%04d.gvt", step))
	err := io.WriteSnapshot(file, hd, ps)
	if err != nil { log.Fatal(err.Error()) }
}

// runLog bundles the optional per-step outputs: the SQLite results
// database, the text step table, and the JSON manifest.
type runLog struct {
	db    *runlog.DB
	runID int64
	table *os.File
}

func setupRunLog(con *io.SimConfig) *runLog {
	rl := &runLog{}
	r := &runlog.Run{
		Sim: con.Sim, Init: con.Init,
		ParticleNum: con.ParticleNum, Steps: con.Steps,
		G: con.G, E: con.E, DT: con.DT, Theta: con.Theta,
		Started: time.Now(),
	}

	if con.ValidResultsDB() {
		db, err := runlog.Open(con.ResultsDB)
		if err != nil { log.Fatal(err.Error()) }
		runID, err := db.StartRun(r)
		if err != nil { log.Fatal(err.Error()) }
		rl.db, rl.runID = db, runID
	}

	if con.ValidManifestFile() {
		err := runlog.WriteManifest(con.ManifestFile, r)
		if err != nil { log.Fatal(err.Error()) }
	}

	if con.ValidStepTable() {
		f, err := os.Create(con.StepTable)
		if err != nil { log.Fatal(err.Error()) }
		fmt.Fprintf(f, "# %8s %12s %18s\n", "Step", "Micros", "Kinetic")
		rl.table = f
	}
	return rl
}

func (rl *runLog) logStep(step int, dt time.Duration, kinetic float64) {
	if rl.db != nil {
		err := rl.db.LogStep(rl.runID, step, dt, kinetic)
		if err != nil { log.Fatal(err.Error()) }
	}
	if rl.table != nil {
		fmt.Fprintf(
			rl.table, "  %8d %12d %18g\n", step, dt.Microseconds(), kinetic,
		)
	}
}

func (rl *runLog) close() {
	if rl.db != nil {
		err := rl.db.Close()
		if err != nil { log.Fatal(err.Error()) }
	}
	if rl.table != nil {
		err := rl.table.Close()
		if err != nil { log.Fatal(err.Error()) }
	}
}
