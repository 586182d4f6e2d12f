package io

const (
	ExampleSimFile = `[Sim]

#######################
# Required Parameters #
#######################

# Number of bodies in the simulation.
ParticleNum = 8192

# Number of steps to run.
Steps = 100

#######################
# Optional Parameters #
#######################

# Simulator to use. Must be one of [ Tree | Naive ]. Tree is the Barnes-Hut
# simulator; Naive does exact direct summation and is quadratic in
# ParticleNum, so keep it to small runs.
# Sim = Tree

# Initial distribution. Must be one of [ Uniform | Disc ].
# Init = Uniform

# Physical parameters: gravitational constant, softening, and time step.
# G  = 0.000001
# E  = 0.0001
# DT = 0.016

# Barnes-Hut opening angle. Larger is faster and less accurate. Only used
# when Sim = Tree.
# Theta = 0.75

# Write a binary snapshot of the particles to this directory every
# SnapshotEvery steps. SnapshotEvery defaults to 1 when only SnapshotDir
# is set.
# SnapshotDir = path/to/snapshot/dir
# SnapshotEvery = 10

# Append per-step timing rows to this SQLite database, so runs can be
# compared afterwards with the stepstats tool.
# ResultsDB = runs.db

# Write a JSON manifest describing the run next to its results.
# ManifestFile = run.json

# Write a whitespace-delimited text table of per-step timings and kinetic
# energies. stepstats reads this format back.
# StepTable = steps.txt

# Output files which are useful for profiling and debugging. Generally,
# there isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out`
)

// SimConfig is the [Sim] section of a run configuration file.
type SimConfig struct {
	// Required
	ParticleNum int
	Steps       int

	// Optional
	Sim, Init     string
	G, E, DT      float64
	Theta         float64
	SnapshotDir   string
	SnapshotEvery int
	ResultsDB     string
	ManifestFile  string
	StepTable     string
	LogFile       string
	ProfileFile   string
}

// SimWrapper wraps SimConfig so gcfg can read it from the [Sim] section.
type SimWrapper struct {
	Sim SimConfig
}

// DefaultSimWrapper returns a wrapper whose optional parameters hold their
// defaults.
func DefaultSimWrapper() *SimWrapper {
	con := SimConfig{}
	con.Sim = "Tree"
	con.Init = "Uniform"
	con.G = 0.000001
	con.E = 0.0001
	con.DT = 0.016
	con.Theta = 0.75
	con.SnapshotEvery = 1
	return &SimWrapper{con}
}

func (con *SimConfig) ValidParticleNum() bool {
	return con.ParticleNum >= 0
}
func (con *SimConfig) ValidSteps() bool {
	return con.Steps > 0
}
func (con *SimConfig) ValidSim() bool {
	return con.Sim == "Tree" || con.Sim == "Naive"
}
func (con *SimConfig) ValidInit() bool {
	return con.Init == "Uniform" || con.Init == "Disc"
}
func (con *SimConfig) ValidTheta() bool {
	return con.Theta > 0
}
func (con *SimConfig) ValidSnapshotEvery() bool {
	return con.SnapshotEvery > 0
}
func (con *SimConfig) ValidSnapshotDir() bool {
	return con.SnapshotDir != ""
}
func (con *SimConfig) ValidResultsDB() bool {
	return con.ResultsDB != ""
}
func (con *SimConfig) ValidManifestFile() bool {
	return con.ManifestFile != ""
}
func (con *SimConfig) ValidStepTable() bool {
	return con.StepTable != ""
}
func (con *SimConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SimConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}
