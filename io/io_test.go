package io

import (
	"math/rand"
	"path"
	"testing"

	"gopkg.in/gcfg.v1"

	"github.com/gravitree/gravitree/geom"
)

func TestSnapshotRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ps := make([]geom.Particle, 100)
	for i := range ps {
		for k := 0; k < 3; k++ {
			ps[i].X[k] = float32(rng.Float64()*2 - 1)
			ps[i].V[k] = float32(rng.Float64() * 0.001)
		}
		ps[i].Mass = 1
	}

	hd := &SnapshotHeader{
		Count: 100, Step: 42,
		G: 1e-6, E: 1e-4, DT: 0.016, Theta: 0.75, RootWidth: 2.5,
	}

	file := path.Join(t.TempDir(), "snap_0042.gvt")
	if err := WriteSnapshot(file, hd, ps); err != nil {
		t.Fatalf("WriteSnapshot failed: %s", err.Error())
	}

	rhd, err := ReadSnapshotHeader(file)
	if err != nil {
		t.Fatalf("ReadSnapshotHeader failed: %s", err.Error())
	}
	if *rhd != *hd {
		t.Errorf("Header did not round trip: %+v vs %+v.", *rhd, *hd)
	}

	rps := make([]geom.Particle, 100)
	if _, err = ReadSnapshot(file, rps); err != nil {
		t.Fatalf("ReadSnapshot failed: %s", err.Error())
	}
	for i := range ps {
		if rps[i].X != ps[i].X || rps[i].V != ps[i].V {
			t.Fatalf("Particle %d did not round trip: %+v vs %+v.",
				i, rps[i], ps[i])
		}
	}
}

func TestWriteSnapshotLengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Mismatched particle count did not panic.")
		}
	}()

	hd := &SnapshotHeader{Count: 5}
	WriteSnapshot(path.Join(t.TempDir(), "bad.gvt"), hd,
		make([]geom.Particle, 3))
}

func TestExampleConfigParses(t *testing.T) {
	wrap := DefaultSimWrapper()
	if err := gcfg.ReadStringInto(wrap, ExampleSimFile); err != nil {
		t.Fatalf("The example config does not parse: %s", err.Error())
	}
	con := &wrap.Sim

	if con.ParticleNum != 8192 {
		t.Errorf("Expected ParticleNum 8192, got %d.", con.ParticleNum)
	}
	if con.Steps != 100 {
		t.Errorf("Expected Steps 100, got %d.", con.Steps)
	}

	// Optional parameters keep their defaults.
	if !con.ValidSim() || con.Sim != "Tree" {
		t.Errorf("Expected default Sim 'Tree', got %q.", con.Sim)
	}
	if !con.ValidInit() || con.Init != "Uniform" {
		t.Errorf("Expected default Init 'Uniform', got %q.", con.Init)
	}
	if con.Theta != 0.75 {
		t.Errorf("Expected default Theta 0.75, got %g.", con.Theta)
	}
	if con.SnapshotEvery != 1 {
		t.Errorf("Expected default SnapshotEvery 1, got %d.",
			con.SnapshotEvery)
	}
	if con.ValidSnapshotDir() || con.ValidResultsDB() ||
		con.ValidLogFile() || con.ValidProfileFile() {
		t.Errorf("Optional outputs should be unset by default.")
	}
}

func TestConfigValidation(t *testing.T) {
	wrap := DefaultSimWrapper()
	con := &wrap.Sim
	con.ParticleNum, con.Steps = 100, 10

	if !con.ValidParticleNum() || !con.ValidSteps() {
		t.Errorf("A well-formed config failed validation.")
	}

	con.Sim = "Exact"
	if con.ValidSim() {
		t.Errorf("Unknown simulator name passed validation.")
	}
	con.Theta = 0
	if con.ValidTheta() {
		t.Errorf("Zero theta passed validation.")
	}
	con.ParticleNum = -1
	if con.ValidParticleNum() {
		t.Errorf("Negative particle count passed validation.")
	}
}
