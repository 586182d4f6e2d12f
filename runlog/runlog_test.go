package runlog

import (
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testRun() *Run {
	return &Run{
		Sim: "Tree", Init: "Uniform",
		ParticleNum: 8192, Steps: 100,
		G: 1e-6, E: 1e-4, DT: 0.016, Theta: 0.75,
		Started: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestStepLog(t *testing.T) {
	db, err := Open(path.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open failed: %s", err.Error())
	}
	defer db.Close()

	runID, err := db.StartRun(testRun())
	if err != nil {
		t.Fatalf("StartRun failed: %s", err.Error())
	}

	for step, micros := range []int64{1200, 1100, 1300} {
		err = db.LogStep(
			runID, step, time.Duration(micros)*time.Microsecond, 0.5,
		)
		if err != nil {
			t.Fatalf("LogStep failed: %s", err.Error())
		}
	}

	micros, err := db.StepMicros(runID)
	if err != nil {
		t.Fatalf("StepMicros failed: %s", err.Error())
	}
	assert.Equal(t, []int64{1200, 1100, 1300}, micros)
}

func TestTwoRunsAreSeparate(t *testing.T) {
	db, err := Open(path.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open failed: %s", err.Error())
	}
	defer db.Close()

	id1, err := db.StartRun(testRun())
	if err != nil {
		t.Fatalf("StartRun failed: %s", err.Error())
	}
	id2, err := db.StartRun(testRun())
	if err != nil {
		t.Fatalf("StartRun failed: %s", err.Error())
	}
	if id1 == id2 {
		t.Fatalf("Two runs share id %d.", id1)
	}

	db.LogStep(id1, 0, time.Millisecond, 1)
	db.LogStep(id2, 0, 2*time.Millisecond, 1)
	db.LogStep(id2, 1, 3*time.Millisecond, 1)

	micros, err := db.StepMicros(id2)
	if err != nil {
		t.Fatalf("StepMicros failed: %s", err.Error())
	}
	assert.Equal(t, []int64{2000, 3000}, micros)
}

func TestManifestRoundTrip(t *testing.T) {
	file := path.Join(t.TempDir(), "run.json")
	r := testRun()

	if err := WriteManifest(file, r); err != nil {
		t.Fatalf("WriteManifest failed: %s", err.Error())
	}
	r2, err := ReadManifest(file)
	if err != nil {
		t.Fatalf("ReadManifest failed: %s", err.Error())
	}

	assert.Equal(t, r.Sim, r2.Sim)
	assert.Equal(t, r.ParticleNum, r2.ParticleNum)
	assert.Equal(t, r.Theta, r2.Theta)
	assert.True(t, r.Started.Equal(r2.Started))
}
