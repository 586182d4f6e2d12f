/*package runlog records simulation runs so they can be compared later:
per-step timings go to a SQLite database and a JSON manifest describes the
run's parameters.
*/
package runlog

import (
	"database/sql"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"
)

// Run describes one simulation run.
type Run struct {
	Sim         string    `json:"sim"`
	Init        string    `json:"init"`
	ParticleNum int       `json:"particle_num"`
	Steps       int       `json:"steps"`
	G           float64   `json:"g"`
	E           float64   `json:"e"`
	DT          float64   `json:"dt"`
	Theta       float64   `json:"theta"`
	Started     time.Time `json:"started"`
}

// DB is an open results database.
type DB struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started TEXT NOT NULL,
	sim TEXT NOT NULL,
	init TEXT NOT NULL,
	particle_num INTEGER NOT NULL,
	steps INTEGER NOT NULL,
	g REAL NOT NULL,
	e REAL NOT NULL,
	dt REAL NOT NULL,
	theta REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS steps (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	step INTEGER NOT NULL,
	micros INTEGER NOT NULL,
	kinetic REAL NOT NULL
);`

// Open opens (creating if needed) the results database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// StartRun inserts a run row and returns its id for subsequent LogStep
// calls.
func (d *DB) StartRun(r *Run) (int64, error) {
	res, err := d.db.Exec(
		`INSERT INTO runs
			(started, sim, init, particle_num, steps, g, e, dt, theta)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Started.Format(time.RFC3339), r.Sim, r.Init,
		r.ParticleNum, r.Steps, r.G, r.E, r.DT, r.Theta,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LogStep records one step's duration and kinetic energy.
func (d *DB) LogStep(runID int64, step int, dt time.Duration, kinetic float64) error {
	_, err := d.db.Exec(
		`INSERT INTO steps (run_id, step, micros, kinetic)
			VALUES (?, ?, ?, ?)`,
		runID, step, dt.Microseconds(), kinetic,
	)
	return err
}

// StepMicros returns the recorded step durations of a run in step order.
func (d *DB) StepMicros(runID int64) ([]int64, error) {
	rows, err := d.db.Query(
		`SELECT micros FROM steps WHERE run_id = ? ORDER BY step`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var micros []int64
	for rows.Next() {
		var m int64
		if err = rows.Scan(&m); err != nil {
			return nil, err
		}
		micros = append(micros, m)
	}
	return micros, rows.Err()
}

// WriteManifest writes a run's JSON manifest to path.
func WriteManifest(path string, r *Run) error {
	data, err := sonnet.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadManifest reads a run manifest back.
func ReadManifest(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := &Run{}
	if err = sonnet.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}
