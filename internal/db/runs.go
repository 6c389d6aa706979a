package db

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/massmap/internal/massmap"
)

// Plane products.
const (
	ProductShear       = "shear_map"
	ProductConvergence = "convergence_map"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is the metadata row of one stored reconstruction.
type Run struct {
	ID        string `json:"run_id"`
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
	Grid      string `json:"grid"`
	NPix      int    `json:"npix"`
	NX        int    `json:"nx,omitempty"`
	NY        int    `json:"ny,omitempty"`
	NInput    int    `json:"n_input"`
	NSelected int    `json:"n_selected"`

	Responsivity [2][2]float64 `json:"responsivity"`
	// Condition is +Inf for a rank-deficient responsivity.
	Condition  float64 `json:"-"`
	Degenerate bool    `json:"degenerate"`

	ConfigJSON string        `json:"-"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	CreatedAt  time.Time     `json:"created_at"`
}

// SaveRun stores run and its planes in one transaction. An empty run.ID is
// filled with a new UUID; the ID is returned.
func (db *DB) SaveRun(ctx context.Context, run *Run, shear, convergence []massmap.Plane) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = db.clock.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var cond sql.NullFloat64
	if !math.IsInf(run.Condition, 0) && !math.IsNaN(run.Condition) {
		cond = sql.NullFloat64{Float64: run.Condition, Valid: true}
	}
	r := run.Responsivity
	_, err = tx.ExecContext(ctx, `INSERT INTO runs (
			run_id, name, algorithm, grid, npix, nx, ny, n_input, n_selected,
			r11, r12, r21, r22, condition, degenerate, config_json, elapsed_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Name, run.Algorithm, run.Grid, run.NPix, run.NX, run.NY, run.NInput, run.NSelected,
		r[0][0], r[0][1], r[1][0], r[1][1], cond, run.Degenerate, run.ConfigJSON,
		run.Elapsed.Milliseconds(), run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO planes (run_id, product, seq, tag, dims, data) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for _, set := range []struct {
		product string
		planes  []massmap.Plane
	}{{ProductShear, shear}, {ProductConvergence, convergence}} {
		for seq, p := range set.planes {
			dims, err := json.Marshal(p.Dims)
			if err != nil {
				return "", err
			}
			if _, err := stmt.ExecContext(ctx, run.ID, set.product, seq, p.Tag, string(dims), encodeFloats(p.Data)); err != nil {
				return "", fmt.Errorf("failed to insert %s plane %s: %w", set.product, p.Tag, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

const runColumns = `run_id, name, algorithm, grid, npix, nx, ny, n_input, n_selected,
	r11, r12, r21, r22, condition, degenerate, config_json, elapsed_ms, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (Run, error) {
	var (
		run       Run
		cond      sql.NullFloat64
		cfg       sql.NullString
		elapsedMS sql.NullInt64
		created   int64
	)
	r := &run.Responsivity
	if err := s.Scan(
		&run.ID, &run.Name, &run.Algorithm, &run.Grid, &run.NPix, &run.NX, &run.NY,
		&run.NInput, &run.NSelected,
		&r[0][0], &r[0][1], &r[1][0], &r[1][1], &cond, &run.Degenerate, &cfg, &elapsedMS, &created,
	); err != nil {
		return Run{}, err
	}
	run.Condition = math.Inf(1)
	if cond.Valid {
		run.Condition = cond.Float64
	}
	run.ConfigJSON = cfg.String
	run.Elapsed = time.Duration(elapsedMS.Int64) * time.Millisecond
	run.CreatedAt = time.Unix(0, created)
	return run, nil
}

// Runs lists the most recent runs, newest first. limit <= 0 means 100.
func (db *DB) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun returns one run by ID.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Planes returns the planes of one product of a run in their stored order.
func (db *DB) Planes(ctx context.Context, runID, product string) ([]massmap.Plane, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT tag, dims, data FROM planes WHERE run_id = ? AND product = ? ORDER BY seq`, runID, product)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var planes []massmap.Plane
	for rows.Next() {
		var (
			p    massmap.Plane
			dims string
			blob []byte
		)
		if err := rows.Scan(&p.Tag, &dims, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(dims), &p.Dims); err != nil {
			return nil, fmt.Errorf("plane %s: bad dims %q: %w", p.Tag, dims, err)
		}
		if p.Data, err = decodeFloats(blob); err != nil {
			return nil, fmt.Errorf("plane %s: %w", p.Tag, err)
		}
		planes = append(planes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return planes, nil
}

// Plane returns a single plane by tag.
func (db *DB) Plane(ctx context.Context, runID, product, tag string) (*massmap.Plane, error) {
	planes, err := db.Planes(ctx, runID, product)
	if err != nil {
		return nil, err
	}
	for i := range planes {
		if planes[i].Tag == tag {
			return &planes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no %s plane %q", ErrRunNotFound, runID, product, tag)
}

// DeleteRun removes a run and, by cascade, its planes.
func (db *DB) DeleteRun(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// encodeFloats packs v as little-endian float64s.
func encodeFloats(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(x))
	}
	return buf
}

func decodeFloats(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v, nil
}
