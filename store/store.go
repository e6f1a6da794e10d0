// Package store persists training inputs and outputs in the silver
// Postgres database.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fenixforecast/annualref/dataset"
)

// Store reads the silver tables and writes prediction/model rows.
//
// Schema (silver):
//
//	invoices(building_id, pdl, fluid, start_date, end_date, value)
//	degree_days(building_id, month, reference, value)
//	usage_factors(building_id, month, factor, value)
//	predictions(building_id, pdl, fluid, month, real, predicted,
//	            lower_bound, upper_bound, run_id, created_at)
//	models(building_id, pdl, fluid, status, heating, cooling,
//	       coefficients JSONB, accuracy JSONB, adj_r2, outlier_rows JSONB,
//	       messages JSONB, annual_reference, run_id, created_at)
//
// Writes follow delete-then-rewrite per building, so the latest run wins.
type Store struct {
	pool *pgxpool.Pool
}

// New opens a connection pool against the silver database and verifies it.
func New(ctx context.Context, dsn string) (*Store, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(pingCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Invoices loads the invoices of a building intersecting [from, to].
func (s *Store) Invoices(ctx context.Context, buildingID string, from, to time.Time) ([]dataset.Invoice, error) {
	query := `
		SELECT pdl, fluid, start_date, end_date, value
		FROM invoices
		WHERE building_id = $1 AND start_date <= $3 AND end_date >= $2
		ORDER BY pdl, fluid, start_date
	`
	rows, err := s.pool.Query(ctx, query, buildingID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var out []dataset.Invoice
	for rows.Next() {
		var inv dataset.Invoice
		if err := rows.Scan(&inv.PDL, &inv.Fluid, &inv.Start, &inv.End, &inv.Value); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.Start, inv.End = inv.Start.UTC(), inv.End.UTC()
		out = append(out, inv)
	}
	return out, rows.Err()
}

// DegreeDays loads the building's degree-day observations for the given
// month keys.
func (s *Store) DegreeDays(ctx context.Context, buildingID string, months []string) ([]dataset.DegreeDayObservation, error) {
	query := `
		SELECT month, reference, value
		FROM degree_days
		WHERE building_id = $1 AND month = ANY($2)
		ORDER BY reference, month
	`
	rows, err := s.pool.Query(ctx, query, buildingID, months)
	if err != nil {
		return nil, fmt.Errorf("query degree days: %w", err)
	}
	defer rows.Close()

	var out []dataset.DegreeDayObservation
	for rows.Next() {
		var o dataset.DegreeDayObservation
		if err := rows.Scan(&o.Month, &o.Reference, &o.Value); err != nil {
			return nil, fmt.Errorf("scan degree day: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UsageFactors loads the building's usage-factor readings for the given
// month keys.
func (s *Store) UsageFactors(ctx context.Context, buildingID string, months []string) ([]dataset.UsageObservation, error) {
	query := `
		SELECT month, factor, value
		FROM usage_factors
		WHERE building_id = $1 AND month = ANY($2)
		ORDER BY factor, month
	`
	rows, err := s.pool.Query(ctx, query, buildingID, months)
	if err != nil {
		return nil, fmt.Errorf("query usage factors: %w", err)
	}
	defer rows.Close()

	var out []dataset.UsageObservation
	for rows.Next() {
		var o dataset.UsageObservation
		if err := rows.Scan(&o.Month, &o.Factor, &o.Value); err != nil {
			return nil, fmt.Errorf("scan usage factor: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// PredictionRecord is one persisted monthly prediction.
type PredictionRecord struct {
	PDL       string
	Fluid     string
	Month     string
	Real      float64
	Predicted float64
	Lower     float64
	Upper     float64
}

// ModelRecord is one persisted trained model.
type ModelRecord struct {
	PDL             string
	Fluid           string
	Status          string
	Heating         string
	Cooling         string
	Coefficients    any
	Accuracy        any
	AdjR2           float64
	AnnualReference float64
	OutlierRows     any
	Messages        []string
}

// SaveResults replaces the building's prediction and model rows with the
// given run's output, stamped with runID and a shared creation time. The
// delete and the inserts run in one transaction.
func (s *Store) SaveResults(ctx context.Context, buildingID string, runID uuid.UUID, preds []PredictionRecord, models []ModelRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	createdAt := time.Now().UTC()

	if _, err := tx.Exec(ctx, `DELETE FROM predictions WHERE building_id = $1`, buildingID); err != nil {
		return fmt.Errorf("delete predictions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM models WHERE building_id = $1`, buildingID); err != nil {
		return fmt.Errorf("delete models: %w", err)
	}

	for _, p := range preds {
		_, err := tx.Exec(ctx, `
			INSERT INTO predictions (building_id, pdl, fluid, month, real, predicted,
			                         lower_bound, upper_bound, run_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, buildingID, p.PDL, p.Fluid, p.Month,
			nullable(p.Real), nullable(p.Predicted), nullable(p.Lower), nullable(p.Upper),
			runID, createdAt)
		if err != nil {
			return fmt.Errorf("insert prediction %s/%s/%s: %w", p.PDL, p.Fluid, p.Month, err)
		}
	}

	for _, m := range models {
		coefJSON, err := marshalJSONB(m.Coefficients)
		if err != nil {
			return fmt.Errorf("marshal coefficients: %w", err)
		}
		accJSON, err := marshalJSONB(m.Accuracy)
		if err != nil {
			return fmt.Errorf("marshal accuracy: %w", err)
		}
		outlierJSON, err := marshalJSONB(m.OutlierRows)
		if err != nil {
			return fmt.Errorf("marshal outlier rows: %w", err)
		}
		msgJSON, err := json.Marshal(m.Messages)
		if err != nil {
			return fmt.Errorf("marshal messages: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO models (building_id, pdl, fluid, status, heating, cooling,
			                    coefficients, accuracy, adj_r2, annual_reference,
			                    outlier_rows, messages, run_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, buildingID, m.PDL, m.Fluid, m.Status, m.Heating, m.Cooling,
			coefJSON, accJSON, nullable(m.AdjR2), nullable(m.AnnualReference),
			outlierJSON, msgJSON, runID, createdAt)
		if err != nil {
			return fmt.Errorf("insert model %s/%s: %w", m.PDL, m.Fluid, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// nullable maps NaN to SQL NULL; numeric columns reject NaN.
func nullable(v float64) any {
	if v != v {
		return nil
	}
	return v
}

// marshalJSONB encodes a payload for a JSONB column, mapping NaN and
// infinite floats to JSON null. The mean model reports all-NaN accuracy
// metrics by contract, and encoding/json rejects NaN outright.
func marshalJSONB(v any) ([]byte, error) {
	if v == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(jsonValue(reflect.ValueOf(v)))
}

func jsonValue(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return jsonValue(v.Elem())
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = jsonValue(v.Index(i))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = jsonValue(iter.Value())
		}
		return out
	case reflect.Struct:
		t := v.Type()
		out := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("json"); ok {
				parts := strings.SplitN(tag, ",", 2)
				if parts[0] == "-" {
					continue
				}
				if parts[0] != "" {
					name = parts[0]
				}
			}
			out[name] = jsonValue(v.Field(i))
		}
		return out
	default:
		return v.Interface()
	}
}
