package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

type ClickHouseDB struct {
	conn driver.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(addr, database, username, password string) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Printf("Connected to ClickHouse at %s", addr)

	db := &ClickHouseDB{conn: conn}

	// Initialize schema
	if err := db.InitSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema() error {
	ctx := context.Background()

	// Create all tables from schema
	tables := AllTables()
	for _, tableSQL := range tables {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// SaveBatch records one ingested batch
func (db *ClickHouseDB) SaveBatch(ctx context.Context, batch *models.BatchRecord) error {
	query := `
		INSERT INTO emg_batches (timestamp, topic, sample_count, dropped_samples, cycles_triggered, level_db)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		batch.Timestamp,
		batch.Topic,
		uint32(batch.SampleCount),
		uint32(batch.DroppedSamples),
		uint32(batch.CyclesTriggered),
		batch.LevelDB,
	)

	if err != nil {
		return fmt.Errorf("failed to insert EMG batch: %w", err)
	}

	return nil
}

// SaveCycle records the outcome of one inference cycle
func (db *ClickHouseDB) SaveCycle(ctx context.Context, cycle *models.CycleRecord) error {
	query := `
		INSERT INTO emg_inference_cycles (cycle_id, timestamp, topic, label, command, selected_mode,
			selected_snr, center_frequency, iterations, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	centers := cycle.CenterFrequency
	if centers == nil {
		centers = []float64{}
	}

	err := db.conn.Exec(ctx, query,
		cycle.CycleID,
		cycle.Timestamp,
		cycle.Topic,
		int32(cycle.Label),
		cycle.Command,
		int32(cycle.SelectedMode),
		cycle.SelectedSNR,
		centers,
		uint32(cycle.Iterations),
		cycle.DurationMs,
		cycle.Error,
	)

	if err != nil {
		return fmt.Errorf("failed to insert inference cycle: %w", err)
	}

	return nil
}

// RecentCycles returns up to limit of the newest inference cycles
func (db *ClickHouseDB) RecentCycles(ctx context.Context, limit int) ([]models.CycleRecord, error) {
	query := `
		SELECT toString(cycle_id), timestamp, topic, label, command, selected_mode,
			selected_snr, center_frequency, iterations, duration_ms, error
		FROM emg_inference_cycles
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := db.conn.Query(ctx, query, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query inference cycles: %w", err)
	}
	defer rows.Close()

	return scanCycles(rows)
}

// cycleRows is the part of driver.Rows that scanCycles reads
type cycleRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanCycles never returns a nil slice on success, so an empty result
// encodes as [] rather than null
func scanCycles(rows cycleRows) ([]models.CycleRecord, error) {
	out := []models.CycleRecord{}
	for rows.Next() {
		var (
			rec                 models.CycleRecord
			label, selectedMode int32
			iterations          uint32
		)
		if err := rows.Scan(
			&rec.CycleID,
			&rec.Timestamp,
			&rec.Topic,
			&label,
			&rec.Command,
			&selectedMode,
			&rec.SelectedSNR,
			&rec.CenterFrequency,
			&iterations,
			&rec.DurationMs,
			&rec.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inference cycle: %w", err)
		}
		rec.Label = int(label)
		rec.SelectedMode = int(selectedMode)
		rec.Iterations = int(iterations)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inference cycles: %w", err)
	}

	return out, nil
}

// Ping checks the connection is alive
func (db *ClickHouseDB) Ping(ctx context.Context) error {
	return db.conn.Ping(ctx)
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		log.Println("ClickHouse connection closed")
	}
	return nil
}
