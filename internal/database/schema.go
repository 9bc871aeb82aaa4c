package database

// SQL schemas for all ClickHouse tables

const (
	// EMGBatchesTableSQL creates the emg_batches table
	EMGBatchesTableSQL = `
		CREATE TABLE IF NOT EXISTS emg_batches (
			timestamp DateTime64(3),
			topic String,
			sample_count UInt32,
			dropped_samples UInt32,
			cycles_triggered UInt32,
			level_db Float64
		) ENGINE = MergeTree()
		ORDER BY (topic, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// EMGInferenceCyclesTableSQL creates the emg_inference_cycles table
	EMGInferenceCyclesTableSQL = `
		CREATE TABLE IF NOT EXISTS emg_inference_cycles (
			cycle_id UUID,
			timestamp DateTime64(3),
			topic String,
			label Int32,
			command String,
			selected_mode Int32,
			selected_snr Float64,
			center_frequency Array(Float64),
			iterations UInt32,
			duration_ms Float64,
			error String
		) ENGINE = MergeTree()
		ORDER BY (topic, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		EMGBatchesTableSQL,
		EMGInferenceCyclesTableSQL,
	}
}
