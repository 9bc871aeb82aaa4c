package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllTables(t *testing.T) {
	tables := AllTables()
	assert.Len(t, tables, 2)
	for _, sql := range tables {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS")
		assert.Contains(t, sql, "ENGINE = MergeTree()")
	}
}

func TestSchemaCoversInsertedColumns(t *testing.T) {
	columns := map[string][]string{
		EMGBatchesTableSQL: {"timestamp", "topic", "sample_count", "dropped_samples", "cycles_triggered", "level_db"},
		EMGInferenceCyclesTableSQL: {
			"cycle_id", "timestamp", "topic", "label", "command", "selected_mode",
			"selected_snr", "center_frequency", "iterations", "duration_ms", "error",
		},
	}
	for sql, cols := range columns {
		for _, col := range cols {
			assert.True(t, strings.Contains(sql, "\t"+col+" "), "column %s", col)
		}
	}
}
