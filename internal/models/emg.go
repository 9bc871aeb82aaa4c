package models

import "time"

// EMGPayload represents the incoming EMG MQTT message structure.
// EMGData is a pointer so that a missing or null field can be told apart
// from an empty batch.
type EMGPayload struct {
	EMGData *[]float64 `json:"emg_data"`
}

// EMGBatch is one decoded inbound message, ready for the pipeline
type EMGBatch struct {
	Timestamp time.Time `json:"timestamp"`
	Topic     string    `json:"topic"`
	Samples   []float64 `json:"samples"`
}

// BatchRecord is the persisted summary of one ingested batch
type BatchRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	Topic           string    `json:"topic"`
	SampleCount     int       `json:"sample_count"`
	DroppedSamples  int       `json:"dropped_samples"`
	CyclesTriggered int       `json:"cycles_triggered"`
	LevelDB         float64   `json:"level_db"` // RMS level relative to unit amplitude
}

// CycleRecord is the persisted outcome of one inference cycle
type CycleRecord struct {
	CycleID         string    `json:"cycle_id"`
	Timestamp       time.Time `json:"timestamp"`
	Topic           string    `json:"topic"`
	Label           int       `json:"label"`
	Command         string    `json:"command"`
	SelectedMode    int       `json:"selected_mode"`
	SelectedSNR     float64   `json:"selected_snr"`
	CenterFrequency []float64 `json:"center_frequency"` // normalized, per mode
	Iterations      int       `json:"iterations"`
	DurationMs      float64   `json:"duration_ms"`
	Error           string    `json:"error,omitempty"`
}
