package pipeline

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ArafathMohammed/Prosthetichand/internal/aggregator"
	"github.com/ArafathMohammed/Prosthetichand/internal/dispatch"
	"github.com/ArafathMohammed/Prosthetichand/internal/dsp"
	"github.com/ArafathMohammed/Prosthetichand/internal/ml"
	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

// Config holds the immutable pipeline parameters
type Config struct {
	WindowSize int
	Overlap    int
	VMD        dsp.VMDConfig
	Features   dsp.FeatureConfig
}

// Stride returns the number of samples consumed per cycle
func (c Config) Stride() int { return c.WindowSize - c.Overlap }

// Stats are running counters since the pipeline was created
type Stats struct {
	BatchesIngested   uint64    `json:"batches_ingested"`
	SamplesIngested   uint64    `json:"samples_ingested"`
	SamplesDropped    uint64    `json:"samples_dropped"`
	CyclesCompleted   uint64    `json:"cycles_completed"`
	CyclesAbandoned   uint64    `json:"cycles_abandoned"`
	DecodeErrors      uint64    `json:"decode_errors"`
	CommandsPublished uint64    `json:"commands_published"`
	LastCommand       string    `json:"last_command,omitempty"`
	LastCycleAt       time.Time `json:"last_cycle_at"`
	Buffered          int       `json:"buffered"`
}

// Result describes what one ingested batch triggered
type Result struct {
	Batch  models.BatchRecord
	Cycles []models.CycleRecord
}

// Pipeline owns the sample buffer and runs inference cycles over it.
// Ingest must be called from a single goroutine; Stats may be read from any.
type Pipeline struct {
	cfg        Config
	buffer     *aggregator.SampleBuffer
	decomposer *dsp.Decomposer
	extractor  *dsp.Extractor
	normalizer ml.Normalizer
	classifier ml.Classifier
	dispatcher *dispatch.Dispatcher

	mu    sync.Mutex
	stats Stats
}

// New validates cfg against the artifacts and builds the pipeline. Every
// validation failure is a *models.ConfigurationError.
func New(cfg Config, normalizer ml.Normalizer, classifier ml.Classifier, dispatcher *dispatch.Dispatcher) (*Pipeline, error) {
	buffer, err := aggregator.NewSampleBuffer(cfg.WindowSize, cfg.Overlap)
	if err != nil {
		return nil, err
	}
	if normalizer == nil || classifier == nil || dispatcher == nil {
		return nil, models.NewConfigurationError("pipeline", "normalizer, classifier and dispatcher are required")
	}

	if err := cfg.VMD.Validate(); err != nil {
		return nil, &models.ConfigurationError{Field: "VMD", Reason: "invalid decomposition parameters", Err: err}
	}
	decomposer, err := dsp.NewDecomposer(cfg.WindowSize, cfg.VMD)
	if err != nil {
		return nil, &models.ConfigurationError{Field: "VMD", Reason: "cannot prepare decomposer", Err: err}
	}

	extractor, err := dsp.NewExtractor(cfg.WindowSize, cfg.Features)
	if err != nil {
		return nil, &models.ConfigurationError{Field: "FEATURES", Reason: "cannot prepare feature extractor", Err: err}
	}

	if dim := normalizer.Dim(); dim != extractor.Len() {
		return nil, models.NewConfigurationError("SCALER_PATH",
			"normalizer expects %d features but extractor produces %d", dim, extractor.Len())
	}
	if d, ok := classifier.(ml.Dimensioned); ok && d.InputDim() != extractor.Len() {
		return nil, models.NewConfigurationError("MODEL_PATH",
			"classifier expects %d features but extractor produces %d", d.InputDim(), extractor.Len())
	}

	return &Pipeline{
		cfg:        cfg,
		buffer:     buffer,
		decomposer: decomposer,
		extractor:  extractor,
		normalizer: normalizer,
		classifier: classifier,
		dispatcher: dispatcher,
	}, nil
}

// Config returns the pipeline parameters
func (p *Pipeline) Config() Config { return p.cfg }

// FeatureLen returns the feature vector length the artifacts must accept
func (p *Pipeline) FeatureLen() int { return p.extractor.Len() }

// Ingest appends one batch and runs every inference cycle that becomes
// possible. A failing cycle is logged, recorded and abandoned; the buffer
// advances by its stride either way.
func (p *Pipeline) Ingest(topic string, samples []float64) *Result {
	now := time.Now()
	dropped := p.buffer.Append(samples)
	if dropped > 0 {
		log.Printf("Pipeline: buffer overflow, dropped %d oldest samples", dropped)
	}

	res := &Result{}
	for p.buffer.Ready() {
		window, _ := p.buffer.Window()
		rec := p.runCycle(topic, window)
		p.buffer.Advance()
		res.Cycles = append(res.Cycles, rec)
	}

	res.Batch = models.BatchRecord{
		Timestamp:       now,
		Topic:           topic,
		SampleCount:     len(samples),
		DroppedSamples:  dropped,
		CyclesTriggered: len(res.Cycles),
		LevelDB:         aggregator.BatchLevel(samples),
	}

	p.mu.Lock()
	p.stats.BatchesIngested++
	p.stats.SamplesIngested += uint64(len(samples))
	p.stats.SamplesDropped += uint64(dropped)
	p.stats.Buffered = p.buffer.Len()
	p.mu.Unlock()

	return res
}

// RecordDecodeError counts a rejected inbound message
func (p *Pipeline) RecordDecodeError() {
	p.mu.Lock()
	p.stats.DecodeErrors++
	p.mu.Unlock()
}

// Stats returns a copy of the counters
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// RecordDroppedSamples counts samples discarded before they reached the
// buffer, e.g. by a full inbound queue.
func (p *Pipeline) RecordDroppedSamples(n int) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	p.stats.SamplesDropped += uint64(n)
	p.mu.Unlock()
}

func (p *Pipeline) runCycle(topic string, window []float64) models.CycleRecord {
	start := time.Now()
	rec := models.CycleRecord{
		CycleID:      uuid.New().String(),
		Timestamp:    start,
		Topic:        topic,
		Label:        -1,
		SelectedMode: -1,
	}

	published, err := p.infer(window, &rec)
	rec.DurationMs = float64(time.Since(start).Microseconds()) / 1000

	p.mu.Lock()
	defer p.mu.Unlock()
	if published {
		p.stats.CommandsPublished++
		p.stats.LastCommand = rec.Command
	}
	p.stats.LastCycleAt = start

	if err != nil {
		rec.Error = err.Error()
		p.stats.CyclesAbandoned++
		log.Printf("Pipeline: cycle %s abandoned: %v", rec.CycleID, err)
		return rec
	}

	p.stats.CyclesCompleted++
	log.Printf("Pipeline: cycle %s label=%d command=%s mode=%d snr=%.2f iterations=%d (%.1f ms)",
		rec.CycleID, rec.Label, rec.Command, rec.SelectedMode, rec.SelectedSNR, rec.Iterations, rec.DurationMs)
	return rec
}

// infer runs one cycle over window, filling rec as stages complete. A panic
// in any stage is turned into an error.
func (p *Pipeline) infer(window []float64, rec *models.CycleRecord) (published bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during inference: %v", r)
		}
	}()

	dec, err := p.decomposer.Decompose(window)
	if err != nil {
		return false, fmt.Errorf("decomposition: %w", err)
	}
	rec.CenterFrequency = dec.Centers
	rec.Iterations = dec.Iterations

	sel, err := dsp.SelectMode(dec.Modes)
	if err != nil {
		return false, fmt.Errorf("mode selection: %w", err)
	}
	rec.SelectedMode = sel.Index
	rec.SelectedSNR = sel.SNR[sel.Index]

	features, err := p.extractor.Extract(sel.Mode)
	if err != nil {
		return false, fmt.Errorf("feature extraction: %w", err)
	}

	scaled, err := p.normalizer.Transform(features)
	if err != nil {
		return false, fmt.Errorf("normalization: %w", err)
	}

	label, err := p.classifier.Predict(scaled)
	if err != nil {
		return false, fmt.Errorf("classification: %w", err)
	}
	rec.Label = int(label)

	cmd, err := p.dispatcher.Dispatch(label)
	rec.Command = string(cmd)
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsConfigurationError reports whether err is a fatal startup error
func IsConfigurationError(err error) bool {
	var cfgErr *models.ConfigurationError
	return errors.As(err, &cfgErr)
}
