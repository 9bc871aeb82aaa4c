package services

import (
	"context"
	"log"
	"time"

	"github.com/ArafathMohammed/Prosthetichand/internal/models"
	"github.com/ArafathMohammed/Prosthetichand/internal/pipeline"
)

// Ingester runs inference over inbound batches
type Ingester interface {
	Ingest(topic string, samples []float64) *pipeline.Result
	RecordDecodeError()
}

// Recorder persists batch and cycle records
type Recorder interface {
	SaveBatch(ctx context.Context, batch *models.BatchRecord) error
	SaveCycle(ctx context.Context, cycle *models.CycleRecord) error
}

// NopRecorder discards every record
type NopRecorder struct{}

func (NopRecorder) SaveBatch(context.Context, *models.BatchRecord) error { return nil }
func (NopRecorder) SaveCycle(context.Context, *models.CycleRecord) error { return nil }

// EMGService drains decoded batches into the pipeline and hands the results
// to a recorder without blocking the control loop
type EMGService struct {
	ingester Ingester
	recorder Recorder

	// Input channels from MQTT subscriber
	BatchChan       chan *models.EMGBatch
	DecodeErrorChan chan *models.DecodeError

	recordChan   chan *pipeline.Result
	writeTimeout time.Duration
}

// EMGServiceConfig holds configuration for the EMG service
type EMGServiceConfig struct {
	BatchChannelSize  int
	RecordChannelSize int
	WriteTimeout      time.Duration
}

// DefaultEMGServiceConfig returns default configuration
func DefaultEMGServiceConfig() EMGServiceConfig {
	return EMGServiceConfig{
		BatchChannelSize:  64,
		RecordChannelSize: 256,
		WriteTimeout:      5 * time.Second,
	}
}

// NewEMGService creates a new EMG service
func NewEMGService(ingester Ingester, recorder Recorder, config EMGServiceConfig) *EMGService {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &EMGService{
		ingester:        ingester,
		recorder:        recorder,
		BatchChan:       make(chan *models.EMGBatch, config.BatchChannelSize),
		DecodeErrorChan: make(chan *models.DecodeError, config.BatchChannelSize),
		recordChan:      make(chan *pipeline.Result, config.RecordChannelSize),
		writeTimeout:    config.WriteTimeout,
	}
}

// Start processes batches until ctx is cancelled, then waits for pending
// records to be written
func (s *EMGService) Start(ctx context.Context) {
	log.Println("EMGService: Starting...")

	persisted := make(chan struct{})
	go func() {
		defer close(persisted)
		s.persistLoop()
	}()

	s.processLoop(ctx)

	log.Println("EMGService: Shutting down...")
	close(s.recordChan)
	<-persisted
	log.Println("EMGService: Shutdown complete")
}

// processLoop is the single consumer of the batch channel
func (s *EMGService) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-s.BatchChan:
			if batch == nil {
				continue
			}
			s.processBatch(s.coalesce(batch))
		case <-s.DecodeErrorChan:
			s.ingester.RecordDecodeError()
		}
	}
}

// coalesce merges batch with whatever else is already queued so a backlog
// is ingested in one pass. The sample buffer keeps only the newest N+O
// samples of the result. Topic and timestamp come from the last batch.
func (s *EMGService) coalesce(batch *models.EMGBatch) *models.EMGBatch {
	merged := batch
	for {
		select {
		case next := <-s.BatchChan:
			if next == nil {
				continue
			}
			if merged == batch {
				merged = &models.EMGBatch{Samples: append([]float64(nil), batch.Samples...)}
			}
			merged.Samples = append(merged.Samples, next.Samples...)
			merged.Topic = next.Topic
			merged.Timestamp = next.Timestamp
		default:
			return merged
		}
	}
}

// processBatch runs the pipeline over one batch and queues its records
func (s *EMGService) processBatch(batch *models.EMGBatch) {
	res := s.ingester.Ingest(batch.Topic, batch.Samples)
	if res == nil {
		return
	}
	res.Batch.Timestamp = batch.Timestamp

	select {
	case s.recordChan <- res:
	default:
		log.Printf("Warning: Record channel full, dropping records for %d cycles", len(res.Cycles))
	}
}

// persistLoop writes queued records until the record channel is closed
func (s *EMGService) persistLoop() {
	for res := range s.recordChan {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)

		if err := s.recorder.SaveBatch(ctx, &res.Batch); err != nil {
			log.Printf("Error saving EMG batch: %v", err)
		}
		for i := range res.Cycles {
			if err := s.recorder.SaveCycle(ctx, &res.Cycles[i]); err != nil {
				log.Printf("Error saving inference cycle %s: %v", res.Cycles[i].CycleID, err)
			}
		}

		cancel()
	}
}
