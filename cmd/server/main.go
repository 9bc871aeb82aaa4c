package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/ArafathMohammed/Prosthetichand/internal/api"
	"github.com/ArafathMohammed/Prosthetichand/internal/database"
	"github.com/ArafathMohammed/Prosthetichand/internal/dispatch"
	"github.com/ArafathMohammed/Prosthetichand/internal/ml"
	"github.com/ArafathMohammed/Prosthetichand/internal/models"
	"github.com/ArafathMohammed/Prosthetichand/internal/mqtt"
	"github.com/ArafathMohammed/Prosthetichand/internal/pipeline"
	"github.com/ArafathMohammed/Prosthetichand/internal/services"
	"github.com/ArafathMohammed/Prosthetichand/pkg/config"
)

func main() {
	log.Println("Starting EMG Hand Controller...")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	table, err := cfg.CommandTable()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	pipelineCfg := pipeline.Config{
		WindowSize: cfg.WindowSize,
		Overlap:    cfg.WindowOverlap,
		VMD:        cfg.VMD(),
		Features:   cfg.Features(),
	}
	featureLen := pipelineCfg.Features.VectorLen()

	// === Load ML artifacts ===
	normalizer, classifier, err := loadArtifacts(cfg, featureLen)
	if err != nil {
		log.Fatalf("Failed to load ML artifacts: %v", err)
	}

	// === Initialize ClickHouse database ===
	var (
		recorder services.Recorder = services.NopRecorder{}
		cycles   api.CycleSource
		db       *database.ClickHouseDB
	)
	if cfg.ClickHouseEnabled {
		db, err = database.NewClickHouseDB(
			cfg.ClickHouseAddr,
			cfg.ClickHouseDB,
			cfg.ClickHouseUser,
			cfg.ClickHousePass,
		)
		if err != nil {
			log.Fatalf("Failed to initialize ClickHouse: %v", err)
		}
		defer db.Close()
		recorder = db
		cycles = db
	} else {
		log.Println("ClickHouse disabled, inference cycles will not be persisted")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Initialize MQTT Client ===
	mqttConfig := mqtt.ClientConfig{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
		CAPath:   cfg.MQTTCAPath,
		CertPath: cfg.MQTTCertPath,
		KeyPath:  cfg.MQTTKeyPath,
	}

	mqttClient, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		log.Fatalf("Failed to initialize MQTT client: %v", err)
	}

	// === Initialize MQTT Publisher and dispatcher ===
	publisher := mqtt.NewPublisher(
		mqttClient.GetNativeClient(),
		mqtt.PublisherConfig{CommandTopic: cfg.MQTTTopicCommands},
	)

	dispatcher, err := dispatch.New(table, models.Command(cfg.DefaultCommand), publisher)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// === Initialize pipeline ===
	p, err := pipeline.New(pipelineCfg, normalizer, classifier, dispatcher)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// === Initialize EMG Service ===
	serviceConfig := services.DefaultEMGServiceConfig()
	serviceConfig.BatchChannelSize = cfg.BatchChannelSize
	emgService := services.NewEMGService(p, recorder, serviceConfig)

	serviceDone := make(chan struct{})
	go func() {
		defer close(serviceDone)
		emgService.Start(ctx)
	}()

	// === Initialize MQTT Subscriber ===
	// Subscriptions are made from the connect handler so they survive a
	// reconnect with a clean session.
	subscriber := mqtt.NewSubscriber(
		mqtt.SubscriberConfig{EMGTopic: cfg.MQTTTopicEMGData},
		emgService.BatchChan,
		emgService.DecodeErrorChan,
	)
	subscriber.OnDrop = p.RecordDroppedSamples

	log.Println("Connecting to MQTT broker...")
	if err := mqttClient.Connect(subscriber.OnConnect); err != nil {
		log.Fatalf("Failed to connect to MQTT broker: %v", err)
	}
	defer mqttClient.Close()

	checks := map[string]api.Check{
		"mqtt": func(context.Context) error {
			if !mqttClient.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		},
	}
	if db != nil {
		checks["clickhouse"] = db.Ping
	}

	// === Status API ===
	server := &http.Server{
		Addr:              cfg.StatusAddr,
		Handler:           handlers.LoggingHandler(os.Stdout, api.NewRouter(p, cycles, checks)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Status API stopped: %v", err)
		}
	}()

	// === Log startup info ===
	log.Println("=== EMG Hand Controller is running ===")
	log.Printf("Window: N=%d overlap=%d stride=%d @ %.0f Hz",
		pipelineCfg.WindowSize, pipelineCfg.Overlap, pipelineCfg.Stride(), pipelineCfg.Features.SampleRate)
	log.Printf("VMD: K=%d alpha=%.0f tol=%g max_iter=%d",
		cfg.VMDModes, cfg.VMDAlpha, cfg.VMDTolerance, cfg.VMDMaxIter)
	log.Printf("Features: %d (4 time-domain + %d wavelet + %d spectral)",
		featureLen, cfg.WaveletScales, pipelineCfg.Features.SpectralBins())
	log.Printf("Commands: %s (default %s)", table, cfg.DefaultCommand)
	log.Printf("MQTT Topics:")
	log.Printf("  - EMG data: %s", cfg.MQTTTopicEMGData)
	log.Printf("  - Commands: %s", cfg.MQTTTopicCommands)
	log.Printf("Status API: %s", cfg.StatusAddr)
	log.Println("Press Ctrl+C to exit...")

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// === Graceful shutdown ===
	log.Println("Shutdown signal received, stopping services...")
	cancel() // Cancel context to stop all goroutines

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Status API shutdown: %v", err)
	}

	select {
	case <-serviceDone:
	case <-shutdownCtx.Done():
		log.Println("EMG service did not stop in time")
	}

	stats := p.Stats()
	log.Printf("Processed %d batches, %d cycles (%d abandoned), %d samples dropped",
		stats.BatchesIngested, stats.CyclesCompleted, stats.CyclesAbandoned, stats.SamplesDropped)
	log.Println("Shutdown complete. Goodbye!")
}

// loadArtifacts returns the normalizer and classifier. An empty model path
// selects the fixed-label classifier; missing artifact files are replaced by
// untrained samples.
func loadArtifacts(cfg *config.Config, featureLen int) (ml.Normalizer, ml.Classifier, error) {
	if cfg.ModelPath == "" {
		label := models.ActionLabel(cfg.StubLabel)
		log.Printf("Dry run: no model configured, every cycle predicts %s", label)
		return ml.IdentityNormalizer{N: featureLen}, ml.StubClassifier{Label: label}, nil
	}

	if !fileExists(cfg.ModelPath) && !fileExists(cfg.ScalerPath) {
		log.Printf("No artifacts found, creating untrained samples at %s and %s", cfg.ModelPath, cfg.ScalerPath)
		if err := os.MkdirAll(filepath.Dir(cfg.ModelPath), 0755); err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(filepath.Dir(cfg.ScalerPath), 0755); err != nil {
			return nil, nil, err
		}
		if err := ml.CreateSampleArtifacts(cfg.ModelPath, cfg.ScalerPath, featureLen); err != nil {
			return nil, nil, err
		}
	}

	scaler, err := ml.LoadStandardScaler(cfg.ScalerPath)
	if err != nil {
		return nil, nil, &models.ConfigurationError{Field: "SCALER_PATH", Reason: "cannot load normalizer", Err: err}
	}
	model, err := ml.LoadMLP(cfg.ModelPath)
	if err != nil {
		return nil, nil, &models.ConfigurationError{Field: "MODEL_PATH", Reason: "cannot load classifier", Err: err}
	}
	return scaler, model, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
