package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ArafathMohammed/Prosthetichand/internal/dsp"
	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

type Config struct {
	// MQTT Configuration
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTCAPath   string
	MQTTCertPath string
	MQTTKeyPath  string

	// MQTT topics
	MQTTTopicEMGData  string
	MQTTTopicCommands string

	// ClickHouse Configuration
	ClickHouseEnabled bool
	ClickHouseAddr    string
	ClickHouseDB      string
	ClickHouseUser    string
	ClickHousePass    string

	// ML artifacts; an empty ModelPath runs with a fixed label
	ModelPath  string
	ScalerPath string
	StubLabel  int

	// Windowing
	WindowSize    int
	WindowOverlap int

	// Signal processing
	SampleRate        float64
	VMDModes          int
	VMDAlpha          float64
	VMDTolerance      float64
	VMDMaxIter        int
	WaveletScales     int
	STFTWindowSeconds float64
	STFTOverlapRatio  float64
	STFTMinNFFT       int

	// Dispatch
	CommandMap     string
	DefaultCommand string

	// Service
	BatchChannelSize int
	StatusAddr       string

	parseErrors []error
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.load()
	return cfg
}

func (c *Config) load() {
	// MQTT Configuration
	c.MQTTBroker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	c.MQTTClientID = getEnv("MQTT_CLIENT_ID", "emg-hand-controller")
	c.MQTTUsername = getEnv("MQTT_USERNAME", "")
	c.MQTTPassword = getEnv("MQTT_PASSWORD", "")
	c.MQTTCAPath = getEnv("MQTT_CA_PATH", "")
	c.MQTTCertPath = getEnv("MQTT_CERT_PATH", "")
	c.MQTTKeyPath = getEnv("MQTT_KEY_PATH", "")

	c.MQTTTopicEMGData = getEnv("MQTT_TOPIC_EMG_DATA", "emg/data")
	c.MQTTTopicCommands = getEnv("MQTT_TOPIC_COMMANDS", "emg/commands")

	// ClickHouse Configuration
	c.ClickHouseEnabled = c.getEnvBool("CLICKHOUSE_ENABLED", true)
	c.ClickHouseAddr = getEnv("CLICKHOUSE_ADDR", "localhost:9000")
	c.ClickHouseDB = getEnv("CLICKHOUSE_DB", "emg")
	c.ClickHouseUser = getEnv("CLICKHOUSE_USER", "default")
	c.ClickHousePass = getEnv("CLICKHOUSE_PASS", "")

	// ML artifacts
	c.ModelPath = lookupEnv("MODEL_PATH", "./model/emg_mlp.json")
	c.ScalerPath = getEnv("SCALER_PATH", "./model/emg_scaler.json")
	c.StubLabel = c.getEnvInt("STUB_LABEL", 0)

	// Windowing
	c.WindowSize = c.getEnvInt("WINDOW_SIZE", 10000)
	c.WindowOverlap = c.getEnvInt("WINDOW_OVERLAP", 5000)

	// Signal processing
	vmd := dsp.DefaultVMDConfig()
	feat := dsp.DefaultFeatureConfig()
	c.SampleRate = c.getEnvFloat("SAMPLE_RATE", feat.SampleRate)
	c.VMDModes = c.getEnvInt("VMD_MODES", vmd.Modes)
	c.VMDAlpha = c.getEnvFloat("VMD_ALPHA", vmd.Alpha)
	c.VMDTolerance = c.getEnvFloat("VMD_TOLERANCE", vmd.Tolerance)
	c.VMDMaxIter = c.getEnvInt("VMD_MAX_ITER", vmd.MaxIter)
	c.WaveletScales = c.getEnvInt("WAVELET_SCALES", feat.WaveletScales)
	c.STFTWindowSeconds = c.getEnvFloat("STFT_WINDOW_SECONDS", feat.STFTWindowSeconds)
	c.STFTOverlapRatio = c.getEnvFloat("STFT_OVERLAP_RATIO", feat.STFTOverlapRatio)
	c.STFTMinNFFT = c.getEnvInt("STFT_MIN_NFFT", feat.STFTMinNFFT)

	// Dispatch
	c.CommandMap = getEnv("COMMAND_MAP", models.DefaultCommandTable().String())
	c.DefaultCommand = getEnv("DEFAULT_COMMAND", string(models.CommandGrip))

	// Service
	c.BatchChannelSize = c.getEnvInt("BATCH_CHANNEL_SIZE", 64)
	c.StatusAddr = getEnv("STATUS_ADDR", ":8090")
}

// VMD returns the decomposition parameters
func (c *Config) VMD() dsp.VMDConfig {
	return dsp.VMDConfig{
		Modes:     c.VMDModes,
		Alpha:     c.VMDAlpha,
		Tolerance: c.VMDTolerance,
		MaxIter:   c.VMDMaxIter,
	}
}

// Features returns the feature extractor parameters
func (c *Config) Features() dsp.FeatureConfig {
	return dsp.FeatureConfig{
		SampleRate:        c.SampleRate,
		WaveletScales:     c.WaveletScales,
		STFTWindowSeconds: c.STFTWindowSeconds,
		STFTOverlapRatio:  c.STFTOverlapRatio,
		STFTMinNFFT:       c.STFTMinNFFT,
	}
}

// CommandTable parses and checks COMMAND_MAP
func (c *Config) CommandTable() (models.CommandTable, error) {
	table, err := models.ParseCommandTable(c.CommandMap)
	if err != nil {
		return nil, &models.ConfigurationError{Field: "COMMAND_MAP", Reason: "cannot parse", Err: err}
	}
	if err := table.Check(); err != nil {
		return nil, &models.ConfigurationError{Field: "COMMAND_MAP", Reason: "incomplete table", Err: err}
	}
	return table, nil
}

// Validate returns a *models.ConfigurationError for the first invalid value
func (c *Config) Validate() error {
	if len(c.parseErrors) > 0 {
		return c.parseErrors[0]
	}
	if c.MQTTTopicEMGData == "" {
		return models.NewConfigurationError("MQTT_TOPIC_EMG_DATA", "must not be empty")
	}
	if c.MQTTTopicCommands == "" {
		return models.NewConfigurationError("MQTT_TOPIC_COMMANDS", "must not be empty")
	}
	if c.WindowSize <= 0 {
		return models.NewConfigurationError("WINDOW_SIZE", "must be positive, got %d", c.WindowSize)
	}
	if c.WindowOverlap < 0 || c.WindowOverlap >= c.WindowSize {
		return models.NewConfigurationError("WINDOW_OVERLAP",
			"must be in [0, %d), got %d", c.WindowSize, c.WindowOverlap)
	}
	if err := c.VMD().Validate(); err != nil {
		return &models.ConfigurationError{Field: "VMD", Reason: "invalid decomposition parameters", Err: err}
	}
	if err := c.Features().Validate(); err != nil {
		return &models.ConfigurationError{Field: "FEATURES", Reason: "invalid feature parameters", Err: err}
	}
	if _, err := c.CommandTable(); err != nil {
		return err
	}
	if !models.Command(c.DefaultCommand).Valid() {
		return models.NewConfigurationError("DEFAULT_COMMAND", "unknown command %q", c.DefaultCommand)
	}
	if c.ModelPath == "" && !models.ActionLabel(c.StubLabel).Valid() {
		return models.NewConfigurationError("STUB_LABEL", "unknown label %d", c.StubLabel)
	}
	if c.BatchChannelSize < 1 {
		return models.NewConfigurationError("BATCH_CHANNEL_SIZE", "must be positive, got %d", c.BatchChannelSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// lookupEnv is getEnv for keys where an explicitly empty value is meaningful
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int: %v", key, err)
		c.parseErrors = append(c.parseErrors, &models.ConfigurationError{Field: key, Reason: fmt.Sprintf("not an integer: %q", value), Err: err})
		return defaultValue
	}
	return intValue
}

func (c *Config) getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float: %v", key, err)
		c.parseErrors = append(c.parseErrors, &models.ConfigurationError{Field: key, Reason: fmt.Sprintf("not a number: %q", value), Err: err})
		return defaultValue
	}
	return floatValue
}

func (c *Config) getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool: %v", key, err)
		c.parseErrors = append(c.parseErrors, &models.ConfigurationError{Field: key, Reason: fmt.Sprintf("not a boolean: %q", value), Err: err})
		return defaultValue
	}
	return boolValue
}
