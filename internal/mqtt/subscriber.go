package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

// Subscriber handles MQTT subscriptions and writes messages to channels
type Subscriber struct {
	// Output channels (written by subscriber, read by services)
	BatchChan       chan *models.EMGBatch
	DecodeErrorChan chan *models.DecodeError

	// OnDrop is told how many samples were discarded when the batch channel
	// was full. May be nil.
	OnDrop func(samples int)

	// Topic patterns
	emgTopic string
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	EMGTopic string // e.g., "emg/data"
}

// NewSubscriber creates a new MQTT subscriber with channels. Pass OnConnect
// to Client.Connect to subscribe.
func NewSubscriber(
	config SubscriberConfig,
	batchChan chan *models.EMGBatch,
	decodeErrorChan chan *models.DecodeError,
) *Subscriber {
	return &Subscriber{
		BatchChan:       batchChan,
		DecodeErrorChan: decodeErrorChan,
		emgTopic:        config.EMGTopic,
	}
}

// OnConnect subscribes on every (re)connection. With a clean session the
// broker forgets subscriptions when the connection drops.
func (s *Subscriber) OnConnect(client mqtt.Client) {
	if err := s.subscribeAll(client); err != nil {
		log.Printf("MQTT Subscriber: %v", err)
	}
}

// subscribeAll subscribes to all configured topics
func (s *Subscriber) subscribeAll(client mqtt.Client) error {
	if s.emgTopic == "" {
		return fmt.Errorf("no EMG topic configured")
	}
	if client == nil {
		return fmt.Errorf("no MQTT client")
	}
	if err := subscribeToTopic(client, s.emgTopic, s.handleEMG); err != nil {
		return fmt.Errorf("failed to subscribe to EMG topic: %w", err)
	}
	log.Printf("Subscribed to EMG topic: %s", s.emgTopic)
	return nil
}

// subscribeToTopic is a helper function to subscribe to a topic with a handler
func subscribeToTopic(client mqtt.Client, topic string, handler mqtt.MessageHandler) error {
	token := client.Subscribe(topic, 1, handler)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// handleEMG decodes an EMG batch and writes it to the batch channel.
// Malformed payloads never reach the pipeline.
func (s *Subscriber) handleEMG(client mqtt.Client, msg mqtt.Message) {
	s.deliver(msg.Topic(), msg.Payload())
}

func (s *Subscriber) deliver(topic string, payload []byte) {
	batch, err := DecodeEMG(topic, payload, time.Now())
	if err != nil {
		log.Printf("MQTT Subscriber: %v", err)
		var decErr *models.DecodeError
		if errors.As(err, &decErr) {
			select {
			case s.DecodeErrorChan <- decErr:
			default:
			}
		}
		return
	}

	// Never block the paho callback: when the channel is full the oldest
	// queued batch makes room for the newest.
	for {
		select {
		case s.BatchChan <- batch:
			return
		default:
		}

		select {
		case stale := <-s.BatchChan:
			if stale != nil {
				log.Printf("Warning: EMG batch channel full, dropping %d oldest samples", len(stale.Samples))
				if s.OnDrop != nil {
					s.OnDrop(len(stale.Samples))
				}
			}
		default:
		}
	}
}

// DecodeEMG parses an inbound payload of the form {"emg_data": [numbers]}.
// A missing or null field, a non-array value, a non-numeric element or
// invalid JSON yields a *models.DecodeError.
func DecodeEMG(topic string, payload []byte, received time.Time) (*models.EMGBatch, error) {
	var msg models.EMGPayload

	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&msg); err != nil {
		return nil, &models.DecodeError{Topic: topic, Reason: "invalid EMG payload", Err: err}
	}
	if dec.More() {
		return nil, &models.DecodeError{Topic: topic, Reason: "trailing data after EMG payload"}
	}
	if msg.EMGData == nil {
		return nil, &models.DecodeError{Topic: topic, Reason: "missing emg_data field"}
	}

	return &models.EMGBatch{
		Timestamp: received,
		Topic:     topic,
		Samples:   *msg.EMGData,
	}, nil
}
