package mqtt

import (
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

// Publisher sends hand commands to the actuator controller
type Publisher struct {
	client mqtt.Client

	// Topic pattern
	commandTopic string

	timeout time.Duration
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	CommandTopic string // e.g., "emg/commands"
}

// NewPublisher creates a new MQTT command publisher
func NewPublisher(client mqtt.Client, config PublisherConfig) *Publisher {
	return &Publisher{
		client:       client,
		commandTopic: config.CommandTopic,
		timeout:      5 * time.Second,
	}
}

// PublishCommand publishes the bare command symbol with QoS 1
func (p *Publisher) PublishCommand(cmd models.Command) error {
	token := p.client.Publish(p.commandTopic, 1, false, []byte(cmd))
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("timed out publishing command %s to %s", cmd, p.commandTopic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish command %s: %w", cmd, err)
	}

	log.Printf("MQTT Publisher: Sent command %s to %s", cmd, p.commandTopic)
	return nil
}
