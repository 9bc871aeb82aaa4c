package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client manages the MQTT connection (low-level connection management only)
// For subscribing and publishing, use Subscriber and Publisher respectively
type Client struct {
	client    mqtt.Client
	config    ClientConfig
	onConnect func(client mqtt.Client)
}

// ClientConfig holds MQTT client configuration
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// Optional TLS material. Mutual TLS is used when CertPath and KeyPath
	// are both set.
	CAPath   string
	CertPath string
	KeyPath  string
}

// NewClient configures an MQTT client. Call Connect to reach the broker.
func NewClient(config ClientConfig) (*Client, error) {
	c := &Client{config: config}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetDefaultPublishHandler(messagePubHandler)
	opts.SetOnConnectHandler(newConnectHandler(func(client mqtt.Client) {
		if c.onConnect != nil {
			c.onConnect(client)
		}
	}))
	opts.SetConnectionLostHandler(connectLostHandler)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	tlsConfig, err := newTLSConfig(config)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
		log.Println("MQTT Client: TLS enabled")
	}

	c.client = mqtt.NewClient(opts)
	return c, nil
}

// Connect blocks until the first connection is made. onConnect runs after
// that and every automatic reconnection, e.g. Subscriber.OnConnect; it may
// be nil. Connect must not be called twice.
func (c *Client) Connect(onConnect func(client mqtt.Client)) error {
	c.onConnect = onConnect

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Println("MQTT Client: Connected to broker:", c.config.Broker)
	return nil
}

// newTLSConfig builds the TLS settings from the configured files, or returns
// nil when no CA is configured
func newTLSConfig(config ClientConfig) (*tls.Config, error) {
	if config.CAPath == "" {
		return nil, nil
	}

	ca, err := os.ReadFile(config.CAPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("no certificates found in %s", config.CAPath)
	}

	tlsConfig := &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}

	if config.CertPath != "" || config.KeyPath != "" {
		if config.CertPath == "" || config.KeyPath == "" {
			return nil, fmt.Errorf("client certificate and key must be set together")
		}
		cert, err := tls.LoadX509KeyPair(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// GetNativeClient returns the underlying paho MQTT client
// This is used by Subscriber and Publisher
func (c *Client) GetNativeClient() mqtt.Client {
	return c.client
}

// IsConnected returns whether the client is currently connected
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Close closes the MQTT client connection
func (c *Client) Close() {
	c.client.Disconnect(250)
	log.Println("MQTT Client: Disconnected")
}

// Connection event handlers
var messagePubHandler mqtt.MessageHandler = func(client mqtt.Client, msg mqtt.Message) {
	log.Printf("MQTT: Received unexpected message from topic: %s", msg.Topic())
}

// newConnectHandler logs each connection and runs hook
func newConnectHandler(hook func(mqtt.Client)) mqtt.OnConnectHandler {
	return func(client mqtt.Client) {
		log.Println("MQTT: Connection established")
		if hook != nil {
			hook(client)
		}
	}
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Printf("MQTT: Connection lost: %v", err)
}
