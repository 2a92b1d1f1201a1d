package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	CompanyName  string `yaml:"company_name"`
	DatabasePath string `yaml:"database_path"`

	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
	Routing   RoutingConfig   `yaml:"routing"`
	Sync      SyncConfig      `yaml:"sync"`
}

// WebConfig defines the web server settings.
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// MessagingConfig defines the notification messaging backend.
type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "mqtt" or "kafka"
	MQTT                MQTTConfig    `yaml:"mqtt"`
	Kafka               KafkaConfig   `yaml:"kafka"`
	NotificationTopic   string        `yaml:"notification_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// RoutingConfig defines brand routing rules evaluated before generic matching.
type RoutingConfig struct {
	PriorityGroups []PriorityGroup `yaml:"priority_groups"`
}

// PriorityGroup routes a fixed set of brands to one preferred party by name,
// regardless of what the generic registry matching would pick.
type PriorityGroup struct {
	Party  string   `yaml:"party"`
	Brands []string `yaml:"brands"`
}

// SyncConfig defines the task/order status reconciliation sweep.
type SyncConfig struct {
	// ReconcileInterval is how often drifted task/order status pairs are
	// re-applied. Zero disables the sweep.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		CompanyName:  "PartsDesk",
		DatabasePath: "partsdesk.db",
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8082,
		},
		Messaging: MessagingConfig{
			Backend:             "mqtt",
			NotificationTopic:   "partsdesk/notifications",
			OutboxDrainInterval: 5 * time.Second,
			MQTT: MQTTConfig{
				Broker:   "localhost",
				Port:     1883,
				ClientID: "partsdesk",
			},
		},
		Routing: RoutingConfig{
			PriorityGroups: []PriorityGroup{
				{
					Party:  "ComPlus",
					Brands: []string{"Electrolux", "Elica", "Candy", "Hoover", "Turbo Air"},
				},
			},
		},
		Sync: SyncConfig{
			ReconcileInterval: time.Minute,
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Lock acquires the config mutex for multi-step mutations.
func (c *Config) Lock() { c.mu.Lock() }

// Unlock releases the config mutex.
func (c *Config) Unlock() { c.mu.Unlock() }
