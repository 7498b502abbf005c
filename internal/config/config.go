package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"order-notifier/internal/apperr"
	"order-notifier/internal/logx"
)

// Topic backends.
const (
	TopicBackendSNS  = "sns"
	TopicBackendAMQP = "amqp"
)

// Failure policies applied by the batch runner on a transport fault.
const (
	FailurePolicyAbort    = "abort"
	FailurePolicyContinue = "continue"
)

// Notifications holds the destinations of the two outbound notifications.
type Notifications struct {
	TopicAddress   string
	EmailSender    string
	EmailRecipient string
}

// AWS holds SDK client settings.
type AWS struct {
	Region string
}

// AMQP holds RabbitMQ connection settings for the amqp topic backend.
type AMQP struct {
	URL string
}

// Kafka holds consumer group settings for the worker.
// An empty broker list disables the consumer.
type Kafka struct {
	Brokers []string
	GroupID string
	Topic   string
}

// Config is the process configuration, read once at startup.
type Config struct {
	Notify        Notifications
	AWS           AWS
	AMQP          AMQP
	Kafka         Kafka
	TopicBackend  string
	FailurePolicy string
	MetricsAddr   string
	LogLevel      string
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Notify: Notifications{
			TopicAddress:   os.Getenv("SNS_TOPIC_ARN"),
			EmailSender:    os.Getenv("EMAIL_SENDER"),
			EmailRecipient: os.Getenv("EMAIL_RECIPIENT"),
		},
		AWS:           AWS{Region: envOr("AWS_REGION", defaultRegion)},
		AMQP:          AMQP{URL: envOr("AMQP_URL", defaultAMQPURL)},
		Kafka:         loadKafka(),
		TopicBackend:  envOr("TOPIC_BACKEND", defaultTopicBackend),
		FailurePolicy: envOr("FAILURE_POLICY", defaultFailurePolicy),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		LogLevel:      envOr("LOG_LEVEL", defaultLogLevel),
	}

	fs := pflag.CommandLine
	fs.StringVar(&cfg.Notify.TopicAddress, "topic", cfg.Notify.TopicAddress, "topic address (SNS ARN or AMQP exchange)")
	fs.StringVar(&cfg.Notify.EmailSender, "email-sender", cfg.Notify.EmailSender, "email sender address")
	fs.StringVar(&cfg.Notify.EmailRecipient, "email-recipient", cfg.Notify.EmailRecipient, "email recipient address")
	fs.StringVar(&cfg.AWS.Region, "region", cfg.AWS.Region, "AWS region")
	fs.StringVar(&cfg.TopicBackend, "topic-backend", cfg.TopicBackend, "topic backend: sns|amqp")
	fs.StringVar(&cfg.FailurePolicy, "failure-policy", cfg.FailurePolicy, "on transport fault: abort|continue")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "ops HTTP listen address, empty disables")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.TopicBackend = strings.ToLower(strings.TrimSpace(c.TopicBackend))
	switch c.TopicBackend {
	case TopicBackendSNS, TopicBackendAMQP:
	default:
		return fmt.Errorf("%w: unknown topic backend %q", apperr.ErrConfiguration, c.TopicBackend)
	}

	c.FailurePolicy = strings.ToLower(strings.TrimSpace(c.FailurePolicy))
	switch c.FailurePolicy {
	case FailurePolicyAbort, FailurePolicyContinue:
	default:
		return fmt.Errorf("%w: unknown failure policy %q", apperr.ErrConfiguration, c.FailurePolicy)
	}

	if _, err := logx.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}
	if strings.TrimSpace(c.AWS.Region) == "" {
		return fmt.Errorf("%w: empty AWS region", apperr.ErrConfiguration)
	}
	return nil
}

func loadKafka() Kafka {
	k := defaultKafka
	k.GroupID = envOr("KAFKA_GROUP_ID", k.GroupID)
	k.Topic = envOr("KAFKA_TOPIC", k.Topic)
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			k.Brokers = append(k.Brokers, b)
		}
	}
	return k
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
