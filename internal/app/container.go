package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"order-notifier/internal/config"
	"order-notifier/internal/http/handlers"
	"order-notifier/internal/http/router"
	"order-notifier/internal/logx"
	"order-notifier/internal/metrics"
	"order-notifier/internal/notify/amqptopic"
	"order-notifier/internal/notify/sesmail"
	"order-notifier/internal/notify/snstopic"
	"order-notifier/internal/service/orders"
	"order-notifier/internal/transport/kafka"
	"order-notifier/internal/transport/sqsevent"
)

type (
	configLoader func() (*config.Config, error)
	awsLoader    func(ctx context.Context, region string) (aws.Config, error)
	amqpDialer   func(url string) (closablePublisher, error)
)

type closablePublisher interface {
	orders.TopicPublisher
	Close() error
}

// topicCloser releases the topic backend connection, if any.
type topicCloser func() error

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	loadConfig configLoader
	loadAWS    awsLoader
	dialAMQP   amqpDialer
	registry   *prometheus.Registry
	logFatalf  func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		loadConfig: config.Load,
		loadAWS:    loadAWSConfig,
		dialAMQP:   dialAMQP,
		logFatalf:  log.Fatalf,
	}
}

// WithConfigLoader sets the configuration loader
func (b *ContainerBuilder) WithConfigLoader(fn func() (*config.Config, error)) *ContainerBuilder {
	if fn != nil {
		b.loadConfig = fn
	}
	return b
}

// WithAWSLoader sets the AWS SDK configuration loader
func (b *ContainerBuilder) WithAWSLoader(fn func(context.Context, string) (aws.Config, error)) *ContainerBuilder {
	if fn != nil {
		b.loadAWS = fn
	}
	return b
}

// WithRegistry makes metrics register on reg instead of the default registry.
func (b *ContainerBuilder) WithRegistry(reg *prometheus.Registry) *ContainerBuilder {
	b.registry = reg
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

func (b *ContainerBuilder) withAMQPDialer(fn amqpDialer) *ContainerBuilder {
	if fn != nil {
		b.dialAMQP = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx, b.loadConfig, b.registry); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerAWS(container, b.loadAWS); err != nil {
		return nil, fmt.Errorf("aws: %w", err)
	}
	if err := registerNotify(container, b.dialAMQP); err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerTransport(container); err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context, load configLoader, reg *prometheus.Registry) error {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	return provideAll(container,
		func() context.Context { return ctx },
		func() (*config.Config, error) { return load() },
		func(cfg *config.Config) (logx.Logger, error) { return NewLogger(cfg.LogLevel) },
		func() prometheus.Registerer { return registerer },
		func() prometheus.Gatherer { return gatherer },
		metrics.NewOrders,
	)
}

func registerAWS(container *dig.Container, load awsLoader) error {
	return provideAll(container,
		func(ctx context.Context, cfg *config.Config) (aws.Config, error) {
			return load(ctx, cfg.AWS.Region)
		},
		func(c aws.Config) *sns.Client { return sns.NewFromConfig(c) },
		func(c aws.Config) *ses.Client { return ses.NewFromConfig(c) },
	)
}

type topicIn struct {
	dig.In
	Config *config.Config
	Logger logx.Logger
	SNS    *sns.Client
}

func registerNotify(container *dig.Container, dial amqpDialer) error {
	topicProvider := func(in topicIn) (orders.TopicPublisher, topicCloser, error) {
		return newTopicPublisher(in, dial)
	}
	return provideAll(container,
		topicProvider,
		func(c *ses.Client) orders.EmailSender { return sesmail.NewSender(c) },
		func(cfg *config.Config) orders.Destinations {
			return orders.Destinations{
				TopicAddress:   cfg.Notify.TopicAddress,
				EmailSender:    cfg.Notify.EmailSender,
				EmailRecipient: cfg.Notify.EmailRecipient,
			}
		},
	)
}

func newTopicPublisher(in topicIn, dial amqpDialer) (orders.TopicPublisher, topicCloser, error) {
	switch in.Config.TopicBackend {
	case config.TopicBackendAMQP:
		p, err := dial(in.Config.AMQP.URL)
		if err != nil {
			return nil, nil, err
		}
		in.Logger.Info("topic backend selected", logx.String("backend", config.TopicBackendAMQP))
		return p, p.Close, nil
	default:
		in.Logger.Info("topic backend selected", logx.String("backend", config.TopicBackendSNS))
		return snstopic.NewPublisher(in.SNS), func() error { return nil }, nil
	}
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		orders.NewParser,
		orders.NewDispatcher,
		func(
			p *orders.Parser,
			d *orders.Dispatcher,
			cfg *config.Config,
			logger logx.Logger,
			m *metrics.Orders,
		) (*orders.Runner, error) {
			policy, err := orders.ParseFailurePolicy(cfg.FailurePolicy)
			if err != nil {
				return nil, err
			}
			return orders.NewRunner(p, d, policy, logger, m), nil
		},
	)
}

func registerTransport(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		processBatch,
		func(fn batchFunc) kafka.HandleFunc { return kafka.HandleFunc(fn) },
		func(r *orders.Runner) sqsevent.ProcessFunc { return r.Process },
		func(cfg *config.Config, logger logx.Logger, h kafka.HandleFunc) (*kafka.Consumer, error) {
			k := cfg.Kafka
			return kafka.NewConsumer(logger, k.Brokers, k.GroupID, k.Topic, h)
		},
		sqsevent.NewHandler,
		handlers.New,
		router.New,
		serverProvider,
	)
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

func dialAMQP(url string) (closablePublisher, error) {
	p, err := amqptopic.Dial(url)
	if err != nil {
		return nil, err
	}
	return p, nil
}
