package etl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/BartekS5/zabbix-audit/pkg/logger"
	"github.com/BartekS5/zabbix-audit/pkg/models"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

type KafkaOptions struct {
	Brokers  []string
	Username string
	Password string
	Timeout  time.Duration
}

// KafkaSink forwards events to a single-partition topic so order is kept.
type KafkaSink struct {
	brokers   []string
	dialer    *kafka.Dialer
	transport kafka.RoundTripper
	log       *logger.Logger
}

func NewKafkaSink(ctx context.Context, opts KafkaOptions, log *logger.Logger) (*KafkaSink, error) {
	if len(opts.Brokers) == 0 {
		return nil, fmt.Errorf("%w: no kafka brokers configured", ErrConnectivity)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	k := &KafkaSink{
		brokers: opts.Brokers,
		dialer:  &kafka.Dialer{Timeout: opts.Timeout, DualStack: true},
		log:     log,
	}
	if opts.Username != "" {
		mech := plain.Mechanism{Username: opts.Username, Password: opts.Password}
		k.dialer.SASLMechanism = mech
		k.transport = &kafka.Transport{SASL: mech, DialTimeout: opts.Timeout}
	}

	conn, err := k.dialer.DialContext(ctx, "tcp", k.brokers[0])
	if err != nil {
		return nil, fmt.Errorf("%w: kafka %s: %w", ErrConnectivity, k.brokers[0], err)
	}
	conn.Close()
	return k, nil
}

// ResolveStream returns the named topic, creating it through the controller
// when the broker does not know it.
func (k *KafkaSink) ResolveStream(ctx context.Context, name string) (Stream, error) {
	conn, err := k.dialer.DialContext(ctx, "tcp", k.brokers[0])
	if err != nil {
		return nil, fmt.Errorf("%w: kafka %s: %w", ErrConnectivity, k.brokers[0], err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(name)
	if err == nil && len(partitions) > 0 {
		if len(partitions) > 1 {
			k.log.Warnf("Kafka topic %s has %d partitions; events are keyed by host so they stay on one", name, len(partitions))
		}
		return &kafkaTopic{sink: k, name: name}, nil
	}
	if err != nil && !errors.Is(err, kafka.UnknownTopicOrPartition) {
		return nil, fmt.Errorf("%w: reading topic %s: %w", ErrConnectivity, name, err)
	}

	controller, err := conn.Controller()
	if err != nil {
		return nil, fmt.Errorf("%w: kafka controller: %w", ErrConnectivity, err)
	}
	cconn, err := k.dialer.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return nil, fmt.Errorf("%w: kafka controller: %w", ErrConnectivity, err)
	}
	defer cconn.Close()

	err = cconn.CreateTopics(kafka.TopicConfig{Topic: name, NumPartitions: 1, ReplicationFactor: 1})
	switch {
	case err == nil:
		k.log.Infof("Created kafka topic %s", name)
	case errors.Is(err, kafka.TopicAlreadyExists):
		k.log.Debugf("Kafka topic %s was created concurrently", name)
	default:
		return nil, fmt.Errorf("%w: creating topic %s: %w", ErrConnectivity, name, err)
	}
	return &kafkaTopic{sink: k, name: name}, nil
}

func (k *KafkaSink) Close() error {
	return nil
}

type kafkaTopic struct {
	sink *KafkaSink
	name string
}

func (t *kafkaTopic) Name() string { return t.name }

func (t *kafkaTopic) OpenChannel(_ context.Context, meta models.EventMetadata) (Channel, error) {
	return &kafkaChannel{writer: t.writer(), meta: meta}, nil
}

// writer hashes the message key, which is the constant host tag, so every
// event of a run lands on the same partition in send order.
func (t *kafkaTopic) writer() *kafka.Writer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(t.sink.brokers...),
		Topic:        t.name,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
	if t.sink.transport != nil {
		w.Transport = t.sink.transport
	}
	return w
}

type kafkaChannel struct {
	writer *kafka.Writer
	meta   models.EventMetadata
	once   sync.Once
	err    error
}

func (c *kafkaChannel) Send(ctx context.Context, event []byte) error {
	return c.writer.WriteMessages(ctx, kafkaMessage(c.meta, event))
}

func (c *kafkaChannel) Close() error {
	c.once.Do(func() { c.err = c.writer.Close() })
	return c.err
}

func kafkaMessage(meta models.EventMetadata, event []byte) kafka.Message {
	return kafka.Message{
		Key:   []byte(meta.Host),
		Value: event,
		Headers: []kafka.Header{
			{Key: "source", Value: []byte(meta.Source)},
			{Key: "sourcetype", Value: []byte(meta.SourceType)},
			{Key: "host", Value: []byte(meta.Host)},
		},
	}
}
