package etl

import (
	"context"
	"testing"
	"time"

	"github.com/BartekS5/zabbix-audit/pkg/logger"
	"github.com/BartekS5/zabbix-audit/pkg/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var testMeta = models.EventMetadata{SourceType: "zabbix-history", Source: "zabbix-db", Host: "zabbix01"}

func TestKafkaMessage(t *testing.T) {
	ev := NewTransformer().Event(record(3))
	msg := kafkaMessage(testMeta, ev)

	assert.Equal(t, []byte("zabbix01"), msg.Key)
	assert.Equal(t, ev, msg.Value)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, map[string]string{"source": "zabbix-db", "sourcetype": "zabbix-history", "host": "zabbix01"}, headers)
}

func TestKafkaWriter_KeepsRunOnOnePartition(t *testing.T) {
	topic := &kafkaTopic{sink: &KafkaSink{brokers: []string{"k1:9092"}}, name: "zabbix"}
	w := topic.writer()
	require.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)

	partitions := []int{0, 1, 2, 3}
	first := w.Balancer.Balance(kafkaMessage(testMeta, NewTransformer().Event(record(1))), partitions...)
	for id := models.Cursor(2); id <= 20; id++ {
		msg := kafkaMessage(testMeta, NewTransformer().Event(record(id)))
		assert.Equal(t, first, w.Balancer.Balance(msg, partitions...))
	}
}

func TestNewKafkaSink_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaSink(context.Background(), KafkaOptions{}, logger.Discard())
	assert.ErrorIs(t, err, ErrConnectivity)
}

func TestNewKafkaSink_UnreachableBroker(t *testing.T) {
	_, err := NewKafkaSink(context.Background(), KafkaOptions{Brokers: []string{"127.0.0.1:1"}, Timeout: time.Second}, logger.Discard())
	assert.ErrorIs(t, err, ErrConnectivity)
}

func TestEventDocument(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 6, 0, time.FixedZone("", 3600))
	ev := NewTransformer().Event(record(3))

	doc := eventDocument(testMeta, ev, at)
	m := map[string]interface{}{}
	for _, e := range doc {
		m[e.Key] = e.Value
	}

	assert.Equal(t, NewTransformer().FormatLine(record(3)), m["line"])
	assert.Equal(t, string(ev), m["raw"])
	assert.Equal(t, "zabbix-db", m["source"])
	assert.Equal(t, "zabbix-history", m["sourcetype"])
	assert.Equal(t, "zabbix01", m["host"])
	assert.Equal(t, at.UTC(), m["received_at"])

	_, err := bson.Marshal(doc)
	require.NoError(t, err)
}
