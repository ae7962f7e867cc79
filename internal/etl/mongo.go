package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BartekS5/zabbix-audit/pkg/logger"
	"github.com/BartekS5/zabbix-audit/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoSink stores each event as one document of a collection.
type MongoSink struct {
	Client   *mongo.Client
	Database string
	log      *logger.Logger
	now      func() time.Time
}

func NewMongoSink(client *mongo.Client, database string, log *logger.Logger) *MongoSink {
	return &MongoSink{Client: client, Database: database, log: log, now: time.Now}
}

// ResolveStream returns the named collection, creating it when absent.
func (m *MongoSink) ResolveStream(ctx context.Context, name string) (Stream, error) {
	db := m.Client.Database(m.Database)
	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return nil, fmt.Errorf("%w: listing collections: %w", ErrConnectivity, err)
	}
	if len(names) == 0 {
		if err := db.CreateCollection(ctx, name); err != nil {
			return nil, fmt.Errorf("%w: creating collection %s: %w", ErrConnectivity, name, err)
		}
		m.log.Infof("Created mongo collection %s.%s", m.Database, name)
	}
	return &mongoCollection{sink: m, coll: db.Collection(name)}, nil
}

// Close is a no-op; the client is owned by whoever connected it.
func (m *MongoSink) Close() error {
	return nil
}

type mongoCollection struct {
	sink *MongoSink
	coll *mongo.Collection
}

func (c *mongoCollection) Name() string { return c.coll.Name() }

func (c *mongoCollection) OpenChannel(_ context.Context, meta models.EventMetadata) (Channel, error) {
	return &mongoChannel{coll: c.coll, meta: meta, now: c.sink.now}, nil
}

type mongoChannel struct {
	coll *mongo.Collection
	meta models.EventMetadata
	now  func() time.Time
	done bool
}

func (c *mongoChannel) Send(ctx context.Context, event []byte) error {
	if c.done {
		return fmt.Errorf("mongo channel closed")
	}
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := c.coll.InsertOne(sendCtx, eventDocument(c.meta, event, c.now()))
	return err
}

func (c *mongoChannel) Close() error {
	c.done = true
	return nil
}

func eventDocument(meta models.EventMetadata, event []byte, at time.Time) bson.D {
	return bson.D{
		{Key: "line", Value: strings.TrimSuffix(string(event), EventTerminator)},
		{Key: "raw", Value: string(event)},
		{Key: "source", Value: meta.Source},
		{Key: "sourcetype", Value: meta.SourceType},
		{Key: "host", Value: meta.Host},
		{Key: "received_at", Value: at.UTC()},
	}
}
