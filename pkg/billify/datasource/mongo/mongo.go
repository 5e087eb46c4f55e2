// Package mongo is the MongoDB datasource of billify. Every query is logged at DEBUG
// and timed into the app_mongo_stats histogram.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"billify.site/pkg/billify/logging"
)

const (
	defaultConnectTimeout = 10 * time.Second
	healthCheckTimeout    = time.Second

	statsHistogram = "app_mongo_stats"
	upGauge        = "app_mongo_up"
)

var (
	// ErrNoDocuments is returned by FindOne when nothing matches the filter.
	ErrNoDocuments = mongo.ErrNoDocuments
	// ErrNotConnected is returned by every query while no connection is established.
	ErrNotConnected = errors.New("database not connected")
)

type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type Client struct {
	*mongo.Database

	config  Config
	logger  Logger
	metrics Metrics
}

func New(c Config) *Client {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}

	return &Client{config: c}
}

func (c *Client) UseLogger(logger any) {
	if l, ok := logger.(Logger); ok {
		c.logger = l
	}
}

func (c *Client) UseMetrics(metrics any) {
	if m, ok := metrics.(Metrics); ok {
		c.metrics = m
	}
}

// Connect opens the connection and verifies it with a ping.
func (c *Client) Connect(ctx context.Context) error {
	c.logger.Logf("connecting to MongoDB database %v", c.config.Database)

	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	m, err := mongo.Connect(ctx, options.Client().ApplyURI(c.config.URI))
	if err != nil {
		return errors.Wrap(err, "database error")
	}

	if err = m.Ping(ctx, readpref.Primary()); err != nil {
		_ = m.Disconnect(context.Background())

		return errors.Wrap(err, "database error")
	}

	c.Database = m.Database(c.config.Database)

	c.logger.Logf("database: connected to %v", c.config.Database)

	return nil
}

func (c *Client) Close(ctx context.Context) error {
	if c.Database == nil {
		return nil
	}

	return c.Database.Client().Disconnect(ctx)
}

func (c *Client) InsertOne(ctx context.Context, collection string, document any) (any, error) {
	defer c.postProcess(ctx, &QueryLog{Query: "insertOne", Collection: collection}, time.Now())

	coll, err := c.collection(collection)
	if err != nil {
		return nil, err
	}

	res, err := coll.InsertOne(ctx, document)
	if err != nil {
		return nil, err
	}

	return res.InsertedID, nil
}

// FindOne decodes the first document matching filter into result.
func (c *Client) FindOne(ctx context.Context, collection string, filter, result any) error {
	defer c.postProcess(ctx, &QueryLog{Query: "findOne", Collection: collection, Filter: filter}, time.Now())

	coll, err := c.collection(collection)
	if err != nil {
		return err
	}

	b, err := coll.FindOne(ctx, filter).Raw()
	if err != nil {
		return err
	}

	return bson.Unmarshal(b, result)
}

func (c *Client) UpdateByID(ctx context.Context, collection string, id, update any) (int64, error) {
	defer c.postProcess(ctx, &QueryLog{Query: "updateByID", Collection: collection, ID: id, Update: update}, time.Now())

	coll, err := c.collection(collection)
	if err != nil {
		return 0, err
	}

	res, err := coll.UpdateByID(ctx, id, update)
	if err != nil {
		return 0, err
	}

	return res.ModifiedCount, nil
}

func (c *Client) DeleteOne(ctx context.Context, collection string, filter any) (int64, error) {
	defer c.postProcess(ctx, &QueryLog{Query: "deleteOne", Collection: collection, Filter: filter}, time.Now())

	coll, err := c.collection(collection)
	if err != nil {
		return 0, err
	}

	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}

	return res.DeletedCount, nil
}

// CreateIndexes creates the given indexes, returning their names.
func (c *Client) CreateIndexes(ctx context.Context, collection string, models []mongo.IndexModel) ([]string, error) {
	defer c.postProcess(ctx, &QueryLog{Query: "createIndexes", Collection: collection}, time.Now())

	coll, err := c.collection(collection)
	if err != nil {
		return nil, err
	}

	return coll.Indexes().CreateMany(ctx, models)
}

func (c *Client) collection(name string) (*mongo.Collection, error) {
	if c.Database == nil {
		return nil, ErrNotConnected
	}

	return c.Database.Collection(name), nil
}

// QueryLog describes one executed query.
type QueryLog struct {
	Query      string `json:"query"`
	Duration   int64  `json:"durationMs"`
	Collection string `json:"collection,omitempty"`
	Filter     any    `json:"filter,omitempty"`
	ID         any    `json:"id,omitempty"`
	Update     any    `json:"update,omitempty"`
}

func (ql *QueryLog) String() string {
	return fmt.Sprintf("MONGO %s %s", ql.Query, ql.Collection)
}

func (c *Client) postProcess(ctx context.Context, ql *QueryLog, startTime time.Time) {
	ql.Duration = time.Since(startTime).Milliseconds()

	c.logger.Debug(ql.String(), logging.Fields{"mongo": ql})

	c.metrics.RecordHistogram(ctx, statsHistogram, float64(ql.Duration), "type", ql.Query)
}

type Health struct {
	Status  string         `json:"status,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// HealthCheck pings the primary and reports the result.
func (c *Client) HealthCheck(ctx context.Context) *Health {
	h := Health{
		Details: map[string]any{"database": c.config.Database},
	}

	if c.Database == nil {
		h.Status = StatusDown
		h.Details["error"] = "not connected"
		c.metrics.SetGauge(upGauge, 0)

		return &h
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := c.Database.Client().Ping(ctx, readpref.Primary()); err != nil {
		h.Status = StatusDown
		h.Details["error"] = err.Error()
		c.metrics.SetGauge(upGauge, 0)

		return &h
	}

	h.Status = StatusUp
	c.metrics.SetGauge(upGauge, 1)

	return &h
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
