package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/pkg/logger"
	"github.com/okian/witarcade/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultMongoTimeout = 5 * time.Second

// document is the stored BSON shape.
type document struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Email      string             `bson:"email"`
	Guesses    int                `bson:"guesses"`
	ElapsedSec int                `bson:"elapsedSec"`
	Consent    bool               `bson:"consent"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func (d document) entry() model.Entry {
	return model.Entry{
		ID:         d.ID.Hex(),
		Email:      d.Email,
		Guesses:    d.Guesses,
		ElapsedSec: d.ElapsedSec,
		Consent:    d.Consent,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

var (
	rankSort    = bson.D{{Key: "guesses", Value: 1}, {Key: "elapsedSec", Value: 1}, {Key: "createdAt", Value: 1}}
	historySort = bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}}
	publicProj  = bson.D{{Key: "email", Value: 1}, {Key: "guesses", Value: 1}, {Key: "elapsedSec", Value: 1}, {Key: "createdAt", Value: 1}}
)

// MongoStore persists entries in a MongoDB collection.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
	log     logger.Logger
}

// NewMongoStore connects to uri and verifies the primary is reachable.
func NewMongoStore(ctx context.Context, uri, database, collection string, opts ...MongoOption) (*MongoStore, error) {
	s := &MongoStore{timeout: defaultMongoTimeout, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri).SetTimeout(s.timeout))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrUnavailable, err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %w", ErrUnavailable, err)
	}

	s.client = client
	s.coll = client.Database(database).Collection(collection)
	s.log.Info(ctx, "connected to mongodb",
		logger.String("database", database),
		logger.String("collection", collection))
	return s, nil
}

func (s *MongoStore) observe(op string, start time.Time, err error) error {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Milliseconds()))
	if err == nil {
		return nil
	}
	metrics.RecordStoreError(op)
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// Insert implements Store.Insert.
func (s *MongoStore) Insert(ctx context.Context, e model.Entry) (string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, document{
		Email:      e.Email,
		Guesses:    e.Guesses,
		ElapsedSec: e.ElapsedSec,
		Consent:    e.Consent,
		CreatedAt:  e.CreatedAt,
	})
	if err := s.observe("insert", start, err); err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%w: insert: unexpected id type %T", ErrUnavailable, res.InsertedID)
	}
	return oid.Hex(), nil
}

// Top implements Store.Top.
func (s *MongoStore) Top(ctx context.Context, limit int) ([]model.Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	opts := options.Find().
		SetSort(rankSort).
		SetLimit(int64(limit)).
		SetProjection(publicProj)
	return s.find(ctx, "top", bson.D{}, opts)
}

// ByEmail implements Store.ByEmail.
func (s *MongoStore) ByEmail(ctx context.Context, email string, limit int) ([]model.Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(publicProj)
	return s.find(ctx, "by_email", bson.D{{Key: "email", Value: email}}, opts)
}

func (s *MongoStore) find(ctx context.Context, op string, filter bson.D, opts *options.FindOptions) ([]model.Entry, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, filter, opts)
	if err := s.observe(op, start, err); err != nil {
		return nil, err
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, s.observe(op, start, err)
	}

	out := make([]model.Entry, len(docs))
	for i, d := range docs {
		out[i] = d.entry()
	}
	return out, nil
}

// Count implements Store.Count.
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.coll.EstimatedDocumentCount(ctx)
	if err := s.observe("count", start, err); err != nil {
		return 0, err
	}
	return n, nil
}

// EnsureIndexes implements Store.EnsureIndexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: rankSort, Options: options.Index().SetName(RankIndex)},
		{Keys: historySort, Options: options.Index().SetName(EmailIndex)},
	})
	if err := s.observe("ensure_indexes", start, err); err != nil {
		return err
	}
	s.log.Debug(ctx, "indexes ready", logger.Any("indexes", names))
	return nil
}

// Close implements Store.Close.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	if err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}
