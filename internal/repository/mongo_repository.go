package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	models "github.com/fathima-sithara/video-asset-service/internal/media"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoVideoRepo struct {
	col *mongo.Collection
}

var _ VideoRepo = (*MongoVideoRepo)(nil)

func NewMongoVideoRepo(col *mongo.Collection) *MongoVideoRepo {
	return &MongoVideoRepo{col: col}
}

// ConnectMongo dials and pings the server, backing off exponentially until
// maxElapsed has passed.
func ConnectMongo(ctx context.Context, uri string, maxElapsed time.Duration) (*mongo.Client, error) {
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed
	ping := func() error {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return mc.Ping(pctx, nil)
	}
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, err
	}
	return mc, nil
}

func (r *MongoVideoRepo) Insert(ctx context.Context, v *models.Video) error {
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = v.CreatedAt
	}
	_, err := r.col.InsertOne(ctx, v)
	return err
}

func (r *MongoVideoRepo) GetByID(ctx context.Context, id string) (*models.Video, error) {
	var v models.Video
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *MongoVideoRepo) Update(ctx context.Context, v *models.Video) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": v.ID}, v)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVideoNotFound
	}
	return nil
}
