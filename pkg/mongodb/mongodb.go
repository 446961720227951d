// Package mongodb wraps the parts of *mongo.Collection the repositories
// use behind interfaces, so repositories can be tested with gomock.
package mongodb

//go:generate mockgen -source=mongodb.go -destination=mock_mongodb.go -package=mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ( // Interfaces
	ICollection interface {
		InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
		DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) (*mongo.DeleteResult, error)
		DeleteMany(context.Context, interface{}, ...*options.DeleteOptions) (*mongo.DeleteResult, error)
		FindOne(context.Context, interface{}, ...*options.FindOneOptions) ISingleResult
		FindOneAndUpdate(context.Context, interface{}, interface{}, ...*options.FindOneAndUpdateOptions) ISingleResult
		Find(context.Context, interface{}, ...*options.FindOptions) (ICursor, error)
		CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
		CreateIndexes(context.Context, []mongo.IndexModel) error
	}

	ICursor interface {
		Close(context.Context) error
		All(context.Context, interface{}) error
	}

	ISingleResult interface{ Decode(interface{}) error }
)

type ( // Structs
	Cursor struct{ cur *mongo.Cursor }

	Collection struct {
		Coll *mongo.Collection
	}

	SingleResult struct{ res *mongo.SingleResult }
)

func NewCollection(coll *mongo.Collection) *Collection {
	return &Collection{Coll: coll}
}

// Connect opens a client and checks it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// SingleResult

func (sr *SingleResult) Decode(v interface{}) error {
	return sr.res.Decode(v)
}

// Cursor

func (cur *Cursor) Close(ctx context.Context) error {
	return cur.cur.Close(ctx)
}
func (cur *Cursor) All(ctx context.Context, results interface{}) error {
	return cur.cur.All(ctx, results)
}

// Collection

func (col *Collection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	return col.Coll.InsertOne(ctx, document, opts...)
}

func (col *Collection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return col.Coll.DeleteOne(ctx, filter, opts...)
}

func (col *Collection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return col.Coll.DeleteMany(ctx, filter, opts...)
}

func (col *Collection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) ISingleResult {
	singleResult := col.Coll.FindOne(ctx, filter, opts...)
	return &SingleResult{res: singleResult}
}

func (col *Collection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) ISingleResult {
	singleResult := col.Coll.FindOneAndUpdate(ctx, filter, update, opts...)
	return &SingleResult{res: singleResult}
}

func (col *Collection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (ICursor, error) {
	cursorResult, err := col.Coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return &Cursor{cur: cursorResult}, nil
}

func (col *Collection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return col.Coll.CountDocuments(ctx, filter, opts...)
}

func (col *Collection) CreateIndexes(ctx context.Context, models []mongo.IndexModel) error {
	_, err := col.Coll.Indexes().CreateMany(ctx, models)
	return err
}
