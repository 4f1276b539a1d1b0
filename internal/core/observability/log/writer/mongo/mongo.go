// Package mongo persists log records as documents in a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zeusync/usuarios/internal/core/observability/log"
)

// WriterType is the registry name of this writer.
const WriterType = "mongo"

var _ log.Writer = (*Writer)(nil)

// Collection is the part of *mongo.Collection the writer relies on.
type Collection interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*driver.InsertOneResult, error)
}

// Connection selects collections. *mongo.Client is adapted to it automatically.
type Connection interface {
	SelectCollection(database, collection string, opts ...*options.CollectionOptions) Collection
}

type clientConnection struct {
	client *driver.Client
}

func (c clientConnection) SelectCollection(database, collection string, opts ...*options.CollectionOptions) Collection {
	return c.client.Database(database).Collection(collection, opts...)
}

// Options mirrors the mongo, database, collection and save_options config keys.
type Options struct {
	Mongo       any
	Database    string
	Collection  string
	SaveOptions SaveOptions
}

// Writer appends each record to one collection.
type Writer struct {
	collection  Collection
	saveOptions SaveOptions
}

// New binds a writer to database.collection on conn, which must be a
// *mongo.Client or a Connection.
func New(conn any, database, collection string, saveOptions SaveOptions) (*Writer, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: the collection parameter cannot be empty", log.ErrInvalidArgument)
	}
	if database == "" {
		return nil, fmt.Errorf("%w: the database parameter cannot be empty", log.ErrInvalidArgument)
	}

	var c Connection
	switch v := conn.(type) {
	case *driver.Client:
		if v == nil {
			return nil, fmt.Errorf("%w: mongo client is nil", log.ErrInvalidArgument)
		}
		c = clientConnection{client: v}
	case Connection:
		c = v
	default:
		return nil, fmt.Errorf("%w: parameter of type %T is invalid; must be *mongo.Client or mongo.Connection",
			log.ErrInvalidArgument, conn)
	}

	return &Writer{
		collection:  c.SelectCollection(database, collection, saveOptions.collectionOptions()),
		saveOptions: saveOptions,
	}, nil
}

func NewFromOptions(opts Options) (*Writer, error) {
	return New(opts.Mongo, opts.Database, opts.Collection, opts.SaveOptions)
}

// Factory adapts New to the writer registry. conn is shared by every writer it builds.
func Factory(conn any) log.WriterFactory {
	return func(options map[string]any) (log.Writer, error) {
		saveOptions, err := ParseSaveOptions(log.OptionMap(options, "save_options"))
		if err != nil {
			return nil, err
		}
		return New(conn, log.OptionString(options, "database"), log.OptionString(options, "collection"), saveOptions)
	}
}

func (w *Writer) Write(ctx context.Context, record log.Record) error {
	if w.collection == nil {
		return fmt.Errorf("%w: mongo collection must be defined", log.ErrRuntime)
	}

	doc := bson.M(record.Document())
	if ts, ok := doc["timestamp"].(time.Time); ok {
		doc["timestamp"] = primitive.NewDateTimeFromTime(ts.Truncate(time.Second))
	}

	if _, err := w.collection.InsertOne(ctx, doc, w.saveOptions.insertOptions()); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// SetFormatter is a no-op: records are stored as documents.
func (w *Writer) SetFormatter(log.Formatter) log.Writer {
	return w
}

// Close leaves the client open; its owner disconnects it.
func (w *Writer) Close(context.Context) error {
	return nil
}
