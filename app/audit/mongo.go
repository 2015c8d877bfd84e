package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const (
	mongoQueueSize  = 4096
	mongoBatchSize  = 50
	mongoDrainTick  = 2 * time.Second
	mongoCollection = "order_audit"
)

// Mongo writes entries to MongoDB from a background goroutine. Entries are
// enqueued without blocking; when the queue is full they are logged and
// dropped.
type Mongo struct {
	client    *mongo.Client
	col       *mongo.Collection
	queue     chan Entry
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// DialMongo connects, pings and ensures the order_id index exists.
func DialMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(10))
	if err != nil {
		return nil, fmt.Errorf("audit: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("audit: mongo ping: %w", err)
	}

	col := client.Database(database).Collection(mongoCollection)
	if _, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "at", Value: 1}},
	}); err != nil {
		logger.Warn("audit: create index", "error", err)
	}

	m := &Mongo{
		client:  client,
		col:     col,
		queue:   make(chan Entry, mongoQueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go m.drainLoop()
	return m, nil
}

func (m *Mongo) Record(ctx context.Context, e Entry) {
	select {
	case m.queue <- e:
	default:
		logger.WithCtx(ctx).Warn("audit: queue full, entry dropped",
			"order_id", e.OrderID, "action", e.Action)
	}
}

func (m *Mongo) Trail(ctx context.Context, orderID uint) ([]Entry, error) {
	cur, err := m.col.Find(ctx, bson.M{"order_id": orderID},
		options.Find().SetSort(bson.D{{Key: "at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("audit: find: %w", err)
	}
	out := []Entry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("audit: decode: %w", err)
	}
	return out, nil
}

func (m *Mongo) drainLoop() {
	defer close(m.stopped)
	ticker := time.NewTicker(mongoDrainTick)
	defer ticker.Stop()

	batch := make([]any, 0, mongoBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := m.col.InsertMany(ctx, batch); err != nil {
			logger.Error("audit: insert", "count", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-m.queue:
			batch = append(batch, e)
			if len(batch) >= mongoBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-m.done:
			for len(m.queue) > 0 {
				batch = append(batch, <-m.queue)
			}
			flush()
			return
		}
	}
}

// Close flushes queued entries and disconnects. Safe to call more than once.
func (m *Mongo) Close(ctx context.Context) error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		select {
		case <-m.stopped:
		case <-ctx.Done():
		}
		err = m.client.Disconnect(ctx)
	})
	return err
}
