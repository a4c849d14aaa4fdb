// Package store persists book and scan records to MongoDB and mirrors each
// book into a local metadata.json sidecar.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mkrawiec/bibscan/internal/analysis"
	"github.com/mkrawiec/bibscan/internal/library"
)

// Config holds MongoDB connection settings.
type Config struct {
	URI                string
	Database           string
	BooksCollection    string
	AliasCollection    string
	TimelineCollection string
	ConnectTimeout     time.Duration
}

// Store wraps the MongoDB collections used by bibscan.
type Store struct {
	client   *mongo.Client
	books    *mongo.Collection
	aliases  *mongo.Collection
	timeline *mongo.Collection
	log      *slog.Logger
	changes  *slog.Logger
}

// Connect establishes a MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, cfg Config, log, changes *slog.Logger) (*Store, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	log.Info("mongodb connected", "database", cfg.Database)
	return &Store{
		client:   client,
		books:    db.Collection(cfg.BooksCollection),
		aliases:  db.Collection(cfg.AliasCollection),
		timeline: db.Collection(cfg.TimelineCollection),
		log:      log,
		changes:  changes,
	}, nil
}

// Ping checks that the connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// UpsertBook creates or refreshes a book document without touching its
// scans. created_at is set exactly once, on first insert.
func (s *Store) UpsertBook(ctx context.Context, hash string, meta library.BookMeta) error {
	return s.upsertBookMeta(ctx, hash, meta, time.Now().UTC())
}

// UpsertBookScan writes the book metadata and files one scan record. The book
// document is created on first sight (created_at is set exactly once); its
// metadata is refreshed on every call. The scan is matched by page_key: a
// re-scan of the same page replaces the existing entry, otherwise the scan is
// appended.
func (s *Store) UpsertBookScan(ctx context.Context, hash string, meta library.BookMeta, scan library.Scan) error {
	now := time.Now().UTC()
	if err := s.upsertBookMeta(ctx, hash, meta, now); err != nil {
		return err
	}

	scan.ProcessedAt = now
	upd, err := s.books.UpdateOne(ctx,
		bson.M{"book_hash": hash, "scans.page_key": scan.PageKey},
		bson.M{"$set": bson.M{"scans.$": scan}},
	)
	if err != nil {
		return fmt.Errorf("update scan %s/%s: %w", hash, scan.PageKey, err)
	}
	if upd.MatchedCount > 0 {
		s.changes.Info("scan replaced", "book_hash", hash, "page_key", scan.PageKey)
		return nil
	}

	if _, err := s.books.UpdateOne(ctx,
		bson.M{"book_hash": hash},
		bson.M{"$push": bson.M{"scans": scan}},
	); err != nil {
		return fmt.Errorf("append scan %s/%s: %w", hash, scan.PageKey, err)
	}
	s.changes.Info("scan added", "book_hash", hash, "page_key", scan.PageKey)
	return nil
}

func (s *Store) upsertBookMeta(ctx context.Context, hash string, meta library.BookMeta, now time.Time) error {
	res, err := s.books.UpdateOne(ctx,
		bson.M{"book_hash": hash},
		bson.M{
			"$set": bson.M{
				"book_hash":             hash,
				"title":                 meta.Title,
				"authors":               meta.Authors,
				"year":                  meta.Year,
				"pub_place":             meta.PubPlace,
				"publisher":             meta.Publisher,
				"num_pages":             meta.NumPages,
				"notes":                 meta.Notes,
				"keywords":              meta.Keywords,
				"maps_present":          meta.MapsPresent,
				"illustrations_present": meta.IllustrationsPresent,
				"tables_present":        meta.TablesPresent,
				"last_updated_at":       now,
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert book %s: %w", hash, err)
	}
	if res.UpsertedID != nil {
		s.changes.Info("book created", "book_hash", hash, "title", meta.Title)
	} else if res.ModifiedCount > 0 {
		s.changes.Info("book metadata updated", "book_hash", hash)
	}
	return nil
}

// GetBook fetches a book by hash. Returns (nil, nil) when not found.
func (s *Store) GetBook(ctx context.Context, hash string) (*library.Book, error) {
	var book library.Book
	err := s.books.FindOne(ctx, bson.M{"book_hash": hash}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", hash, err)
	}
	return &book, nil
}

// BookExists reports whether a book with the given hash is stored.
func (s *Store) BookExists(ctx context.Context, hash string) (bool, error) {
	n, err := s.books.CountDocuments(ctx, bson.M{"book_hash": hash}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count book %s: %w", hash, err)
	}
	return n > 0, nil
}

// RegisterAlias binds a scan-filename alias to a book hash.
func (s *Store) RegisterAlias(ctx context.Context, alias, hash string) error {
	_, err := s.aliases.UpdateOne(ctx,
		bson.M{"alias": alias},
		bson.M{
			"$set":         bson.M{"alias": alias, "book_hash": hash},
			"$setOnInsert": bson.M{"registered_at": time.Now().UTC()},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("register alias %q: %w", alias, err)
	}
	s.changes.Info("alias registered", "alias", alias, "book_hash", hash)
	return nil
}

// ResolveAlias returns the book hash bound to an alias, or "" when the alias
// is unknown.
func (s *Store) ResolveAlias(ctx context.Context, alias string) (string, error) {
	var doc struct {
		BookHash string `bson:"book_hash"`
	}
	err := s.aliases.FindOne(ctx, bson.M{"alias": alias}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve alias %q: %w", alias, err)
	}
	return doc.BookHash, nil
}

// SaveTimeline persists a book's timeline events and returns the number
// written. Previous events for the book are replaced.
func (s *Store) SaveTimeline(ctx context.Context, hash string, events []analysis.Event) (int, error) {
	if _, err := s.timeline.DeleteMany(ctx, bson.M{"book_hash": hash}); err != nil {
		return 0, fmt.Errorf("clear timeline %s: %w", hash, err)
	}
	if len(events) == 0 {
		return 0, nil
	}
	docs := make([]any, len(events))
	for i, e := range events {
		docs[i] = bson.M{
			"book_hash": hash,
			"date":      e.Date,
			"date_text": e.DateText,
			"places":    e.Places,
			"symbols":   e.Symbols,
			"scan_path": e.ScanPath,
			"snippet":   e.Snippet,
		}
	}
	res, err := s.timeline.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert timeline %s: %w", hash, err)
	}
	s.changes.Info("timeline exported", "book_hash", hash, "events", len(res.InsertedIDs))
	return len(res.InsertedIDs), nil
}
