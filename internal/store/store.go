// Package store is the transactional two-table store behind the note services.
// Every write runs inside Update with its tables declared up front; subscribers
// of those tables are notified once the transaction has committed.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iyunix/go-soliloquy/internal/domain"
	"github.com/iyunix/go-soliloquy/internal/live"
	"github.com/iyunix/go-soliloquy/internal/repository/chat"
	"github.com/iyunix/go-soliloquy/internal/repository/message"
)

// Options configures a Store. Zero values fall back to a fresh bus and no-op
// logging/metrics.
type Options struct {
	Logger   Logger
	Observer Observer
	Bus      *live.Bus
}

type Store struct {
	db       *gorm.DB
	bus      *live.Bus
	logger   Logger
	observer Observer
}

// Tx exposes the repositories bound to one transaction.
type Tx struct {
	Chats    chat.ChatRepository
	Messages message.MessageRepository
}

// Open opens (creating if needed) the sqlite database at path.
func Open(path string, opts Options) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access database handle: %w", err)
	}
	// a single connection serialises transactions
	sqlDB.SetMaxOpenConns(1)

	return New(db, opts)
}

// New wraps an already opened gorm database.
func New(db *gorm.DB, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.Bus == nil {
		opts.Bus = live.NewBus()
	}
	if err := registerWriteGuard(db); err != nil {
		return nil, err
	}
	return &Store{db: db, bus: opts.Bus, logger: opts.Logger, observer: opts.Observer}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

// Migrate creates or updates the chats and messages tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&domain.Chat{}, &domain.Message{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *Store) Bus() *live.Bus { return s.bus }

// Chats returns a repository for reads outside a transaction. Writes through
// it are rejected by the write guard.
func (s *Store) Chats() chat.ChatRepository { return chat.NewChatRepository(s.db) }

func (s *Store) Messages() message.MessageRepository { return message.NewMessageRepository(s.db) }

// Update runs fn in one atomic transaction that may only write to tables.
// After a successful commit every query depending on tables is invalidated.
// Errors from fn or the database are returned unchanged and roll everything back.
func (s *Store) Update(ctx context.Context, operation string, tables []live.Table, fn func(tx *Tx) error) error {
	start := time.Now()
	err := s.db.WithContext(ctx).
		Set(declaredTablesKey, newTableSet(tables)).
		Transaction(func(db *gorm.DB) error {
			return fn(bind(db))
		})
	s.observer.TransactionCompleted(operation, time.Since(start), err)

	if err != nil {
		s.logger.Debug("transaction rolled back", "operation", operation, "error", err)
		return err
	}
	s.bus.Publish(tables...)
	return nil
}

// View runs fn in a read-only transaction so that it observes one consistent snapshot.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithContext(ctx).
		Set(declaredTablesKey, newTableSet(nil)).
		Transaction(func(db *gorm.DB) error {
			return fn(bind(db))
		})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func bind(db *gorm.DB) *Tx {
	return &Tx{
		Chats:    chat.NewChatRepository(db),
		Messages: message.NewMessageRepository(db),
	}
}
