// Package sql implements pkg/kvs.Store over a SQL database via GORM,
// grounded on the teacher's pkg/controlplane/store (GORMStore, SQLite via
// glebarez/sqlite and PostgreSQL via gorm.io/driver/postgres, selected by
// a DatabaseType config field). Where the teacher models its control
// plane as named tables (shares, users, ...), this package models the
// generic (table, key) -> value rows the Object Engine's three logical
// tables actually need, so one table serves fs/seq/ver regardless of SQL
// dialect. Schema migration follows the teacher's own split across two
// stores: AutoMigrate for SQLite, golang-migrate over embedded SQL files
// for PostgreSQL (pkg/store/metadata/postgres/migrate.go).
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/yeetbox/yeetbox/pkg/kvs"
	"github.com/yeetbox/yeetbox/pkg/kvs/sql/migrations"
)

// Dialect selects the GORM driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config configures the SQL-backed store.
type Config struct {
	Dialect Dialect
	// DSN is the SQLite file path, or the PostgreSQL connection string.
	DSN string
}

// kvRow is the single table backing all three kvs.Table namespaces: the
// (table_id, key) pair is the composite primary key, mirroring the
// badger backend's prefixed-keyspace discipline in SQL form.
type kvRow struct {
	TableID byte   `gorm:"column:table_id;primaryKey"`
	Key     []byte `gorm:"column:key;primaryKey"`
	Value   []byte `gorm:"column:value"`
}

func (kvRow) TableName() string { return "kv_entries" }

// Store implements kvs.Store over a SQL database. It holds no lock of its
// own: a write transaction is a plain database transaction, so concurrent
// writers are isolated only by the dialect's own concurrency control.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured SQL database and migrates the schema.
//
// SQLite uses GORM's AutoMigrate, matching the teacher's control-plane
// store. PostgreSQL instead runs the embedded golang-migrate migrations
// under advisory lock, matching the teacher's NFS metadata store — a
// schema shared across multiple yeetboxd instances needs a real,
// versioned migration history rather than AutoMigrate's best-effort diff.
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case DialectSQLite, "":
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("kvs/sql: create database directory: %w", err)
		}
		dsn := cfg.DSN + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)
	case DialectPostgres:
		if err := migratePostgres(cfg.DSN); err != nil {
			return nil, err
		}
		dialector = gormpostgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("kvs/sql: unsupported dialect: %s", cfg.Dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("kvs/sql: connect: %w", err)
	}

	if cfg.Dialect == DialectSQLite || cfg.Dialect == "" {
		if err := db.AutoMigrate(&kvRow{}); err != nil {
			return nil, fmt.Errorf("kvs/sql: migrate: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// migratePostgres runs the embedded kv_entries migrations against dsn
// using golang-migrate's postgres driver, which takes out a session-level
// advisory lock for the duration of the run.
func migratePostgres(dsn string) error {
	rawDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("kvs/sql: open migration connection: %w", err)
	}
	defer rawDB.Close()

	driver, err := postgres.WithInstance(rawDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("kvs/sql: postgres migration driver: %w", err)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("kvs/sql: load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("kvs/sql: init migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("kvs/sql: run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("kvs/sql: underlying db: %w", err)
	}
	return sqlDB.Close()
}

func (s *Store) BeginRead(ctx context.Context) (kvs.ReadTxn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: true})
	if tx.Error != nil {
		return nil, fmt.Errorf("kvs/sql: begin read: %w", tx.Error)
	}
	return &readTxn{tx: tx}, nil
}

func (s *Store) BeginWrite(ctx context.Context) (kvs.WriteTxn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("kvs/sql: begin write: %w", tx.Error)
	}
	return &writeTxn{readTxn: readTxn{tx: tx}}, nil
}

type readTxn struct {
	tx *gorm.DB
}

func (r *readTxn) Get(table kvs.Table, key []byte) ([]byte, bool, error) {
	var row kvRow
	err := r.tx.Where("table_id = ? AND key = ?", byte(table), key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kvs/sql: get: %w", err)
	}
	return row.Value, true, nil
}

func (r *readTxn) Scan(table kvs.Table, prefix []byte) (kvs.Iterator, error) {
	query := r.tx.Where("table_id = ?", byte(table))
	if len(prefix) > 0 {
		query = query.Where("key >= ?", prefix)
		if upper, ok := prefixUpperBound(prefix); ok {
			query = query.Where("key < ?", upper)
		}
	}

	var rows []kvRow
	if err := query.Order("key ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("kvs/sql: scan: %w", err)
	}
	return &iterator{rows: rows, index: -1}, nil
}

func (r *readTxn) Discard() {
	r.tx.Rollback()
}

type writeTxn struct {
	readTxn
}

func (w *writeTxn) Put(table kvs.Table, key, value []byte) error {
	row := kvRow{TableID: byte(table), Key: key, Value: value}
	err := w.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "table_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("kvs/sql: put: %w", err)
	}
	return nil
}

func (w *writeTxn) Insert(table kvs.Table, key, value []byte) ([]byte, bool, error) {
	prev, had, err := w.Get(table, key)
	if err != nil {
		return nil, false, err
	}
	if err := w.Put(table, key, value); err != nil {
		return nil, false, err
	}
	return prev, had, nil
}

func (w *writeTxn) Delete(table kvs.Table, key []byte) error {
	err := w.tx.Where("table_id = ? AND key = ?", byte(table), key).Delete(&kvRow{}).Error
	if err != nil {
		return fmt.Errorf("kvs/sql: delete: %w", err)
	}
	return nil
}

func (w *writeTxn) Commit() error {
	if err := w.tx.Commit().Error; err != nil {
		return fmt.Errorf("kvs/sql: commit: %w", err)
	}
	return nil
}

type iterator struct {
	rows  []kvRow
	index int
}

func (i *iterator) Next() bool {
	i.index++
	return i.index < len(i.rows)
}

func (i *iterator) Key() []byte {
	return i.rows[i.index].Key
}

func (i *iterator) Value() ([]byte, error) {
	return i.rows[i.index].Value, nil
}

func (i *iterator) Err() error {
	return nil
}

func (i *iterator) Close() {}

// prefixUpperBound returns the smallest key that is lexicographically
// greater than every key sharing prefix, or ok=false if prefix consists
// entirely of 0xFF bytes (no finite upper bound exists).
func prefixUpperBound(prefix []byte) (upper []byte, ok bool) {
	upper = append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xFF {
			upper[i]++
			return upper[:i+1], true
		}
	}
	return nil, false
}
