// internal/repository/sqlstore/kv_sql.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"novapay-wallet/internal/repository"
	"novapay-wallet/pkg/db"
)

// Schema creates the single table backing the namespace. It is valid for both
// SQLite and PostgreSQL.
const Schema = `CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// KVStore implements repository.KVStore on a SQL database through sqlx.
type KVStore struct {
	conn       *sqlx.DB
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc

	selectQuery    string
	selectForWrite string
	upsertQuery    string
	deleteQuery    string
}

// NewKVStore creates a store on conn. Placeholders are rebound for the
// connection's driver; PostgreSQL additionally locks the row during Update.
func NewKVStore(conn *sqlx.DB) *KVStore {
	selectQuery := conn.Rebind(`SELECT value FROM kv_store WHERE key = ?`)
	selectForWrite := selectQuery
	if conn.DriverName() == "postgres" {
		selectForWrite += " FOR UPDATE"
	}
	return &KVStore{
		conn:           conn,
		beginTx:        db.BeginTx,
		commitTx:       db.CommitTx,
		rollbackTx:     db.RollbackTx,
		selectQuery:    selectQuery,
		selectForWrite: selectForWrite,
		upsertQuery: conn.Rebind(`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		deleteQuery: conn.Rebind(`DELETE FROM kv_store WHERE key = ?`),
	}
}

var _ repository.KVStore = (*KVStore)(nil)

// Migrate creates the kv_store table if it does not exist.
func (s *KVStore) Migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.get(ctx, s.conn, s.selectQuery, key)
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.put(ctx, s.conn, key, value)
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, s.deleteQuery, key); err != nil {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}

// Update reads and rewrites key inside one database transaction.
func (s *KVStore) Update(ctx context.Context, key string, fn repository.UpdateFunc) error {
	txController, err := s.beginTx(ctx, s.conn)
	if err != nil {
		return fmt.Errorf("update: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("update: transaction controller does not implement DBExecutor")
	}

	current, found, err := s.get(ctx, txExecutor, s.selectForWrite, key)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	if err := s.put(ctx, txExecutor, key, next); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return fmt.Errorf("update: failed to commit transaction: %w", err)
	}
	return nil
}

func (s *KVStore) Close() error {
	return s.conn.Close()
}

func (s *KVStore) get(ctx context.Context, q repository.DBExecutor, query, key string) (string, bool, error) {
	var value string
	err := q.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	return value, true, nil
}

func (s *KVStore) put(ctx context.Context, q repository.DBExecutor, key, value string) error {
	if _, err := q.ExecContext(ctx, s.upsertQuery, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set key '%s': %w", key, err)
	}
	return nil
}
