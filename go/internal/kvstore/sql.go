package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"
	_ "modernc.org/sqlite"

	"github.com/mcdev12/nexora/go/internal/sqlutil"
)

// Dialect is the database/sql driver name backing a SQL store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectPgx      Dialect = "pgx"
)

// NotifyChannel is the Postgres LISTEN/NOTIFY channel carrying key changes.
const NotifyChannel = "nexora_kv"

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB,
	updated_at INTEGER NOT NULL
)`
	postgresSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      BYTEA,
	updated_at BIGINT NOT NULL
)`
	upsertEntry = `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	deleteEntry = `DELETE FROM kv_entries WHERE key = ?`
	selectEntry = `SELECT value FROM kv_entries WHERE key = ?`
	selectKeys  = `SELECT key FROM kv_entries ORDER BY key`
	notifyEntry = `SELECT pg_notify(?, ?)`
)

// SQL stores entries in a kv_entries table on SQLite or Postgres.
// On Postgres every write is announced with pg_notify so other processes see it.
type SQL struct {
	db         *sql.DB
	dialect    Dialect
	clock      clockwork.Clock
	hub        *hub
	instanceID string

	listener *pq.Listener
	done     chan struct{}
	wg       sync.WaitGroup
	closeMu  sync.Mutex
	closed   bool
}

// OpenSQL connects with driver ("sqlite", "postgres" or "pgx") and creates the table.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQL, error) {
	o := buildOptions(opts)
	dialect := Dialect(driver)

	switch dialect {
	case DialectSQLite, DialectPostgres, DialectPgx:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	s := &SQL{
		db:         db,
		dialect:    dialect,
		clock:      o.clock,
		hub:        newHub(),
		instanceID: uuid.New().String(),
		done:       make(chan struct{}),
	}

	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if s.isPostgres() {
		if err := s.listen(dsn); err != nil {
			db.Close()
			return nil, err
		}
	}

	log.Info().Str("driver", driver).Str("instance_id", s.instanceID).Msg("sql store opened")
	return s, nil
}

func (s *SQL) isPostgres() bool {
	return s.dialect == DialectPostgres || s.dialect == DialectPgx
}

func (s *SQL) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	schema := postgresSchema
	if s.dialect == DialectSQLite {
		// A single connection keeps SQLite writers from tripping over each other.
		s.db.SetMaxOpenConns(1)
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
			return fmt.Errorf("failed to set busy timeout: %w", err)
		}
		schema = sqliteSchema
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create kv_entries table: %w", err)
	}
	return nil
}

func (s *SQL) query(q string) string {
	if s.isPostgres() {
		return sqlutil.Rebind(q)
	}
	return q
}

// kvQueries binds the write statements to a transaction.
type kvQueries struct {
	tx    *sql.Tx
	store *SQL
}

func (q *kvQueries) upsert(ctx context.Context, key string, value []byte, at time.Time) error {
	if value == nil {
		value = []byte{}
	}
	_, err := q.tx.ExecContext(ctx, q.store.query(upsertEntry), key, value, at.UnixMilli())
	return err
}

func (q *kvQueries) delete(ctx context.Context, key string) (bool, error) {
	res, err := q.tx.ExecContext(ctx, q.store.query(deleteEntry), key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// notify is delivered by Postgres on commit, so rolled back writes are never announced.
func (q *kvQueries) notify(ctx context.Context, key string) error {
	if !q.store.isPostgres() {
		return nil
	}
	_, err := q.tx.ExecContext(ctx, q.store.query(notifyEntry), NotifyChannel, q.store.instanceID+"|"+key)
	return err
}

func (s *SQL) newQueries(tx *sql.Tx) *kvQueries {
	return &kvQueries{tx: tx, store: s}
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var value pqtype.NullRawMessage
	err := s.db.QueryRowContext(ctx, s.query(selectEntry), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if !value.Valid {
		return nil, ErrNotFound
	}
	return cloneBytes(value.RawMessage), nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	now := s.clock.Now()
	err := sqlutil.Run(ctx, s.db, s.newQueries, func(q *kvQueries) error {
		if err := q.upsert(ctx, key, value, now); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", key, err)
		}
		return q.notify(ctx, key)
	})
	if err != nil {
		return err
	}

	s.hub.publish(Change{Key: key, Origin: OriginLocal, At: now})
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	var deleted bool
	err := sqlutil.Run(ctx, s.db, s.newQueries, func(q *kvQueries) error {
		var err error
		deleted, err = q.delete(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		if !deleted {
			return nil
		}
		return q.notify(ctx, key)
	})
	if err != nil {
		return err
	}

	if deleted {
		s.hub.publish(Change{Key: key, Origin: OriginLocal, At: s.clock.Now()})
	}
	return nil
}

func (s *SQL) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, selectKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQL) Subscribe(fn func(Change)) func() {
	return s.hub.Subscribe(fn)
}

// listen opens a lib/pq listener on NotifyChannel. The pq listener speaks the
// plain Postgres protocol, so it serves the pgx driver's DSN as well.
func (s *SQL) listen(dsn string) error {
	s.listener = pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn().Err(err).Int("event", int(ev)).Msg("store listener event")
		}
	})
	if err := s.listener.Listen(NotifyChannel); err != nil {
		s.listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", NotifyChannel, err)
	}

	s.wg.Add(1)
	go s.receive()
	return nil
}

func (s *SQL) receive() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			// nil is sent after a reconnect; anything may have changed while we were away.
			if n == nil {
				log.Info().Msg("store listener reconnected")
				continue
			}
			origin, key, found := strings.Cut(n.Extra, "|")
			if !found || origin == s.instanceID {
				continue
			}
			s.hub.publish(Change{Key: key, Origin: OriginExternal, At: s.clock.Now()})
		case <-time.After(90 * time.Second):
			go func() {
				if err := s.listener.Ping(); err != nil {
					log.Warn().Err(err).Msg("store listener ping failed")
				}
			}()
		}
	}
}

// Close stops the listener and closes the pool.
func (s *SQL) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return s.db.Close()
}
