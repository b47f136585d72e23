package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const notifyChannel = "documents"

const listenerMinReconnect = time.Second * 10
const listenerMaxReconnect = time.Minute

// Postgres is a Store backed by a single documents table. Compare-and-swap
// runs as a conditional UPDATE; the change feed rides LISTEN/NOTIFY, so every
// replica connected to the same database sees every commit.
type Postgres struct {
	db  *sql.DB
	dsn string
}

// NewPostgres returns a Postgres store. The DSN is needed a second time for
// the LISTEN connection; pq listeners cannot share the *sql.DB pool.
func NewPostgres(db *sql.DB, dsn string) *Postgres {
	return &Postgres{db: db, dsn: dsn}
}

// Get returns the document at key, or ErrNotFound
func (p *Postgres) Get(ctx context.Context, key string) (*Document, error) {
	const query = `
SELECT value, version
FROM documents
WHERE key = $1`

	doc := &Document{Key: key}
	row := p.db.QueryRowContext(ctx, query, key)
	if err := row.Scan(&doc.Value, &doc.Version); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return doc, nil
}

// Put writes value at key with compare-and-swap semantics on version
func (p *Postgres) Put(ctx context.Context, key string, value json.RawMessage, version int64) (int64, error) {
	if version == 0 {
		const insert = `
INSERT INTO documents (key, value, version)
VALUES ($1, $2, 1)
ON CONFLICT (key) DO NOTHING`

		res, err := p.db.ExecContext(ctx, insert, key, []byte(value))
		if err != nil {
			return 0, err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}

		if rows == 0 {
			return 0, ErrVersionConflict
		}

		return 1, p.notify(ctx, key)
	}

	const update = `
UPDATE documents
SET value = $2, version = version + 1, updated = now()
WHERE key = $1
  AND version = $3`

	res, err := p.db.ExecContext(ctx, update, key, []byte(value), version)
	if err != nil {
		return 0, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if rows == 0 {
		// disambiguate a stale version from a missing document
		if _, err := p.Get(ctx, key); err != nil {
			return 0, err
		}

		return 0, ErrVersionConflict
	}

	return version + 1, p.notify(ctx, key)
}

func (p *Postgres) notify(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, key)
	return err
}

// List returns all documents under prefix, ordered by key
func (p *Postgres) List(ctx context.Context, prefix string) ([]*Document, error) {
	const query = `
SELECT key, value, version
FROM documents
WHERE key LIKE $1
ORDER BY key`

	rows, err := p.db.QueryContext(ctx, query, likePrefix(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*Document, 0)
	for rows.Next() {
		doc := &Document{}
		if err := rows.Scan(&doc.Key, &doc.Value, &doc.Version); err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Subscribe streams change events under prefix until ctx is canceled
func (p *Postgres) Subscribe(ctx context.Context, prefix string) (<-chan Event, error) {
	listener := pq.NewListener(p.dsn, listenerMinReconnect, listenerMaxReconnect, func(event pq.ListenerEventType, err error) {
		if err != nil {
			logrus.WithError(err).Warn("document listener event")
		}
	})

	if err := listener.Listen(notifyChannel); err != nil {
		_ = listener.Close()
		return nil, err
	}

	events := make(chan Event, subscriberBuffer)
	go func() {
		defer func() {
			_ = listener.Close()
			close(events)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				if n == nil {
					// reconnect; the listener re-establishes itself
					continue
				}

				key := n.Extra
				if !strings.HasPrefix(key, prefix) {
					continue
				}

				doc, err := p.Get(ctx, key)
				if err != nil {
					if ctx.Err() == nil {
						logrus.WithError(err).WithField("key", key).Warn("could not load notified document")
					}
					continue
				}

				select {
				case events <- Event{Key: doc.Key, Value: doc.Value, Version: doc.Version}:
				default:
					logrus.WithField("key", key).Warn("dropping event for slow subscriber")
				}
			}
		}
	}()

	return events, nil
}

// likePrefix escapes LIKE metacharacters so a prefix is matched literally
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
