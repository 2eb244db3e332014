// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists the history of committed ledger operations.
package eventdb

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/tidelock/tide/ledger"
	"github.com/tidelock/tide/tide"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	op TEXT NOT NULL,
	pool BLOB NOT NULL,
	actor BLOB NOT NULL,
	amount INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS event_pool_index ON event(pool);`

// Event is a stored operation event with its assigned sequence number.
type Event struct {
	Seq    int64
	Time   uint64
	Op     string
	Pool   tide.Address
	Actor  tide.Address
	Amount uint64
}

// EventDB records ledger operation events in a sqlite database.
type EventDB struct {
	path string
	db   *sql.DB
}

var _ ledger.EventRecorder = (*EventDB)(nil)

// New create or open event db at given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &EventDB{path, db}, nil
}

// NewMem create an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close close the event db.
func (db *EventDB) Close() error {
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// Record implements ledger.EventRecorder.
func (db *EventDB) Record(ev *ledger.Event) error {
	_, err := db.db.Exec(
		"INSERT INTO event(ts, op, pool, actor, amount) VALUES(?,?,?,?,?)",
		int64(ev.Time), ev.Op, ev.Pool.Bytes(), ev.Actor.Bytes(), int64(ev.Amount),
	)
	return errors.Wrap(err, "failed to record event")
}

// Filter selects stored events of a pool, newest first, at most limit rows.
// A zero pool address selects all pools.
func (db *EventDB) Filter(ctx context.Context, pool tide.Address, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT seq, ts, op, pool, actor, amount FROM event"
	args := []any{}
	if !pool.IsZero() {
		query += " WHERE pool = ?"
		args = append(args, pool.Bytes())
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query events")
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			ev           Event
			ts, amount   int64
			poolB, actor []byte
		)
		if err := rows.Scan(&ev.Seq, &ts, &ev.Op, &poolB, &actor, &amount); err != nil {
			return nil, errors.Wrap(err, "failed to scan event")
		}
		ev.Time = uint64(ts)
		ev.Amount = uint64(amount)
		ev.Pool = tide.BytesToAddress(poolB)
		ev.Actor = tide.BytesToAddress(actor)
		events = append(events, &ev)
	}
	return events, rows.Err()
}
