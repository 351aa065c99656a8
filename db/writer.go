package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"database/sql"

	"tootfeed/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned when removing a subscription that does not exist
var ErrNotFound = errors.New("subscription not found")

// Writer adds and removes subscriptions
type Writer struct {
	db *sql.DB
}

func NewWriter(database string) (*Writer, error) {
	db, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return &Writer{db: db}, nil
}

// Add stores a subscription. Adding a url that is already subscribed
// replaces its account name.
func (writer *Writer) Add(ctx context.Context, sub models.Subscription) error {
	if sub.Account == "" || sub.URL == "" {
		return fmt.Errorf("account and url are required")
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("subscriptions").
		Cols("account", "url", "created_at").
		Values(sub.Account, sub.URL, time.Now().Unix())
	ib.SQL("ON CONFLICT(url) DO UPDATE SET account = excluded.account")

	sql, args := ib.Build()
	log.WithFields(log.Fields{
		"account": sub.Account,
		"url":     sub.URL,
	}).Info("Adding subscription")

	if _, err := writer.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}
	return nil
}

// Remove deletes every subscription whose account or url matches key
func (writer *Writer) Remove(ctx context.Context, key string) (int64, error) {
	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom("subscriptions").Where(del.Or(
		del.Equal("account", key),
		del.Equal("url", key),
	))

	sql, args := del.Build()
	log.WithField("key", key).Info("Removing subscription")

	res, err := writer.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete error: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return n, nil
}

func (writer *Writer) Close() error {
	return writer.db.Close()
}
