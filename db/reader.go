package db

import (
	"context"
	"fmt"

	"database/sql"

	"tootfeed/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Reader lists subscriptions stored in an SQLite database
type Reader struct {
	db *sql.DB
}

func NewReader(database string) (*Reader, error) {
	db, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return &Reader{db: db}, nil
}

// Subscriptions returns every stored subscription in insertion order
func (reader *Reader) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("account", "url").From("subscriptions").OrderBy("id").Asc()

	sql, args := sb.Build()
	log.WithFields(log.Fields{
		"sql":  sql,
		"args": args,
	}).Debug("Listing subscriptions")

	rows, err := reader.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	subscriptions := []models.Subscription{}
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.Account, &sub.URL); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		subscriptions = append(subscriptions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return subscriptions, nil
}

func (reader *Reader) Close() error {
	return reader.db.Close()
}
