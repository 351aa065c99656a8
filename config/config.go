package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tootfeed/db"
	"tootfeed/models"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrSubscriptions wraps every failure to load the subscription list
var ErrSubscriptions = errors.New("subscriptions unavailable")

const DefaultSubscriptionsPath = "./db/subscriptions.json"

// ServeConfig holds everything the serve command needs
type ServeConfig struct {
	Host              string
	Port              int
	SubscriptionsPath string
	Timeout           time.Duration
	RequestTimeout    time.Duration
	MaxInFlight       int
	Limit             int
	UserAgent         string
}

func (c ServeConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SubscriptionSource yields the current subscription list
type SubscriptionSource interface {
	Subscriptions(ctx context.Context) ([]models.Subscription, error)
	Close() error
}

// TomlSubscriptions is the layout of a TOML subscription file
type TomlSubscriptions struct {
	Subscriptions []models.Subscription `toml:"subscriptions"`
}

// IsDatabase reports whether path names an SQLite subscription store
func IsDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// OpenSource picks a subscription source by file extension. Neither source
// touches the disk until Subscriptions is called, so an unreadable list
// surfaces per request rather than at startup.
func OpenSource(path string) (SubscriptionSource, error) {
	if IsDatabase(path) {
		return &dbSource{path: path}, nil
	}
	return FileSource(path), nil
}

// FileSource re-reads the file on every call so edits apply without a restart
type FileSource string

func (f FileSource) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	return LoadSubscriptions(string(f))
}

func (f FileSource) Close() error {
	return nil
}

// dbSource connects on first use and retries the connection on later calls
// until it succeeds
type dbSource struct {
	path string

	mu     sync.Mutex
	reader *db.Reader
}

func (s *dbSource) open() (*db.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reader == nil {
		reader, err := db.NewReader(s.path)
		if err != nil {
			return nil, err
		}
		s.reader = reader
	}
	return s.reader, nil
}

func (s *dbSource) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	reader, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscriptions, err)
	}

	subs, err := reader.Subscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscriptions, err)
	}
	return subs, nil
}

func (s *dbSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	s.reader = nil
	return err
}

// LoadSubscriptions reads a JSON, YAML or TOML subscription list
func LoadSubscriptions(path string) ([]models.Subscription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: error reading subscription file: %w", ErrSubscriptions, err)
	}

	subs, err := ParseSubscriptions(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%w: error parsing %s: %w", ErrSubscriptions, path, err)
	}
	return subs, nil
}

// ParseSubscriptions decodes a subscription list. The format is picked from
// ext and defaults to JSON.
func ParseSubscriptions(data []byte, ext string) ([]models.Subscription, error) {
	var subs []models.Subscription

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &subs); err != nil {
			return nil, err
		}
	case ".toml":
		var doc TomlSubscriptions
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		subs = doc.Subscriptions
	default:
		if err := json.Unmarshal(data, &subs); err != nil {
			return nil, err
		}
	}

	if subs == nil {
		subs = []models.Subscription{}
	}
	return subs, nil
}
