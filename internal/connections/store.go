// Package connections stores named target-database connection records so
// callers can reference a saved connection by id instead of sending inline
// credentials on every question.
package connections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/askdb/askdb/internal/target"
)

var ErrNotFound = errors.New("connection not found")

const (
	recordPrefix = "askdb:connection:"
	indexKey     = "askdb:connections"
)

type Record struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Target    target.Config `json:"target"`
	CreatedAt time.Time     `json:"created_at"`
}

type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Save persists the record, minting an id when absent. Saving an existing id
// overwrites it.
func (s *Store) Save(ctx context.Context, record Record) (Record, error) {
	if record.Name == "" {
		return Record{}, fmt.Errorf("connection name is required")
	}
	if record.Target.Driver != target.DriverPostgres && record.Target.Driver != target.DriverDuckDB {
		return Record{}, fmt.Errorf("unsupported driver %q", record.Target.Driver)
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return Record{}, fmt.Errorf("marshal connection record: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordPrefix+record.ID, payload, 0)
	pipe.SAdd(ctx, indexKey, record.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return Record{}, fmt.Errorf("save connection %q: %w", record.ID, err)
	}
	return record, nil
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	raw, err := s.client.Get(ctx, recordPrefix+id).Result()
	if err == redis.Nil {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get connection %q: %w", id, err)
	}
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return Record{}, fmt.Errorf("decode connection %q: %w", id, err)
	}
	return record, nil
}

// List returns all records ordered by name. Index entries whose record has
// vanished are skipped, not treated as errors.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		record, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, recordPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("delete connection %q: %w", id, err)
	}
	if err := s.client.SRem(ctx, indexKey, id).Err(); err != nil {
		return fmt.Errorf("unindex connection %q: %w", id, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}
