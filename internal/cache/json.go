package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// FetchFunc represents a function that fetches data from an external source
type FetchFunc[T any] func(ctx context.Context) (T, error)

// GetJSON decodes the payload stored under key into T.
// A payload that no longer decodes is treated as a miss.
func GetJSON[T any](s *Store, key string) (T, bool) {
	var result T
	if s == nil {
		return result, false
	}

	data, ok := s.Get(key)
	if !ok {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		slog.Warn("Failed to unmarshal cached data, will refetch", "key", key, "error", err)
		var zero T
		return zero, false
	}
	return result, true
}

// SetJSON encodes value and stores it under key. Encoding failures are logged.
func SetJSON[T any](s *Store, key string, value T) {
	if s == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("Failed to marshal data for caching", "key", key, "error", err)
		return
	}
	s.Set(key, data)
}

// GetOrFetch retrieves data from cache or fetches it using the provided function.
// It returns the data, whether it came from cache, and the fetch error if any.
// A nil Store always fetches.
func GetOrFetch[T any](ctx context.Context, s *Store, key string, fetchFunc FetchFunc[T]) (T, bool, error) {
	if cached, ok := GetJSON[T](s, key); ok {
		return cached, true, nil
	}

	slog.Debug("Cache miss, fetching data", "key", key)
	data, err := fetchFunc(ctx)
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("failed to fetch data: %w", err)
	}

	SetJSON(s, key, data)
	return data, false, nil
}
