// ABOUTME: Aggregated endpoint usage statistics across users
// ABOUTME: Backs the usage metrics endpoint with per-endpoint totals

package store

import (
	"context"
	"fmt"
	"strings"
)

// UsageFilter narrows usage statistics.
type UsageFilter struct {
	UserKey *string // only this user's counters
	Method  *string // only endpoints called with this HTTP method
	Limit   int     // max endpoints returned, 0 means all
}

// EndpointUsage is the combined call count of one endpoint.
type EndpointUsage struct {
	Endpoint string `json:"endpoint"`
	Count    uint64 `json:"count"`
	Users    int    `json:"users"`
}

// UsageStats summarizes endpoint usage, busiest endpoints first.
type UsageStats struct {
	TotalRequests uint64          `json:"total_requests"`
	Endpoints     []EndpointUsage `json:"endpoints"`
}

// UsageStore reports aggregated endpoint usage.
type UsageStore interface {
	GetUsageStats(ctx context.Context, filter UsageFilter) (*UsageStats, error)
}

// GetUsageStats returns aggregated usage statistics with optional filters.
func (s *SQLiteStore) GetUsageStats(ctx context.Context, filter UsageFilter) (*UsageStats, error) {
	query := `
		SELECT endpoint, SUM(count) AS total, COUNT(DISTINCT user_key) AS users
		FROM endpoint_usage
		WHERE 1=1
	`
	args := []any{}

	if filter.UserKey != nil {
		query += " AND user_key = ?"
		args = append(args, *filter.UserKey)
	}
	if filter.Method != nil {
		query += " AND endpoint LIKE ?"
		args = append(args, strings.ToUpper(*filter.Method)+" %")
	}
	query += " GROUP BY endpoint ORDER BY total DESC, endpoint ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying usage stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := &UsageStats{Endpoints: []EndpointUsage{}}
	for rows.Next() {
		var e EndpointUsage
		var total int64
		if err := rows.Scan(&e.Endpoint, &total, &e.Users); err != nil {
			return nil, fmt.Errorf("scanning usage row: %w", err)
		}
		e.Count = uint64(total)
		stats.TotalRequests += e.Count
		stats.Endpoints = append(stats.Endpoints, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating usage rows: %w", err)
	}

	return stats, nil
}

// Ensure SQLiteStore implements UsageStore interface.
var _ UsageStore = (*SQLiteStore)(nil)
