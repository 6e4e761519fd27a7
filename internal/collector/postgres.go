package collector

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"spyglass/pkg/database"
)

const (
	databaseSizeQuery = `
		SELECT pg_size_pretty(pg_database_size(current_database())),
		       pg_database_size(current_database())`

	connectionsQuery = `
		SELECT count(*),
		       count(*) FILTER (WHERE state = 'active'),
		       count(*) FILTER (WHERE state = 'idle')
		FROM pg_stat_activity
		WHERE datname = current_database()`

	activityQuery = `
		SELECT xact_commit, xact_rollback,
		       blks_read, blks_hit,
		       tup_returned, tup_fetched, tup_inserted, tup_updated, tup_deleted
		FROM pg_stat_database
		WHERE datname = current_database()`

	userTablesQuery = `
		SELECT count(*),
		       COALESCE(sum(n_live_tup), 0),
		       COALESCE(sum(n_dead_tup), 0)
		FROM pg_stat_user_tables`

	activitiesTableQuery = `
		SELECT count(*) FROM information_schema.tables
		WHERE table_name = 'user_activities'`

	recentActivitiesQuery = `
		SELECT count(*) FROM user_activities
		WHERE created_at > NOW() - INTERVAL '24 hours'`
)

// collectPostgres runs the relational introspection battery against a
// fresh connection. The handle is closed on every exit path.
func (c *Collector) collectPostgres(ctx context.Context) BackendStatus {
	ctx, cancel := context.WithTimeout(ctx, pollBudget(c.cfg.Postgres.ConnectTimeout))
	defer cancel()

	db, err := database.Open(ctx, c.cfg.Postgres)
	if err != nil {
		return Unreachable(fmt.Sprintf("cannot connect to postgres: %v", err))
	}
	defer db.Close()

	return collectPostgresStats(ctx, db)
}

// collectPostgresStats is the battery proper, split from the
// connection step so it can run against any open handle. Individual
// query failures are embedded as an error metric; the rest of the
// battery still runs.
func collectPostgresStats(ctx context.Context, db *sql.DB) BackendStatus {
	metrics := Metrics{}
	var failures []string

	var sizePretty string
	var sizeBytes int64
	if err := db.QueryRowContext(ctx, databaseSizeQuery).Scan(&sizePretty, &sizeBytes); err != nil {
		failures = append(failures, fmt.Sprintf("database size: %v", err))
	} else {
		metrics["database_size"] = sizePretty
		metrics["database_size_bytes"] = sizeBytes
	}

	var total, active, idle int64
	if err := db.QueryRowContext(ctx, connectionsQuery).Scan(&total, &active, &idle); err != nil {
		failures = append(failures, fmt.Sprintf("connections: %v", err))
	} else {
		metrics["total_connections"] = total
		metrics["active_connections"] = active
		metrics["idle_connections"] = idle
	}

	var commits, rollbacks, blksRead, blksHit int64
	var tupReturned, tupFetched, tupInserted, tupUpdated, tupDeleted int64
	if err := db.QueryRowContext(ctx, activityQuery).Scan(
		&commits, &rollbacks, &blksRead, &blksHit,
		&tupReturned, &tupFetched, &tupInserted, &tupUpdated, &tupDeleted,
	); err != nil {
		failures = append(failures, fmt.Sprintf("activity: %v", err))
	} else {
		metrics["committed_transactions"] = commits
		metrics["rolled_back_transactions"] = rollbacks
		metrics["blocks_read"] = blksRead
		metrics["blocks_hit"] = blksHit
		metrics["tuples_returned"] = tupReturned
		metrics["tuples_fetched"] = tupFetched
		metrics["tuples_inserted"] = tupInserted
		metrics["tuples_updated"] = tupUpdated
		metrics["tuples_deleted"] = tupDeleted
		metrics["cache_hit_ratio"] = cacheHitRatio(blksHit, blksRead)
	}

	var tableCount, liveTuples, deadTuples int64
	if err := db.QueryRowContext(ctx, userTablesQuery).Scan(&tableCount, &liveTuples, &deadTuples); err != nil {
		failures = append(failures, fmt.Sprintf("user tables: %v", err))
	} else {
		metrics["user_tables"] = tableCount
		metrics["live_tuples"] = liveTuples
		metrics["dead_tuples"] = deadTuples
	}

	// The analytics schema is optional; only count recent rows when
	// the user_activities table exists.
	var activityTables int64
	if err := db.QueryRowContext(ctx, activitiesTableQuery).Scan(&activityTables); err == nil && activityTables > 0 {
		var recent int64
		if err := db.QueryRowContext(ctx, recentActivitiesQuery).Scan(&recent); err != nil {
			failures = append(failures, fmt.Sprintf("recent activities: %v", err))
		} else {
			metrics["recent_activities"] = recent
		}
	} else {
		metrics["recent_activities"] = int64(0)
	}

	if len(failures) > 0 {
		metrics["error"] = strings.Join(failures, "; ")
	}
	return ConnectedStatus(metrics)
}

// cacheHitRatio derives the buffer-cache hit percentage, 0 when no
// blocks have been touched.
func cacheHitRatio(hit, read int64) float64 {
	if hit+read <= 0 {
		return 0
	}
	ratio := float64(hit) / float64(hit+read) * 100
	return math.Round(ratio*100) / 100
}
