package collector

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"spyglass/pkg/valkey"
)

// DefaultInfoFields lists the INFO fields exported as metrics. The
// available set varies across server versions, so fields the server
// does not report are simply skipped.
var DefaultInfoFields = []string{
	"redis_version",
	"uptime_in_seconds",
	"uptime_in_days",
	"connected_clients",
	"blocked_clients",
	"used_memory",
	"used_memory_human",
	"used_memory_peak",
	"used_memory_peak_human",
	"total_connections_received",
	"total_commands_processed",
	"instantaneous_ops_per_sec",
	"keyspace_hits",
	"keyspace_misses",
}

var keyspaceDB = regexp.MustCompile(`^db\d+$`)

// collectValkey runs the cache introspection battery. A connect
// failure is Unreachable; a command failing after connect embeds an
// error metric and keeps whatever was already collected.
func (c *Collector) collectValkey(ctx context.Context) BackendStatus {
	ctx, cancel := context.WithTimeout(ctx, pollBudget(c.cfg.Valkey.DialTimeout))
	defer cancel()

	client, err := valkey.Open(ctx, c.cfg.Valkey)
	if err != nil {
		return Unreachable(fmt.Sprintf("cannot connect to valkey: %v", err))
	}
	defer client.Close()

	metrics := Metrics{}
	var failures []string

	raw, err := client.Info(ctx).Result()
	if err != nil {
		failures = append(failures, fmt.Sprintf("info: %v", err))
	} else {
		info := parseInfo(raw)
		for _, field := range c.infoFields {
			if v, ok := info[field]; ok {
				metrics[field] = coerceScalar(v)
			}
		}
		for key, value := range info {
			if keyspaceDB.MatchString(key) {
				metrics["keyspace_"+key] = value
			}
		}
		metrics["hit_ratio"] = hitRatio(info["keyspace_hits"], info["keyspace_misses"])
	}

	if size, err := client.DBSize(ctx).Result(); err != nil {
		failures = append(failures, fmt.Sprintf("dbsize: %v", err))
	} else {
		metrics["database_size"] = size
	}

	if len(failures) > 0 {
		metrics["error"] = strings.Join(failures, "; ")
	}
	return ConnectedStatus(metrics)
}

// parseInfo splits raw INFO output into key/value pairs, dropping
// section headers and blank lines.
func parseInfo(raw string) map[string]string {
	info := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		info[key] = value
	}
	return info
}

// coerceScalar narrows an INFO value to int, float, or string.
func coerceScalar(v string) any {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

// hitRatio derives the keyspace hit percentage, 0 when no lookups
// have happened yet.
func hitRatio(hitsRaw, missesRaw string) float64 {
	hits, _ := strconv.ParseFloat(hitsRaw, 64)
	misses, _ := strconv.ParseFloat(missesRaw, 64)
	if hits+misses <= 0 {
		return 0
	}
	return math.Round(hits/(hits+misses)*100*100) / 100
}
