// Package metrics is the fire-and-forget deployment-status pipeline:
// atomic per-(deployment,label,status) counters and per-client
// active-label tracking, stored in the Redis logical database
// config.RedisMetricsDB reserves for it.
package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Status is one of the three recognized counter statuses.
type Status string

const (
	StatusDeploymentSucceeded Status = "DeploymentSucceeded"
	StatusDeploymentFailed    Status = "DeploymentFailed"
	StatusDownloaded          Status = "Downloaded"
	statusActive              Status = "Active"
)

// Store records and serves deployment metrics. A nil client puts it in
// a disabled state: every recording method becomes a silent no-op, and
// reads return empty results.
type Store struct {
	client *redis.Client

	// ready gates every operation behind a one-time database-select/ping;
	// concurrent ops started before it resolves all wait on the same
	// setup attempt.
	once     sync.Once
	ready    chan struct{}
	setupErr error
}

// New wraps client, which must already be bound to the metrics logical
// database (see config.RedisMetricsDB). Passing nil yields a disabled store.
func New(client *redis.Client) *Store {
	s := &Store{client: client, ready: make(chan struct{})}
	if client == nil {
		close(s.ready)
		return s
	}
	return s
}

func (s *Store) Enabled() bool { return s.client != nil }

func (s *Store) awaitReady(ctx context.Context) error {
	s.once.Do(func() {
		if err := s.client.Ping(ctx).Err(); err != nil {
			s.setupErr = err
			slog.Warn("metrics store setup failed, metrics will be dropped", "error", err)
		}
		close(s.ready)
	})
	<-s.ready
	return s.setupErr
}

func labelsKey(deploymentKey string) string  { return "deploymentKeyLabels:" + deploymentKey }
func clientsKey(deploymentKey string) string { return "deploymentKeyClients:" + deploymentKey }
func field(label string, status Status) string { return label + ":" + string(status) }

// IncrementLabelStatusCount bumps field L:S in hash deploymentKeyLabels:D
// by one, creating it on first increment.
func (s *Store) IncrementLabelStatusCount(ctx context.Context, deploymentKey, label string, status Status) {
	if !s.Enabled() {
		return
	}
	if err := s.awaitReady(ctx); err != nil {
		return
	}
	if err := s.client.HIncrBy(ctx, labelsKey(deploymentKey), field(label, status), 1).Err(); err != nil {
		slog.Warn("metrics increment failed", "deploymentKey", deploymentKey, "label", label, "status", status, "error", err)
	}
}

// RecordUpdate is the new-SDK report-deploy path: increment the current
// label's Active and DeploymentSucceeded counters and, if a previous
// (deployment, label) pair is given, decrement its Active counter — all
// three ops over one pipeline.
func (s *Store) RecordUpdate(ctx context.Context, currentDeploymentKey, currentLabel, prevDeploymentKey, prevLabel string) {
	if !s.Enabled() {
		return
	}
	if err := s.awaitReady(ctx); err != nil {
		return
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, labelsKey(currentDeploymentKey), field(currentLabel, statusActive), 1)
		p.HIncrBy(ctx, labelsKey(currentDeploymentKey), field(currentLabel, StatusDeploymentSucceeded), 1)
		if prevDeploymentKey != "" && prevLabel != "" {
			p.HIncrBy(ctx, labelsKey(prevDeploymentKey), field(prevLabel, statusActive), -1)
		}
		return nil
	})
	if err != nil {
		slog.Warn("metrics recordUpdate failed", "deploymentKey", currentDeploymentKey, "error", err)
	}
}

// UpdateActiveAppForClient is the legacy report-deploy path: set
// clientId's active label in deploymentKeyClients:D, increment
// toLabel:Active, and decrement fromLabel:Active if one is given and it
// differs from toLabel.
func (s *Store) UpdateActiveAppForClient(ctx context.Context, deploymentKey, clientID, toLabel, fromLabel string) {
	if !s.Enabled() {
		return
	}
	if err := s.awaitReady(ctx); err != nil {
		return
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, clientsKey(deploymentKey), clientID, toLabel)
		p.HIncrBy(ctx, labelsKey(deploymentKey), field(toLabel, statusActive), 1)
		if fromLabel != "" && fromLabel != toLabel {
			p.HIncrBy(ctx, labelsKey(deploymentKey), field(fromLabel, statusActive), -1)
		}
		return nil
	})
	if err != nil {
		slog.Warn("metrics active-app update failed", "deploymentKey", deploymentKey, "error", err)
	}
}

// GetCurrentActiveLabel reads clientID's current active label for
// deploymentKey, and whether any record exists.
func (s *Store) GetCurrentActiveLabel(ctx context.Context, deploymentKey, clientID string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}
	if err := s.awaitReady(ctx); err != nil {
		return "", false
	}
	label, err := s.client.HGet(ctx, clientsKey(deploymentKey), clientID).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("metrics active-label read failed", "deploymentKey", deploymentKey, "error", err)
		}
		return "", false
	}
	return label, true
}

// RemoveDeploymentKeyClientActiveLabel deletes clientID's field from
// deploymentKeyClients:D.
func (s *Store) RemoveDeploymentKeyClientActiveLabel(ctx context.Context, deploymentKey, clientID string) {
	if !s.Enabled() {
		return
	}
	if err := s.awaitReady(ctx); err != nil {
		return
	}
	if err := s.client.HDel(ctx, clientsKey(deploymentKey), clientID).Err(); err != nil {
		slog.Warn("metrics active-label removal failed", "deploymentKey", deploymentKey, "error", err)
	}
}

// LabelMetrics is one label's tallied counters.
type LabelMetrics struct {
	Label               string `json:"label"`
	Active              int    `json:"active"`
	DeploymentSucceeded int    `json:"deployment_succeeded,omitempty"`
	DeploymentFailed    int    `json:"deployment_failed,omitempty"`
	Downloaded          int    `json:"downloaded,omitempty"`
}

// GetMetricsWithDeploymentKey reads the whole deploymentKeyLabels:D hash
// and coerces every field into its (label, status, count) components. A
// disabled store or a Redis error yields an empty slice.
func (s *Store) GetMetricsWithDeploymentKey(ctx context.Context, deploymentKey string) []LabelMetrics {
	if !s.Enabled() {
		return nil
	}
	if err := s.awaitReady(ctx); err != nil {
		return nil
	}
	raw, err := s.client.HGetAll(ctx, labelsKey(deploymentKey)).Result()
	if err != nil {
		slog.Warn("metrics read failed", "deploymentKey", deploymentKey, "error", err)
		return nil
	}

	byLabel := map[string]*LabelMetrics{}
	for f, value := range raw {
		label, status, ok := splitField(f)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		m, ok := byLabel[label]
		if !ok {
			m = &LabelMetrics{Label: label}
			byLabel[label] = m
		}
		switch Status(status) {
		case statusActive:
			m.Active = n
		case StatusDeploymentSucceeded:
			m.DeploymentSucceeded = n
		case StatusDeploymentFailed:
			m.DeploymentFailed = n
		case StatusDownloaded:
			m.Downloaded = n
		}
	}

	out := make([]LabelMetrics, 0, len(byLabel))
	for _, m := range byLabel {
		out = append(out, *m)
	}
	return out
}

// ClearMetricsForDeploymentKey deletes both the labels and clients hashes
// for deploymentKey.
func (s *Store) ClearMetricsForDeploymentKey(ctx context.Context, deploymentKey string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.awaitReady(ctx); err != nil {
		return err
	}
	return s.client.Del(ctx, labelsKey(deploymentKey), clientsKey(deploymentKey)).Err()
}

func splitField(f string) (label, status string, ok bool) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == ':' {
			return f[:i], f[i+1:], true
		}
	}
	return "", "", false
}
