package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const healthCheckInterval = 60 * time.Second

// HealthStatus is the latest probe result for each backing service the
// server depends on: mongo for rooms and bookings, one redis database for
// the auth cache and one for dialogue contexts.
type HealthStatus struct {
	Mongo        bool      `json:"mongo"`
	AuthCache    bool      `json:"auth_cache"`
	ContextCache bool      `json:"context_cache"`
	CheckedAt    time.Time `json:"checked_at"`
}

// Healthy reports whether every backing service answered its last probe.
func (h HealthStatus) Healthy() bool {
	return h.Mongo && h.AuthCache && h.ContextCache
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns the latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

func snapshotHealth(ctx context.Context, mongoClient *mongo.Client, authCache, contextCache *redis.Client) HealthStatus {
	status := HealthStatus{CheckedAt: time.Now()}
	if mongoClient != nil {
		status.Mongo = mongoClient.Ping(ctx, nil) == nil
	}
	if authCache != nil {
		status.AuthCache = authCache.Ping(ctx).Err() == nil
	}
	if contextCache != nil {
		status.ContextCache = contextCache.Ping(ctx).Err() == nil
	}
	return status
}

// StartHealthMonitor probes the backing services periodically and keeps the
// snapshot served by /health current. Transitions are logged once, not on
// every tick.
func StartHealthMonitor(mongoClient *mongo.Client, authCache, contextCache *redis.Client) {
	go func() {
		ticker := time.NewTicker(healthCheckInterval)
		defer ticker.Stop()

		// Assume healthy at start so only real outages are logged.
		previous := HealthStatus{Mongo: true, AuthCache: true, ContextCache: true}
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			status := snapshotHealth(ctx, mongoClient, authCache, contextCache)
			cancel()

			logTransition := func(name string, was, is bool) {
				if was == is {
					return
				}
				if is {
					GetLogger().Info("dependency recovered", zap.String("dependency", name))
				} else {
					GetLogger().Warn("dependency unreachable", zap.String("dependency", name))
				}
			}
			logTransition("mongo", previous.Mongo, status.Mongo)
			logTransition("auth cache", previous.AuthCache, status.AuthCache)
			logTransition("context cache", previous.ContextCache, status.ContextCache)
			previous = status

			healthMu.Lock()
			currentHealth = status
			healthMu.Unlock()

			<-ticker.C
		}
	}()
}
