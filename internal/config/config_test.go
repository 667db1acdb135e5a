package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8084", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, int64(1), cfg.Attendance.DefaultVenueID)
	assert.Equal(t, "current_event_day", cfg.Attendance.EventDayKey)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DEFAULT_VENUE_ID", "7")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("SETTINGS_CACHE_TTL", "30s")
	t.Setenv("DB_CONN_RETRIES", "not-a-number")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:attendance.db?cache=shared", cfg.Database.DSN)
	assert.Equal(t, int64(7), cfg.Attendance.DefaultVenueID)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 5, cfg.Database.ConnRetries)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, AttendanceConfig{Timezone: "Not/AZone"}.Location())

	loc := AttendanceConfig{Timezone: "Europe/Berlin"}.Location()
	assert.Equal(t, "Europe/Berlin", loc.String())
}
