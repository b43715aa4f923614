package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_SECRET", "secret")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("BOOKING_LOCK_ENABLED", "")
	t.Setenv("BOOKING_LOCK_TTL", "")
	t.Setenv("PAYMENT_CURRENCY", "")
	t.Setenv("GRPC_PORT", "")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, cfg.DB.Driver)
	assert.False(t, cfg.Booking.LockEnabled)
	assert.Equal(t, 10*time.Second, cfg.Booking.LockTTL)
	assert.Equal(t, "usd", cfg.Payment.Currency)
	assert.Equal(t, 50052, cfg.GRPC.PortInt())
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_SECRET", "secret")
	t.Setenv("DB_DRIVER", DriverMemory)
	t.Setenv("BOOKING_LOCK_ENABLED", "true")
	t.Setenv("BOOKING_LOCK_TTL", "3s")
	t.Setenv("GRPC_PORT", "6000")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.DB.Driver)
	assert.True(t, cfg.Booking.LockEnabled)
	assert.Equal(t, 3*time.Second, cfg.Booking.LockTTL)
	assert.Equal(t, 6000, cfg.GRPC.PortInt())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token secret", map[string]string{"TOKEN_SECRET": ""}},
		{"unknown driver", map[string]string{"DB_DRIVER": "sqlite"}},
		{"postgres without host", map[string]string{"DB_DRIVER": DriverPostgres, "DB_HOST": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "production")
			t.Setenv("TOKEN_SECRET", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestDB_DSN(t *testing.T) {
	db := &DB{Host: "db", Port: "5432", User: "rental", Password: "pw", Name: "bikes"}
	assert.Equal(t, "host=db port=5432 user=rental password=pw dbname=bikes sslmode=disable", db.DSN())
}
