package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newLoggerAdapter("production", &buf)

	l.Info("Booking created", map[string]interface{}{"booking_id": "b-1"})
	l.Debug("hidden", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Booking created", entry["msg"])
	assert.Equal(t, "b-1", entry["booking_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestGRPCLoggerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := newLoggerAdapter("production", &buf)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "req-42"))
	l.WarnGRPC(ctx, "slow check", map[string]interface{}{"service": "health"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "grpc", entry["transport"])
	assert.Equal(t, "warning", entry["level"])
}
