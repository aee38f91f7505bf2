package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace_Query(t *testing.T) {
	l, logs := newObservedLogger()
	gl := NewGormLogger(l, gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM orders", 3
	}, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "SQL Query", entry.Message)
	assert.Equal(t, "SELECT * FROM orders", entry.ContextMap()["sql"])
	assert.Equal(t, int64(3), entry.ContextMap()["rows"])
}

func TestGormLogger_Trace_Error(t *testing.T) {
	l, logs := newObservedLogger()
	gl := NewGormLogger(l, gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO orders", 0
	}, errors.New("connection reset"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "SQL Error", logs.All()[0].Message)
}

func TestGormLogger_Trace_IgnoresRecordNotFound(t *testing.T) {
	l, logs := newObservedLogger()
	gl := NewGormLogger(l, gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM orders WHERE id = ?", 0
	}, gormlogger.ErrRecordNotFound)

	assert.Equal(t, 0, logs.Len())
}

func TestGormLogger_Trace_SlowQuery(t *testing.T) {
	l, logs := newObservedLogger()
	gl := NewGormLogger(l, gormlogger.Warn, WithSlowThreshold(time.Millisecond))

	gl.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT * FROM sales_journals", 10
	}, nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
}

func TestGormLogger_Trace_Silent(t *testing.T) {
	l, logs := newObservedLogger()
	gl := NewGormLogger(l, gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	assert.Equal(t, 0, logs.Len())
}

func TestGormLogger_Trace_RequestIDFromContext(t *testing.T) {
	l, logs := newObservedLogger()
	gl := NewGormLogger(l, gormlogger.Info)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-db")
	gl.Trace(ctx, time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-db", logs.All()[0].ContextMap()["request_id"])
}

func TestGormLogger_LogMode(t *testing.T) {
	l, _ := newObservedLogger()
	gl := NewGormLogger(l, gormlogger.Warn)

	derived := gl.LogMode(gormlogger.Silent)
	require.NotSame(t, gormlogger.Interface(gl), derived)
	assert.Equal(t, gormlogger.Warn, gl.logLevel)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything"))
}
