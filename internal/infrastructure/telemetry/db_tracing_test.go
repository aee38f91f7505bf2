package telemetry

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogQueryParams)
	assert.True(t, cfg.LogRowsAffected)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBName)
}

func TestRegister_Disabled(t *testing.T) {
	db, _ := newMockDB(t)

	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, plugin.Register(db))

	// No plugin installed when disabled.
	_, ok := db.Config.Plugins["otelgorm"]
	assert.False(t, ok)
}

func TestRegister_Enabled(t *testing.T) {
	db, _ := newMockDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())
	require.NoError(t, plugin.Register(db))

	assert.NotEmpty(t, db.Config.Plugins)
}

func TestRegister_EnabledQueriesStillWork(t *testing.T) {
	db, mock := newMockDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())
	require.NoError(t, plugin.Register(db))

	mock.ExpectQuery(`SELECT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewDBTracingPlugin_DefaultsSlowThreshold(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)
}
