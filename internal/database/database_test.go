package database

import (
	"context"
	"testing"

	"dailybright/internal/config"
	"dailybright/internal/models"
	"dailybright/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	cfg.DBDriver = DriverSQLite
	require.NoError(t, configurePool(db, cfg))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestDialector(t *testing.T) {
	tests := []struct {
		driver  string
		name    string
		wantErr bool
	}{
		{driver: DriverPostgres, name: "postgres"},
		{driver: DriverSQLite, name: "sqlite"},
		{driver: "mysql", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := Dialector(&config.Config{DBDriver: tt.driver, DBSQLitePath: ":memory:"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
		})
	}
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		runSQL  bool
		runAuto bool
		wantErr bool
	}{
		{name: "hybrid dev", cfg: config.Config{Env: "development", DBDriver: DriverPostgres}, runSQL: true, runAuto: true},
		{name: "hybrid prod", cfg: config.Config{Env: "production", DBDriver: DriverPostgres}, runSQL: true},
		{name: "sql only", cfg: config.Config{DBSchemaMode: "sql", DBDriver: DriverPostgres}, runSQL: true},
		{name: "auto refused in prod", cfg: config.Config{Env: "production", DBSchemaMode: "auto", DBDriver: DriverPostgres}, wantErr: true},
		{name: "auto allowed in prod", cfg: config.Config{Env: "production", DBSchemaMode: "auto", DBDriver: DriverPostgres, DBAutoMigrateAllowDestructive: true}, runAuto: true},
		{name: "sqlite always auto", cfg: config.Config{Env: "production", DBSchemaMode: "sql", DBDriver: DriverSQLite}, runAuto: true},
		{name: "unknown mode", cfg: config.Config{DBSchemaMode: "yolo", DBDriver: DriverPostgres}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.runSQL, runSQL)
			assert.Equal(t, tt.runAuto, runAuto)
		})
	}
}

func TestConnect_SQLiteAppliesSchema(t *testing.T) {
	cfg := &config.Config{Env: "test", DBDriver: DriverSQLite, DBSQLitePath: ":memory:"}
	db, err := Connect(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.DailyState{}))
	assert.True(t, db.Migrator().HasTable(&models.Entry{}))
	assert.NoError(t, Ping(context.Background(), db))

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
}

func TestRegisterQueryMetrics(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, RegisterQueryMetrics(db))
	require.NoError(t, db.AutoMigrate(&models.Prompt{}))

	before := testutil.CollectAndCount(observability.DatabaseQueryLatency)

	require.NoError(t, db.Create(&models.Prompt{Text: "What made you laugh?"}).Error)
	var got models.Prompt
	require.NoError(t, db.First(&got).Error)

	assert.Greater(t, testutil.CollectAndCount(observability.DatabaseQueryLatency), before)
}
