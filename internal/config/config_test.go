package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[database]
host = "localhost"
port = 5432
user = "school"
password = "secret"
dbname = "driving_school"

[student_service]
url = "http://students:8080"

[catalog_service]
url = "http://catalog:8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 120, cfg.Payments.HoldMinutes)
	assert.Equal(t, "@every 30s", cfg.Sweeper.HoldsSchedule)
	assert.Equal(t, 3, cfg.Database.SerializableRetries)
	assert.Equal(t, "host=localhost port=5432 user=school password=secret dbname=driving_school sslmode=disable",
		cfg.Database.DSN())
}

func TestLoad_StripeRequiresSecrets(t *testing.T) {
	path := writeConfig(t, `
[database]
host = "localhost"
dbname = "driving_school"

[stripe]
enabled = true

[student_service]
url = "http://students:8080"

[catalog_service]
url = "http://catalog:8080"
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
