package orgsim_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "orgsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	caller := uuid.New()
	path := writeConfig(t, t.TempDir(), `
database_name: fixtures
caller_id: `+caller.String()+`
full_name_format: "L, F"
language_code: 1031
currency_code: eur
log_level: info
`)

	config, err := orgsim.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "fixtures", config.DatabaseName)
	assert.Equal(t, caller, config.CallerID)
	assert.Equal(t, uuid.Nil, config.BusinessUnitID)
	assert.Equal(t, "L, F", config.FullNameFormat)
	assert.Equal(t, 1031, config.LanguageCode)
	assert.Equal(t, "EUR", config.CurrencyCode)
	assert.NotNil(t, config.Logger)
}

func TestLoadConfigDirectory(t *testing.T) {
	dir := t.TempDir()

	config, err := orgsim.LoadConfig(dir)
	require.NoError(t, err, "a directory without orgsim.yaml falls back to defaults")
	assert.Equal(t, orgsim.DefaultFullNameFormat, config.FullNameFormat)
	assert.Equal(t, orgsim.DefaultLanguageCode, config.LanguageCode)
	assert.Equal(t, orgsim.DefaultCurrencyCode, config.CurrencyCode)

	writeConfig(t, dir, "database_name: from_directory\n")
	config, err = orgsim.LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "from_directory", config.DatabaseName)
}

func TestLoadConfigEnvironment(t *testing.T) {
	org := uuid.New()
	t.Setenv("ORGSIM_DATABASE_NAME", "from_env")
	t.Setenv("ORGSIM_ORGANIZATION_ID", org.String())
	t.Setenv("ORGSIM_LANGUAGE_CODE", "2057")

	config, err := orgsim.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from_env", config.DatabaseName)
	assert.Equal(t, org, config.OrganizationID)
	assert.Equal(t, 2057, config.LanguageCode)

	db, err := orgsim.Open(config)
	require.NoError(t, err)
	assert.Equal(t, org, db.OrganizationID)
}

func TestLoadConfigInvalidID(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "business_unit_id: not-a-uuid\n")

	_, err := orgsim.LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, orgsim.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "business_unit_id")
}
