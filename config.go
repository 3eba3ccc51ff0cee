package orgsim

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/orgsim/orgsim/logger"
	"github.com/spf13/viper"
)

const (
	configFileName  = "orgsim"
	configFileType  = "yaml"
	configEnvPrefix = "ORGSIM"

	cfgKeyDatabaseName       = "database_name"
	cfgKeyCallerID           = "caller_id"
	cfgKeyCallerOnBehalfOfID = "caller_on_behalf_of_id"
	cfgKeyBusinessUnitID     = "business_unit_id"
	cfgKeyOrganizationID     = "organization_id"
	cfgKeyFullNameFormat     = "full_name_format"
	cfgKeyLanguageCode       = "language_code"
	cfgKeyCurrencyCode       = "currency_code"
	cfgKeyLogLevel           = "log_level"
)

// LoadConfig reads a database config from a yaml file and ORGSIM_ prefixed
// environment variables. path is either a config file or a directory
// searched for orgsim.yaml, an empty path reads the environment only and a
// missing orgsim.yaml in a directory is not an error
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyDatabaseName, "")
	v.SetDefault(cfgKeyCallerID, "")
	v.SetDefault(cfgKeyCallerOnBehalfOfID, "")
	v.SetDefault(cfgKeyBusinessUnitID, "")
	v.SetDefault(cfgKeyOrganizationID, "")
	v.SetDefault(cfgKeyFullNameFormat, DefaultFullNameFormat)
	v.SetDefault(cfgKeyLanguageCode, DefaultLanguageCode)
	v.SetDefault(cfgKeyCurrencyCode, DefaultCurrencyCode)
	v.SetDefault(cfgKeyLogLevel, logger.Warn.String())
	v.SetEnvPrefix(configEnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		if ext := filepath.Ext(path); ext != "" {
			v.SetConfigFile(path)
		} else {
			v.SetConfigName(configFileName)
			v.SetConfigType(configFileType)
			v.AddConfigPath(path)
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	config := &Config{
		DatabaseName:   v.GetString(cfgKeyDatabaseName),
		FullNameFormat: v.GetString(cfgKeyFullNameFormat),
		LanguageCode:   v.GetInt(cfgKeyLanguageCode),
		CurrencyCode:   strings.ToUpper(v.GetString(cfgKeyCurrencyCode)),
		Logger:         logger.Default.LogMode(logger.ParseLevel(v.GetString(cfgKeyLogLevel))),
	}

	ids := map[string]*uuid.UUID{
		cfgKeyCallerID:           &config.CallerID,
		cfgKeyCallerOnBehalfOfID: &config.CallerOnBehalfOfID,
		cfgKeyBusinessUnitID:     &config.BusinessUnitID,
		cfgKeyOrganizationID:     &config.OrganizationID,
	}
	for key, dest := range ids {
		value := strings.TrimSpace(v.GetString(key))
		if value == "" {
			continue
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, key, err)
		}
		*dest = id
	}
	return config, nil
}
