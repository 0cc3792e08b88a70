package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/keyvault/internal/flagx"
	"github.com/dmitrijs2005/keyvault/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "24h" and integer nanoseconds. Boolean fields are
// pointers so that an explicit false can override a true default.
type JsonConfig struct {
	HTTPAddr                string         `json:"http_addr"`
	StorageBackend          string         `json:"storage_backend"`
	DataFile                string         `json:"data_file"`
	DatabaseDSN             string         `json:"database_dsn"`
	S3RootUser              string         `json:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Object                string         `json:"s3_object"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
	KeyPrefix               string         `json:"key_prefix"`
	EnabledDurations        []string       `json:"enabled_durations"`
	AdminToken              string         `json:"admin_token"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	MaskUnknownUser         *bool          `json:"mask_unknown_user"`
	TrustProxy              *bool          `json:"trust_proxy"`
	MetricsEnabled          *bool          `json:"metrics_enabled"`
	LogLevel                string         `json:"log_level"`
	LogFormat               string         `json:"log_format"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file is taken from -c/-config or KEYVAULT_CONFIG;
// when neither is set nothing is loaded. An unreadable or invalid file
// panics.
func parseJson(config *Config) {

	// try flags, then env
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	if err := config.LoadFile(jsonConfigFile); err != nil {
		panic(err)
	}
}

// LoadFile overlays the JSON file at path onto c. Only keys present in the
// file override the current values.
func (config *Config) LoadFile(path string) error {
	c := &JsonConfig{}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DataFile, c.DataFile)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Object, c.S3Object)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.KeyPrefix, c.KeyPrefix)
	setString(&config.AdminToken, c.AdminToken)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if len(c.EnabledDurations) > 0 {
		config.EnabledDurations = c.EnabledDurations
	}
	if c.SessionValidityDuration.Duration > 0 {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	setBool(&config.MaskUnknownUser, c.MaskUnknownUser)
	setBool(&config.TrustProxy, c.TrustProxy)
	setBool(&config.MetricsEnabled, c.MetricsEnabled)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
