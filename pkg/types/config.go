package types

import "errors"

// Remote backend names for sync.
const (
	RemoteHTTP     = "http"
	RemotePostgres = "postgres"
)

// Config validation errors.
var (
	ErrRemoteBackendUnknown = errors.New("unknown remote backend")
	ErrRemoteURLEmpty       = errors.New("remote URL must not be empty")
	ErrRemoteDSNEmpty       = errors.New("remote DSN must not be empty")
	ErrSyncIntervalInvalid  = errors.New("sync interval must be positive")
)

// knownRemoteBackends lists the remote backends that Validate accepts.
var knownRemoteBackends = map[string]bool{
	RemoteHTTP:     true,
	RemotePostgres: true,
}

// SyncConfig selects and parameterizes the remote store. Sync is an
// independently toggleable feature; a disabled SyncConfig is always valid.
type SyncConfig struct {
	Enabled         bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Backend         string `json:"backend" yaml:"backend" mapstructure:"backend"`
	RemoteURL       string `json:"remote_url" yaml:"remote_url" mapstructure:"remote_url"`
	AuthToken       string `json:"auth_token" yaml:"auth_token" mapstructure:"auth_token"`
	RemoteDSN       string `json:"remote_dsn" yaml:"remote_dsn" mapstructure:"remote_dsn"`
	IntervalSeconds int    `json:"interval_seconds" yaml:"interval_seconds" mapstructure:"interval_seconds"`
	MaxAttempts     int    `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
}

// Config holds directory and sync parameters for the store.
// QuotaBytes caps the on-disk partition size checked before imports;
// zero means no budget is enforced (the pre-check passes optimistically).
type Config struct {
	DataDir    string     `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	QuotaBytes int64      `json:"quota_bytes" yaml:"quota_bytes" mapstructure:"quota_bytes"`
	Sync       SyncConfig `json:"sync" yaml:"sync" mapstructure:"sync"`
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if !c.Sync.Enabled {
		return nil
	}
	if !knownRemoteBackends[c.Sync.Backend] {
		return ErrRemoteBackendUnknown
	}
	if c.Sync.Backend == RemoteHTTP && c.Sync.RemoteURL == "" {
		return ErrRemoteURLEmpty
	}
	if c.Sync.Backend == RemotePostgres && c.Sync.RemoteDSN == "" {
		return ErrRemoteDSNEmpty
	}
	if c.Sync.IntervalSeconds < 0 {
		return ErrSyncIntervalInvalid
	}
	return nil
}
