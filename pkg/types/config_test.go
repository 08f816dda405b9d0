package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "sync disabled is always valid",
			cfg:  Config{Sync: SyncConfig{Enabled: false, Backend: "bogus"}},
		},
		{
			name:    "unknown backend",
			cfg:     Config{Sync: SyncConfig{Enabled: true, Backend: "ftp"}},
			wantErr: ErrRemoteBackendUnknown,
		},
		{
			name:    "http without URL",
			cfg:     Config{Sync: SyncConfig{Enabled: true, Backend: RemoteHTTP}},
			wantErr: ErrRemoteURLEmpty,
		},
		{
			name: "http with URL",
			cfg: Config{Sync: SyncConfig{
				Enabled: true, Backend: RemoteHTTP, RemoteURL: "https://sync.example.com",
			}},
		},
		{
			name:    "postgres without DSN",
			cfg:     Config{Sync: SyncConfig{Enabled: true, Backend: RemotePostgres}},
			wantErr: ErrRemoteDSNEmpty,
		},
		{
			name: "postgres with DSN",
			cfg: Config{Sync: SyncConfig{
				Enabled: true, Backend: RemotePostgres, RemoteDSN: "postgres://localhost/rostervault",
			}},
		},
		{
			name: "negative interval",
			cfg: Config{Sync: SyncConfig{
				Enabled: true, Backend: RemoteHTTP, RemoteURL: "https://sync.example.com",
				IntervalSeconds: -1,
			}},
			wantErr: ErrSyncIntervalInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
