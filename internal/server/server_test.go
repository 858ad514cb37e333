package server

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurustar/confsync/internal/config"
	"github.com/zurustar/confsync/internal/logging"
	"github.com/zurustar/confsync/internal/transport"
)

// writeConfig writes a daemon configuration using a private database and
// log file in a temporary directory
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	data := `
server:
  host: 127.0.0.1
  port: 0
  local_uri: "sip:focus@example.com"
database:
  path: "` + filepath.Join(dir, "confsync.db") + `"
web_admin:
  enabled: false
logging:
  level: "error"
  file: "` + filepath.Join(dir, "confsync.log") + `"
` + extra
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

// newTestServer builds a daemon whose transport is fake
func newTestServer(t *testing.T) (*SIPServerImpl, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	s := NewSIPServer()
	s.newTransport = func(opts transport.Options, _ logging.Logger) SIPTransport {
		assert.Equal(t, "udp", opts.Network)
		return tr
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s, tr
}

func TestSIPServerImpl_LoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		configData  string
		expectError bool
	}{
		{
			name: "valid configuration",
			configData: `
server:
  port: 5070
database:
  path: "./test.db"
logging:
  level: "info"
conferences:
  local:
    - address: "sip:standup@example.com"
`,
		},
		{
			name: "invalid configuration - bad transport",
			configData: `
server:
  transport: sctp
`,
			expectError: true,
		},
		{
			name:        "invalid yaml",
			configData:  "server: [",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte(tt.configData), 0644))

			s := NewSIPServer()
			err := s.LoadConfig(configFile)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 5070, s.config.Server.Port)
		})
	}
}

func TestSIPServerImpl_StartWithoutConfig(t *testing.T) {
	s := NewSIPServer()
	assert.Error(t, s.Start())
	assert.NoError(t, s.Stop(), "stopping a server that never started is a no-op")
}

func TestSIPServerImpl_StartStop(t *testing.T) {
	s, tr := newTestServer(t)
	require.NoError(t, s.LoadConfig(writeConfig(t, `
accounts:
  - idkey: main
    reg_proxy: "sip:proxy.example.com"
    reg_identity: "sip:alice@example.com"
conferences:
  local:
    - address: "sip:standup@example.com"
      subject: "Daily standup"
  remote:
    - address: "sip:allhands@focus.example.net"
      account: main
`)))

	require.NoError(t, s.Start())
	assert.True(t, tr.started)
	assert.Error(t, s.Start(), "already running")
	assert.Error(t, s.LoadConfig(s.configFile), "cannot reload through LoadConfig while running")

	core := s.Core()
	require.NotNil(t, core)
	require.Len(t, core.Accounts(), 1)
	confs := core.Conferences()
	require.Len(t, confs, 2)
	assert.Equal(t, "Daily standup", confs[0].Conference.Subject)
	assert.Len(t, tr.registers, 1)
	assert.Empty(t, tr.subscribes, "remote conference waits for its account")

	require.NoError(t, s.Stop())
	assert.True(t, tr.stopped)
	assert.Empty(t, core.Accounts())
	assert.NoError(t, s.Stop())
}

func TestSIPServerImpl_TransportStartFailure(t *testing.T) {
	s, tr := newTestServer(t)
	tr.startErr = errors.New("address already in use")
	require.NoError(t, s.LoadConfig(writeConfig(t, "")))

	err := s.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, tr.startErr)
	assert.True(t, tr.stopped)
}

func TestSIPServerImpl_Reload(t *testing.T) {
	s, _ := newTestServer(t)
	path := writeConfig(t, `
conferences:
  local:
    - address: "sip:standup@example.com"
`)
	require.NoError(t, s.LoadConfig(path))

	cfg := *s.config
	s.Reload(&cfg) // ignored before Start

	require.NoError(t, s.Start())
	require.Len(t, s.Core().Conferences(), 1)

	cfg.Conferences = config.ConferencesConfig{
		Local: []config.LocalConferenceConfig{
			{Address: "sip:standup@example.com"},
			{Address: "sip:retro@example.com", Subject: "Retro"},
		},
	}
	cfg.Logging.Level = "debug"
	s.Reload(&cfg)

	confs := s.Core().Conferences()
	require.Len(t, confs, 2)
	assert.Equal(t, "sip:retro@example.com", confs[0].Address)
	assert.Equal(t, "Retro", confs[0].Conference.Subject)
	assert.Equal(t, logging.DebugLevel, s.logger.GetLevel())
	assert.Same(t, &cfg, s.config)
}
