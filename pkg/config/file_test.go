package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "axss.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
target: https://app.example.com
urls:
  - https://app.example.com/search?q=a
crawl: true
max_depth: 3
timeout: 5s
headers:
  X-Team: red
auth:
  login_url: https://app.example.com/login
  username: alice
output:
  format: json
  report: out.json
`)

	f, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.com", f.Target)
	assert.Equal(t, []string{"https://app.example.com/search?q=a"}, f.URLs)
	require.NotNil(t, f.Crawl)
	assert.True(t, *f.Crawl)
	assert.Nil(t, f.Advanced)
	assert.Equal(t, 3, f.MaxDepth)
	assert.Equal(t, 5*time.Second, f.Timeout)
	assert.Equal(t, "red", f.Headers["X-Team"])
	assert.Equal(t, "alice", f.Auth.Username)
	assert.Equal(t, "json", f.Output.Format)
	assert.Equal(t, "out.json", f.Output.Report)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, "max_pages: [1, 2"))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, "max_pages: -1"))
	assert.Error(t, err)
}
