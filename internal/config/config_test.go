package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataPath: /tmp/d
flags:
  linger: true
transactions:
  - operations:
      - offset: 0
        payload: "ABCDE"
`), 0600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/d", s.DataPath)
	assert.True(t, s.Flags.Linger)
	require.Len(t, s.Transactions, 1)
	require.Len(t, s.Transactions[0].Operations, 1)

	b, err := s.Transactions[0].Operations[0].Bytes()
	require.NoError(t, err)
	assert.Equal(t, "ABCDE", string(b))
}

func TestLoadRequiresDataPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transactions: []\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestOperationBytesRejectsBothPayloadForms(t *testing.T) {
	op := OperationConfig{Payload: "x", PayloadBase64: "eA=="}
	_, err := op.Bytes()
	assert.Error(t, err)
}
