package docs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_GeneraEspecificacionValida(t *testing.T) {
	path, err := File(filepath.Join(t.TempDir(), "no-existe.json"))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var spec map[string]any
	require.NoError(t, json.Unmarshal(raw, &spec))
	assert.Equal(t, "ERP Ledger API", spec["info"].(map[string]any)["title"])
	assert.Contains(t, spec["paths"], "/api/stock-movements")
}

func TestFile_UsaArchivoExistente(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "swagger.json")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o600))

	path, err := File(existing)
	require.NoError(t, err)
	assert.Equal(t, existing, path)
}
