package docs

import (
	"fmt"
	"os"
	"path/filepath"
)

// File devuelve una ruta a la especificación Swagger: path si existe o, si no, una copia
// temporal generada desde SwaggerInfo.
func File(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	dir, err := os.MkdirTemp("", "erp-ledger-docs")
	if err != nil {
		return "", fmt.Errorf("swagger: %w", err)
	}
	out := filepath.Join(dir, "swagger.json")
	if err := os.WriteFile(out, []byte(SwaggerInfo.ReadDoc()), 0o600); err != nil {
		return "", fmt.Errorf("swagger: %w", err)
	}
	return out, nil
}
