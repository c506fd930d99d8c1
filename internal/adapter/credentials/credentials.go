// Package credentials provides the secret a data source authenticates with.
package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
	"github.com/couchcryptid/transit-ranking-etl/internal/pipeline"
)

// File reads the secret from a file, typically a mounted service-account key.
type File struct {
	Path string
}

func (f File) Credentials(_ context.Context) (domain.Credentials, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("credentials file %s is empty", f.Path)
	}
	return domain.Credentials(data), nil
}

// Env reads the secret from the named environment variable.
type Env struct {
	Name string
}

func (e Env) Credentials(_ context.Context) (domain.Credentials, error) {
	v, ok := os.LookupEnv(e.Name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, fmt.Errorf("credentials variable %s is not set", e.Name)
	}
	return domain.Credentials(v), nil
}

// None is used by sources that need no secret.
type None struct{}

func (None) Credentials(_ context.Context) (domain.Credentials, error) {
	return nil, nil
}

// Select picks File when path is set, else Env when envName is set, else None.
func Select(path, envName string) pipeline.CredentialProvider {
	switch {
	case path != "":
		return File{Path: path}
	case envName != "":
		return Env{Name: envName}
	default:
		return None{}
	}
}
