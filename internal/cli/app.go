package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vietddude/cardgate/internal/core/config"
	"github.com/vietddude/cardgate/internal/infra/gateway"
	redisclient "github.com/vietddude/cardgate/internal/infra/redis"
	"github.com/vietddude/cardgate/internal/infra/storage"
	"github.com/vietddude/cardgate/internal/infra/storage/memory"
)

// app wires the gateway client and the import job store from config.
type app struct {
	cfg    *config.AppConfig
	client *gateway.Client
	jobs   storage.ImportJobRepository
	redis  *redisclient.Client
}

func newApp(cfg *config.AppConfig) (*app, error) {
	a := &app{
		cfg:    cfg,
		client: gateway.New(cfg.Gateway),
	}

	if !cfg.Redis.Enabled() {
		a.jobs = memory.NewImportJobRepo()
		return a, nil
	}

	rc, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.redis = rc
	a.jobs = redisclient.NewImportJobRepo(rc, cfg.Redis.JobTTL)
	return a, nil
}

func (a *app) Close() error {
	err := a.client.Close()
	if a.redis != nil {
		err = errors.Join(err, a.redis.Close())
		a.redis = nil
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return nil, errors.New("input file is required")
	}
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
