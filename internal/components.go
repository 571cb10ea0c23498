package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/vfxhub/internal/docstore"
	"github.com/starford/vfxhub/internal/gateway"
	"github.com/starford/vfxhub/internal/recordstore"
	"github.com/starford/vfxhub/internal/repository"
	"github.com/starford/vfxhub/internal/storage"
	"github.com/starford/vfxhub/internal/studio"
	"github.com/starford/vfxhub/internal/uploads"
)

var errConfigRequired = errors.New("config is required")

// components are the long-lived pieces shared by the HTTP server and the
// MCP server.
type components struct {
	studio   *studio.Service
	files    *uploads.Store
	streamer *gateway.Streamer
	gateway  *gateway.Gateway

	// documents is set for the memory and documents backends.
	documents *repository.DocumentSet
	// watchDir is the directory to watch for outside edits, documents
	// backend only.
	watchDir string

	closers []func() error
}

func buildComponents(cfg *Config, logger *slog.Logger, notifier studio.Notifier) (*components, error) {
	c := &components{}

	repos, err := c.openRepositories(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	var opts []studio.Option
	if notifier != nil {
		opts = append(opts, studio.WithNotifier(notifier))
	}
	c.studio = studio.NewService(repos, opts...)

	uploadsFS, err := openDir(cfg.Images.UploadsPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init uploads: %w", err)
	}
	c.files = uploads.NewStore(uploadsFS, "/uploads", cfg.Images.MaxBytes)

	c.streamer = gateway.NewStreamer(cfg.Images.StreamTimeout, cfg.Images.MaxBytes, cfg.Images.AllowPrivateHosts)
	openai := cfg.Providers.OpenAI
	clipdrop := cfg.Providers.Clipdrop
	c.gateway = gateway.New(gateway.Options{
		Secrets: gateway.ChainSecrets{
			gateway.StaticSecrets{
				gateway.SecretOpenAI:   openai.APIKey,
				gateway.SecretClipdrop: clipdrop.APIKey,
			},
			gateway.EnvSecrets{},
		},
		Text:     gateway.NewOpenAIClient(openai.BaseURL, openai.Timeout, nil),
		Image:    gateway.NewClipdropClient(clipdrop.BaseURL, clipdrop.Timeout, cfg.Images.MaxBytes, nil),
		Streamer: c.streamer,
		Uploader: c.uploader(cfg.Images.Persist),
		Persist:  gateway.PersistMode(cfg.Images.Persist),
		Logger:   logger,
	})

	return c, nil
}

func (c *components) openRepositories(cfg *Config, logger *slog.Logger) (repository.Set, error) {
	switch cfg.Store.Backend {
	case BackendSQLite:
		db, err := recordstore.Open(cfg.SQLite.Path)
		if err != nil {
			return repository.Set{}, fmt.Errorf("init record store: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		logger.Info("Record store opened", slog.String("sqlite_path", cfg.SQLite.Path))
		return repository.NewRecordSet(db), nil

	case BackendDocuments:
		fs, err := openDir(cfg.Store.DocumentsPath)
		if err != nil {
			return repository.Set{}, fmt.Errorf("init documents: %w", err)
		}
		set, err := repository.NewDocumentSet(docstore.NewFiles(fs), cfg.Store.Seed)
		if err != nil {
			return repository.Set{}, err
		}
		c.documents = set
		c.watchDir = fs.Root()
		logger.Info("Document store opened", slog.String("documents_path", fs.Root()))
		return set.Set(), nil

	default:
		set, err := repository.NewDocumentSet(docstore.NewMemory(), cfg.Store.Seed)
		if err != nil {
			return repository.Set{}, err
		}
		c.documents = set
		return set.Set(), nil
	}
}

// uploader returns nil when generated images are not persisted so the
// gateway never touches the uploads directory.
func (c *components) uploader(persist string) gateway.Uploader {
	if persist == PersistDisabled {
		return nil
	}
	return c.files
}

// Close releases the storage backends.
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}

func openDir(path string) (*storage.FS, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return storage.NewFS(path)
}
