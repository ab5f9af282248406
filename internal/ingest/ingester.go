package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"phonogram/internal/config"
	"phonogram/internal/contentid"
	"phonogram/internal/logging"
	"phonogram/internal/registration"
	"phonogram/internal/registry"
	"phonogram/internal/services"
	"phonogram/internal/services/storage"
	"phonogram/internal/stage"
)

// Uploader is the storage-gateway surface the ingester needs.
type Uploader interface {
	UploadFile(ctx context.Context, data []byte, filename, contentType string) (string, error)
	GatewayURL(contentID string) string
}

// Ingester hashes submitted media and pushes it to the storage gateway.
type Ingester struct {
	store    *registry.Store
	cfg      *config.Config
	logger   *slog.Logger
	uploader Uploader
	now      func() time.Time
}

// NewIngester constructs the ingest stage handler with the configured
// storage-gateway client.
func NewIngester(cfg *config.Config, store *registry.Store, logger *slog.Logger) (*Ingester, error) {
	client, err := storage.New(
		cfg.StorageGateway.APIKey,
		cfg.StorageGateway.UploadBaseURL,
		cfg.StorageGateway.GatewayBaseURL,
		storage.WithTimeout(time.Duration(cfg.StorageGateway.RequestTimeout)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("build storage client: %w", err)
	}
	return NewIngesterWithDependencies(cfg, store, logger, client), nil
}

// NewIngesterWithDependencies allows injecting collaborators (used in tests).
func NewIngesterWithDependencies(cfg *config.Config, store *registry.Store, logger *slog.Logger, uploader Uploader) *Ingester {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "ingest"))
	}
	return &Ingester{store: store, cfg: cfg, logger: stageLogger, uploader: uploader, now: time.Now}
}

func (i *Ingester) Prepare(ctx context.Context, work *registry.Work) error {
	logger := logging.WithContext(ctx, i.logger)
	work.SetProgress("Ingesting", "Preparing media ingest", 0)
	work.ErrorMessage = ""
	logger.Info(
		"starting ingest preparation",
		logging.String("title", strings.TrimSpace(work.Title)),
		logging.String("media_path", strings.TrimSpace(work.MediaPath)),
	)
	return nil
}

func (i *Ingester) Execute(ctx context.Context, work *registry.Work) error {
	logger := logging.WithContext(ctx, i.logger)
	path := strings.TrimSpace(work.MediaPath)
	if path == "" {
		return services.Wrap(
			services.ErrValidation,
			"ingest",
			"validate inputs",
			"No media path present on the work; submit the work with a readable media file",
			nil,
		)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return services.Wrap(
			services.ErrValidation,
			"ingest",
			"read media",
			fmt.Sprintf("Failed to read media file %s", path),
			err,
		)
	}
	if len(data) == 0 {
		return services.Wrap(
			services.ErrValidation,
			"ingest",
			"read media",
			fmt.Sprintf("Media file %s is empty", path),
			nil,
		)
	}

	work.ContentHash = contentid.HashContent(data)
	cid, err := contentid.CIDv1(data)
	if err != nil {
		return services.Wrap(services.ErrValidation, "ingest", "derive cid", "Failed to derive media CID", err)
	}
	work.MediaCID = cid
	work.SetProgress("Ingesting", "Uploading media to storage gateway", 25)

	contentID, err := i.uploader.UploadFile(ctx, data, filepath.Base(path), registration.MIMEForPath(path))
	if err != nil {
		return services.Wrap(services.ErrUpstream, "ingest", "upload media", "Storage gateway upload failed", err)
	}
	work.MediaContentID = contentID
	work.MediaURL = i.uploader.GatewayURL(contentID)
	work.SetProgress("Ingesting", "Deriving verification token", 75)

	mediaID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tokenID, err := contentid.SyntheticTokenID(contentid.TokenSeed{
		Creator: i.cfg.Creator.Address,
		Media: []contentid.SeedMedia{
			{MediaID: mediaID, URL: work.MediaURL},
		},
		Timestamp: i.now().Unix(),
	})
	if err != nil {
		return services.Wrap(services.ErrValidation, "ingest", "derive token", "Failed to derive verification token id", err)
	}
	work.TokenID = tokenID

	work.SetProgressComplete("Ingesting", "Media ingested")
	logger.Info(
		"ingest complete",
		logging.String("content_hash", work.ContentHash),
		logging.String("media_cid", work.MediaCID),
		logging.String(logging.FieldTokenID, work.TokenID),
		logging.Int("bytes", len(data)),
	)
	return nil
}

func (i *Ingester) HealthCheck(ctx context.Context) stage.Health {
	const name = "ingest"
	if i.uploader == nil {
		return stage.Unhealthy(name, "storage gateway client not configured")
	}
	if strings.TrimSpace(i.cfg.StorageGateway.UploadBaseURL) == "" {
		return stage.Unhealthy(name, "storage gateway upload URL missing")
	}
	return stage.Healthy(name)
}
