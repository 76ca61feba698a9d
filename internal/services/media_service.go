package services

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/domain"
	"github.com/minixhq/minix-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// mediaURLBase prefixes every stored media URL. Uploads are metadata-only;
// the URL points at a mock origin and is never dereferenced by the server.
const mediaURLBase = "https://mock.api/media/"

// MediaService registers uploaded media metadata and resolves media rows for
// embedding in message payloads.
type MediaService struct {
	DB *gorm.DB
}

// NewMediaService constructs a MediaService.
func NewMediaService(db *gorm.DB) *MediaService {
	return &MediaService{DB: db}
}

// Create registers a media item and returns the stored row. A non-empty
// filename becomes a path-escaped suffix of the generated URL.
func (s *MediaService) Create(ctx context.Context, filename string) (*domain.Media, error) {
	tr := otel.Tracer("services/MediaService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("media.filename", filename)),
	)
	defer span.End()

	id := uuid.NewString()
	mediaURL := mediaURLBase + id
	var name *string
	if filename != "" {
		name = &filename
		mediaURL += "/" + url.PathEscape(filename)
	}
	return repo.CreateMedia(ctx, s.DB, id, name, mediaURL)
}

// Get returns a media row by id.
func (s *MediaService) Get(ctx context.Context, id string) (*domain.Media, error) {
	tr := otel.Tracer("services/MediaService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("media.id", id)),
	)
	defer span.End()

	m, err := repo.GetMedia(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMediaNotFound
	}
	return m, err
}
