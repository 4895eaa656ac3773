package handlers

import (
	"context"
	"path"
	"strings"

	"github.com/RMahshie/s2plab/internal/storage"
	"github.com/RMahshie/s2plab/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"
)

// UploadHandler hands out pre-signed URLs for new measurement files
type UploadHandler struct {
	store  storage.ObjectStore
	prefix string
}

// NewUploadHandler creates a new upload handler. A nil store disables uploads.
func NewUploadHandler(store storage.ObjectStore, prefix string) *UploadHandler {
	return &UploadHandler{store: store, prefix: prefix}
}

// CreateUpload returns a pre-signed PUT URL under the configured prefix
func (h *UploadHandler) CreateUpload(ctx context.Context, req *models.CreateUploadRequest) (*models.CreateUploadResponse, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("Uploads require an object storage backend", nil)
	}

	key := path.Join(h.prefix, path.Base(req.Body.FileName))
	log.Info().Str("key", key).Int64("fileSize", req.Body.FileSize).Msg("Generating upload URL")

	if err := storage.ValidateUpload(key, req.Body.ContentType); err != nil {
		return nil, huma.Error400BadRequest("Only .s2p files can be uploaded", err)
	}

	uploadURL, err := h.store.GenerateUploadURL(ctx, key, req.Body.ContentType)
	if err != nil {
		if strings.Contains(err.Error(), "invalid") {
			return nil, huma.Error400BadRequest("Failed to prepare upload", err)
		}
		return nil, huma.Error500InternalServerError("Failed to prepare upload", err)
	}

	resp := &models.CreateUploadResponse{}
	resp.Body.Key = key
	resp.Body.UploadURL = uploadURL
	resp.Body.ExpiresIn = int(storage.UploadURLExpiry.Seconds())
	return resp, nil
}
