package handlers

import (
	"context"
	"fmt"

	"github.com/RMahshie/s2plab/internal/catalog"
	"github.com/RMahshie/s2plab/internal/loader"
	"github.com/RMahshie/s2plab/internal/storage"
	"github.com/RMahshie/s2plab/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"
)

// FileHandler serves and removes the stored files behind loaded networks
type FileHandler struct {
	store   storage.ObjectStore
	catalog catalog.Service
}

// NewFileHandler creates a new file handler. A nil store disables both
// operations, since local files are managed on disk.
func NewFileHandler(store storage.ObjectStore, svc catalog.Service) *FileHandler {
	return &FileHandler{store: store, catalog: svc}
}

// entry resolves index against the current snapshot
func (h *FileHandler) entry(index int) (loader.Entry, error) {
	if h.store == nil {
		return loader.Entry{}, huma.Error503ServiceUnavailable("Stored files require an object storage backend", nil)
	}
	snap, err := h.catalog.Snapshot()
	if err != nil {
		return loader.Entry{}, catalogError(err)
	}
	if index < 0 || index >= len(snap.Result.Loaded) {
		return loader.Entry{}, catalogError(fmt.Errorf("%w: index %d", catalog.ErrNetworkNotFound, index))
	}
	return snap.Result.Loaded[index], nil
}

// GetDownloadURL returns a pre-signed GET URL for a network's file
func (h *FileHandler) GetDownloadURL(ctx context.Context, req *models.GetNetworkRequest) (*models.DownloadNetworkResponse, error) {
	e, err := h.entry(req.Index)
	if err != nil {
		return nil, err
	}

	url, err := h.store.GenerateDownloadURL(ctx, e.Path)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to prepare download", err)
	}

	resp := &models.DownloadNetworkResponse{}
	resp.Body.Index = req.Index
	resp.Body.Key = e.Path
	resp.Body.DownloadURL = url
	resp.Body.ExpiresIn = int(storage.DownloadURLExpiry.Seconds())
	return resp, nil
}

// DeleteNetwork removes a network's file from storage and reloads
func (h *FileHandler) DeleteNetwork(ctx context.Context, req *models.DeleteNetworkRequest) (*models.ReloadResponse, error) {
	e, err := h.entry(req.Index)
	if err != nil {
		return nil, err
	}

	log.Info().Str("key", e.Path).Int("index", req.Index).Msg("Deleting measurement file")
	if err := h.store.DeleteFile(ctx, e.Path); err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete measurement file", err)
	}

	snap, err := h.catalog.Reload(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Deleted file but failed to reload measurements", err)
	}

	resp := &models.ReloadResponse{}
	resp.Body.Loaded = len(snap.Result.Loaded)
	resp.Body.Failures = loadFailures(snap.Result.Failed)
	return resp, nil
}
