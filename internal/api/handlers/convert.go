package handlers

import (
	"errors"
	"path/filepath"

	"github.com/RMahshie/s2plab/internal/catalog"
	"github.com/RMahshie/s2plab/internal/loader"
	"github.com/RMahshie/s2plab/pkg/analysis"
	"github.com/RMahshie/s2plab/pkg/models"
	"github.com/danielgtaylor/huma/v2"
)

// catalogError maps catalog and analysis errors onto HTTP errors
func catalogError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotLoaded):
		return huma.Error503ServiceUnavailable("Measurements have not been loaded yet", err)
	case errors.Is(err, catalog.ErrNetworkNotFound):
		return huma.Error404NotFound("Network not found", err)
	case errors.Is(err, analysis.ErrInvalidPort):
		return huma.Error400BadRequest("Port indices must be 1 or 2", err)
	case errors.Is(err, analysis.ErrEmptyNetwork):
		return huma.Error409Conflict("Network has no frequency samples", err)
	default:
		return huma.Error500InternalServerError("Unexpected error", err)
	}
}

func networkInfo(index int, e loader.Entry) models.NetworkInfo {
	n := e.Network
	info := models.NetworkInfo{
		Index:              index,
		Label:              analysis.Label(index),
		Name:               filepath.Base(e.Path),
		Points:             n.Len(),
		Ports:              n.Ports(),
		ReferenceImpedance: n.ReferenceImpedance(),
	}
	if n.Len() > 0 {
		info.MinFrequencyHz = n.Frequency(0)
		info.MaxFrequencyHz = n.Frequency(n.Len() - 1)
	}
	return info
}

func loadFailures(failed []loader.Failure) []models.LoadFailure {
	out := make([]models.LoadFailure, 0, len(failed))
	for _, f := range failed {
		out = append(out, models.LoadFailure{
			Name:  filepath.Base(f.Path),
			Kind:  loader.FailureKind(f.Err),
			Error: f.Err.Error(),
		})
	}
	return out
}
