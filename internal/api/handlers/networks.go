package handlers

import (
	"context"
	"fmt"

	"github.com/RMahshie/s2plab/internal/catalog"
	"github.com/RMahshie/s2plab/pkg/analysis"
	"github.com/RMahshie/s2plab/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"
)

// NetworkHandler serves the loaded networks and their analysis
type NetworkHandler struct {
	catalog    catalog.Service
	targetHz   float64
	classifier analysis.Classifier
}

// NewNetworkHandler creates a new network handler. targetHz is used when a
// request does not name a frequency.
func NewNetworkHandler(svc catalog.Service, targetHz float64) *NetworkHandler {
	return &NetworkHandler{
		catalog:    svc,
		targetHz:   targetHz,
		classifier: analysis.DefaultClassifier,
	}
}

func (h *NetworkHandler) target(freqHz float64) float64 {
	if freqHz > 0 {
		return freqHz
	}
	return h.targetHz
}

// ListNetworks returns every loaded network and every failed file
func (h *NetworkHandler) ListNetworks(ctx context.Context, input *struct{}) (*models.ListNetworksResponse, error) {
	snap, err := h.catalog.Snapshot()
	if err != nil {
		return nil, catalogError(err)
	}

	resp := &models.ListNetworksResponse{}
	resp.Body.Networks = make([]models.NetworkInfo, 0, len(snap.Result.Loaded))
	for i, e := range snap.Result.Loaded {
		resp.Body.Networks = append(resp.Body.Networks, networkInfo(i, e))
	}
	resp.Body.Failures = loadFailures(snap.Result.Failed)
	resp.Body.LoadedAt = snap.LoadedAt
	return resp, nil
}

// GetNetwork returns one network's metadata
func (h *NetworkHandler) GetNetwork(ctx context.Context, req *models.GetNetworkRequest) (*models.GetNetworkResponse, error) {
	snap, err := h.catalog.Snapshot()
	if err != nil {
		return nil, catalogError(err)
	}
	if req.Index < 0 || req.Index >= len(snap.Result.Loaded) {
		return nil, catalogError(fmt.Errorf("%w: index %d", catalog.ErrNetworkNotFound, req.Index))
	}
	return &models.GetNetworkResponse{Body: networkInfo(req.Index, snap.Result.Loaded[req.Index])}, nil
}

// GetTrace returns S(out)(in) for every sample of a network
func (h *NetworkHandler) GetTrace(ctx context.Context, req *models.GetTraceRequest) (*models.GetTraceResponse, error) {
	n, err := h.catalog.Network(req.Index)
	if err != nil {
		return nil, catalogError(err)
	}

	seq, err := analysis.Trace(n, req.Out, req.In)
	if err != nil {
		return nil, catalogError(err)
	}

	resp := &models.GetTraceResponse{}
	resp.Body.Index = req.Index
	resp.Body.Parameter = paramName(req.Out, req.In)
	resp.Body.Points = make([]models.TracePoint, 0, n.Len())
	for p := range seq {
		resp.Body.Points = append(resp.Body.Points, models.NewTracePoint(p))
	}
	return resp, nil
}

// GetNearest returns the sample closest to the requested frequency. The
// matching grade is only reported for reflection parameters.
func (h *NetworkHandler) GetNearest(ctx context.Context, req *models.GetNearestRequest) (*models.GetNearestResponse, error) {
	n, err := h.catalog.Network(req.Index)
	if err != nil {
		return nil, catalogError(err)
	}

	target := h.target(req.FrequencyHz)
	p, err := analysis.NearestParam(n, req.Out, req.In, target)
	if err != nil {
		return nil, catalogError(err)
	}

	resp := &models.GetNearestResponse{}
	resp.Body.Index = req.Index
	resp.Body.Parameter = paramName(req.Out, req.In)
	resp.Body.TargetHz = target
	resp.Body.Point = models.NewTracePoint(p)
	if req.Out == req.In {
		resp.Body.Quality = h.classifier.Classify(p.MagnitudeDB).String()
	}
	return resp, nil
}

// GetSummary grades every loaded network at the target frequency
func (h *NetworkHandler) GetSummary(ctx context.Context, req *models.GetSummaryRequest) (*models.GetSummaryResponse, error) {
	target := h.target(req.FrequencyHz)
	records, err := h.catalog.Summarize(target)
	if err != nil {
		return nil, catalogError(err)
	}

	resp := &models.GetSummaryResponse{}
	resp.Body.TargetHz = target
	resp.Body.Entries = models.NewSummaryEntries(records)
	return resp, nil
}

// Reload rescans the measurement source
func (h *NetworkHandler) Reload(ctx context.Context, input *struct{}) (*models.ReloadResponse, error) {
	log.Info().Msg("Reload requested")

	snap, err := h.catalog.Reload(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to reload measurements", err)
	}

	resp := &models.ReloadResponse{}
	resp.Body.Loaded = len(snap.Result.Loaded)
	resp.Body.Failures = loadFailures(snap.Result.Failed)
	return resp, nil
}

func paramName(out, in int) string {
	return fmt.Sprintf("S%d%d", out, in)
}
