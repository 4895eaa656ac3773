package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status   string    `json:"status" example:"healthy" doc:"Service health status"`
		Version  string    `json:"version" example:"1.0.0" doc:"API version"`
		Networks int       `json:"networks" doc:"Number of loaded networks"`
		Time     time.Time `json:"time" doc:"Current server time"`
	}
}

// NetworkInfo describes one loaded network
type NetworkInfo struct {
	Index              int     `json:"index" doc:"Position in load order"`
	Label              string  `json:"label" example:"Antenna 1" doc:"Display label"`
	Name               string  `json:"name" example:"antenna1.s2p" doc:"File name"`
	Points             int     `json:"points" doc:"Number of frequency samples"`
	Ports              int     `json:"ports" doc:"Port count"`
	MinFrequencyHz     float64 `json:"min_frequency_hz,omitempty" doc:"Lowest frequency in Hz"`
	MaxFrequencyHz     float64 `json:"max_frequency_hz,omitempty" doc:"Highest frequency in Hz"`
	ReferenceImpedance float64 `json:"reference_impedance" doc:"Reference impedance in ohms"`
}

// LoadFailure describes a file that could not be loaded
type LoadFailure struct {
	Name  string `json:"name" doc:"File name"`
	Kind  string `json:"kind" enum:"io,format,other" doc:"Failure category"`
	Error string `json:"error" doc:"Error message"`
}

// ListNetworksResponse lists loaded networks and failed files
type ListNetworksResponse struct {
	Body ListNetworksResponseBody
}

// ListNetworksResponseBody is the body of the list response
type ListNetworksResponseBody struct {
	Networks []NetworkInfo `json:"networks" doc:"Loaded networks in load order"`
	Failures []LoadFailure `json:"failures" doc:"Files that failed to load"`
	LoadedAt time.Time     `json:"loaded_at" doc:"When the current set was loaded"`
}

// GetNetworkRequest addresses one network
type GetNetworkRequest struct {
	Index int `path:"index" minimum:"0" doc:"Network index"`
}

// GetNetworkResponse returns one network
type GetNetworkResponse struct {
	Body NetworkInfo
}

// GetTraceRequest selects one S-parameter of a network
type GetTraceRequest struct {
	Index int `path:"index" minimum:"0" doc:"Network index"`
	Out   int `query:"out" default:"1" doc:"Output port (1 or 2)"`
	In    int `query:"in" default:"1" doc:"Input port (1 or 2)"`
}

// GetTraceResponse returns the trace
type GetTraceResponse struct {
	Body GetTraceResponseBody
}

// GetTraceResponseBody is the body of the trace response
type GetTraceResponseBody struct {
	Index     int          `json:"index" doc:"Network index"`
	Parameter string       `json:"parameter" example:"S11" doc:"S-parameter name"`
	Points    []TracePoint `json:"points" doc:"Samples in frequency order"`
}

// GetNearestRequest asks for the sample closest to a frequency
type GetNearestRequest struct {
	Index       int     `path:"index" minimum:"0" doc:"Network index"`
	FrequencyHz float64 `query:"freq_hz" doc:"Target frequency in Hz; defaults to the configured target"`
	Out         int     `query:"out" default:"1" doc:"Output port (1 or 2)"`
	In          int     `query:"in" default:"1" doc:"Input port (1 or 2)"`
}

// GetNearestResponse returns the nearest sample
type GetNearestResponse struct {
	Body GetNearestResponseBody
}

// GetNearestResponseBody is the body of the nearest response
type GetNearestResponseBody struct {
	Index     int        `json:"index" doc:"Network index"`
	Parameter string     `json:"parameter" doc:"S-parameter name"`
	TargetHz  float64    `json:"target_hz" doc:"Requested frequency in Hz"`
	Point     TracePoint `json:"point" doc:"Closest sample"`
	Quality   string     `json:"quality,omitempty" enum:"good,moderate,poor" doc:"Matching grade, only for reflection parameters"`
}

// GetSummaryRequest asks for the batch matching summary
type GetSummaryRequest struct {
	FrequencyHz float64 `query:"freq_hz" doc:"Target frequency in Hz; defaults to the configured target"`
}

// SummaryEntry is one network's line in the summary
type SummaryEntry struct {
	Index   int         `json:"index" doc:"Network index"`
	Label   string      `json:"label" doc:"Display label"`
	Name    string      `json:"name" doc:"File name"`
	Point   *TracePoint `json:"point,omitempty" doc:"S11 at the closest sample"`
	Quality string      `json:"quality,omitempty" enum:"good,moderate,poor" doc:"Matching grade"`
	Error   string      `json:"error,omitempty" doc:"Why the network could not be evaluated"`
}

// GetSummaryResponse returns the batch summary
type GetSummaryResponse struct {
	Body SummaryBody
}

// SummaryBody is the body of the summary response
type SummaryBody struct {
	TargetHz float64        `json:"target_hz" doc:"Target frequency in Hz"`
	Entries  []SummaryEntry `json:"entries" doc:"One entry per network in load order"`
}

// ReloadResponse reports the outcome of a rescan
type ReloadResponse struct {
	Body struct {
		Loaded   int           `json:"loaded" doc:"Networks loaded"`
		Failures []LoadFailure `json:"failures" doc:"Files that failed to load"`
	}
}

// CreateUploadRequest represents a request for a measurement upload URL
type CreateUploadRequest struct {
	Body struct {
		FileName    string `json:"file_name" minLength:"5" maxLength:"200" pattern:"^[A-Za-z0-9._-]+$" required:"true" doc:"Target file name, e.g. antenna4.s2p"`
		FileSize    int64  `json:"file_size" minimum:"1" maximum:"67108864" required:"true" doc:"File size in bytes"`
		ContentType string `json:"content_type" enum:"text/plain,application/octet-stream" required:"true" doc:"File MIME type"`
	}
}

// CreateUploadResponse represents the pre-signed upload URL
type CreateUploadResponse struct {
	Body CreateUploadResponseBody
}

// CreateUploadResponseBody is the body of the upload response
type CreateUploadResponseBody struct {
	Key       string `json:"key" doc:"Object key the file will be stored under"`
	UploadURL string `json:"upload_url" doc:"Pre-signed URL for file upload"`
	ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
}

// DeleteNetworkRequest addresses the stored file behind one network
type DeleteNetworkRequest struct {
	Index int `path:"index" minimum:"0" doc:"Network index"`
}

// DownloadNetworkResponse returns a pre-signed URL for the stored file
type DownloadNetworkResponse struct {
	Body DownloadNetworkResponseBody
}

// DownloadNetworkResponseBody is the body of the download response
type DownloadNetworkResponseBody struct {
	Index       int    `json:"index" doc:"Network index"`
	Key         string `json:"key" doc:"Object key of the measurement file"`
	DownloadURL string `json:"download_url" doc:"Pre-signed URL for fetching the file"`
	ExpiresIn   int    `json:"expires_in" doc:"URL expiration time in seconds"`
}
