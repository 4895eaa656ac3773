package api

import (
	"net/http"

	"github.com/RMahshie/s2plab/internal/api/handlers"
	"github.com/RMahshie/s2plab/internal/catalog"
	"github.com/RMahshie/s2plab/internal/repository"
	"github.com/RMahshie/s2plab/internal/storage"
	"github.com/danielgtaylor/huma/v2"
)

// Dependencies holds what the routes need. Store and Reports may be nil,
// which answers 503 on the object storage and report archive routes.
type Dependencies struct {
	Catalog      catalog.Service
	Store        storage.ObjectStore
	UploadPrefix string
	Reports      repository.ReportRepository
	TargetHz     float64
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, deps Dependencies) {
	// Initialize handlers
	networkHandler := handlers.NewNetworkHandler(deps.Catalog, deps.TargetHz)
	uploadHandler := handlers.NewUploadHandler(deps.Store, deps.UploadPrefix)
	fileHandler := handlers.NewFileHandler(deps.Store, deps.Catalog)
	reportHandler := handlers.NewReportHandler(deps.Reports, deps.Catalog, deps.TargetHz)

	// Register network routes
	huma.Register(api, huma.Operation{
		OperationID: "listNetworks",
		Method:      http.MethodGet,
		Path:        "/api/networks",
		Summary:     "List networks",
		Description: "Returns every loaded network in load order and every file that failed to load",
		Tags:        []string{"Networks"},
	}, networkHandler.ListNetworks)

	huma.Register(api, huma.Operation{
		OperationID: "getNetwork",
		Method:      http.MethodGet,
		Path:        "/api/networks/{index}",
		Summary:     "Get network",
		Description: "Returns metadata for one loaded network",
		Tags:        []string{"Networks"},
	}, networkHandler.GetNetwork)

	huma.Register(api, huma.Operation{
		OperationID: "getTrace",
		Method:      http.MethodGet,
		Path:        "/api/networks/{index}/trace",
		Summary:     "Get S-parameter trace",
		Description: "Returns magnitude and phase of one S-parameter at every frequency sample",
		Tags:        []string{"Networks"},
	}, networkHandler.GetTrace)

	huma.Register(api, huma.Operation{
		OperationID: "getNearest",
		Method:      http.MethodGet,
		Path:        "/api/networks/{index}/nearest",
		Summary:     "Get nearest sample",
		Description: "Returns the sample closest to a target frequency and, for reflection parameters, its matching grade",
		Tags:        []string{"Networks"},
	}, networkHandler.GetNearest)

	huma.Register(api, huma.Operation{
		OperationID: "reloadNetworks",
		Method:      http.MethodPost,
		Path:        "/api/networks/reload",
		Summary:     "Reload networks",
		Description: "Rescans the measurement source and replaces the loaded set",
		Tags:        []string{"Networks"},
	}, networkHandler.Reload)

	huma.Register(api, huma.Operation{
		OperationID: "getSummary",
		Method:      http.MethodGet,
		Path:        "/api/summary",
		Summary:     "Matching summary",
		Description: "Grades S11 of every loaded network at the target frequency",
		Tags:        []string{"Analysis"},
	}, networkHandler.GetSummary)

	// Register upload routes
	huma.Register(api, huma.Operation{
		OperationID: "createUpload",
		Method:      http.MethodPost,
		Path:        "/api/uploads",
		Summary:     "Create upload URL",
		Description: "Returns a pre-signed URL for uploading a new .s2p measurement file",
		Tags:        []string{"Uploads"},
	}, uploadHandler.CreateUpload)

	// Register stored file routes
	huma.Register(api, huma.Operation{
		OperationID: "downloadNetwork",
		Method:      http.MethodGet,
		Path:        "/api/networks/{index}/download",
		Summary:     "Get download URL",
		Description: "Returns a pre-signed URL for the stored file behind a network",
		Tags:        []string{"Uploads"},
	}, fileHandler.GetDownloadURL)

	huma.Register(api, huma.Operation{
		OperationID: "deleteNetwork",
		Method:      http.MethodDelete,
		Path:        "/api/networks/{index}",
		Summary:     "Delete network",
		Description: "Removes the stored file behind a network and reloads the set",
		Tags:        []string{"Uploads"},
	}, fileHandler.DeleteNetwork)

	// Register report routes
	huma.Register(api, huma.Operation{
		OperationID: "createReport",
		Method:      http.MethodPost,
		Path:        "/api/reports",
		Summary:     "Archive summary",
		Description: "Summarizes the loaded networks and stores the result",
		Tags:        []string{"Reports"},
	}, reportHandler.CreateReport)

	huma.Register(api, huma.Operation{
		OperationID: "listReports",
		Method:      http.MethodGet,
		Path:        "/api/reports",
		Summary:     "List reports",
		Description: "Returns archived summaries, newest first",
		Tags:        []string{"Reports"},
	}, reportHandler.ListReports)

	huma.Register(api, huma.Operation{
		OperationID: "getReport",
		Method:      http.MethodGet,
		Path:        "/api/reports/{id}",
		Summary:     "Get report",
		Description: "Returns one archived summary",
		Tags:        []string{"Reports"},
	}, reportHandler.GetReport)
}
