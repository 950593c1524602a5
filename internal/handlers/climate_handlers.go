package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"climate-api/internal/climate"
	"climate-api/internal/models"
	"climate-api/internal/services"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// APIPrefix is the path prefix of the versioned climate routes
const APIPrefix = "/api/v1.0"

// ClimateHandler handles the climate API endpoints
type ClimateHandler struct {
	service  *services.ClimateService
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
	clock    clockwork.Clock
	validate *validator.Validate
}

// NewClimateHandler creates a new climate handler
func NewClimateHandler(
	service *services.ClimateService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
	clock clockwork.Clock,
) *ClimateHandler {
	return &ClimateHandler{
		service:  service,
		logger:   logger,
		metrics:  metricsCollector,
		clock:    clock,
		validate: validator.New(),
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// dateRangeParams binds the {start} and {end} path variables
type dateRangeParams struct {
	Start string `validate:"required,datetime=2006-01-02"`
	End   string `validate:"omitempty,datetime=2006-01-02"`
}

var indexTemplate = template.Must(template.New("index").Parse(`Welcome to the Hawaii Weather API!<br/>
Available Routes:<br/>
{{.Prefix}}/precipitation<br/>
{{.Prefix}}/stations<br/>
{{.Prefix}}/tobs<br/>
{{.Prefix}}/&lt;start&gt; and {{.Prefix}}/&lt;start&gt;/&lt;end&gt;<br/>
Data from {{.Extent.Start}} to {{.Extent.End}}`))

// Index handles GET /
func (h *ClimateHandler) Index(w http.ResponseWriter, r *http.Request) {
	extent, err := h.service.Extent(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := indexTemplate.Execute(w, map[string]interface{}{
		"Prefix": APIPrefix,
		"Extent": extent,
	}); err != nil {
		h.logger.Error(r.Context(), "[API_INDEX_RENDER_ERROR] Failed to render index", logging.Fields{}, err)
	}
}

// GetPrecipitation handles GET /api/v1.0/precipitation
func (h *ClimateHandler) GetPrecipitation(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Precipitation(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, r, result, http.StatusOK)
}

// GetStations handles GET /api/v1.0/stations
func (h *ClimateHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Stations(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, r, result, http.StatusOK)
}

// GetTemperatureObservations handles GET /api/v1.0/tobs
func (h *ClimateHandler) GetTemperatureObservations(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.TemperatureObservations(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, r, result, http.StatusOK)
}

// GetTemperatureStats handles GET /api/v1.0/{start} and
// GET /api/v1.0/{start}/{end}
func (h *ClimateHandler) GetTemperatureStats(w http.ResponseWriter, r *http.Request) {
	dateRange, err := h.bindDateRange(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.service.TemperatureStats(r.Context(), dateRange)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.sendJSON(w, r, result, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *ClimateHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"database":  "ok",
		"timestamp": h.clock.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := h.service.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK_FAILED] Dataset unreachable", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{
		"status": status["status"],
	})
	h.sendJSON(w, r, status, code)
}

// bindDateRange validates the path variables and builds the inclusive range
func (h *ClimateHandler) bindDateRange(r *http.Request) (models.DateRange, error) {
	vars := mux.Vars(r)
	params := dateRangeParams{Start: vars["start"], End: vars["end"]}

	if err := h.validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			value, _ := verrs[0].Value().(string)
			return models.DateRange{}, &models.InvalidDateError{
				Value:  value,
				Reason: "expected a YYYY-MM-DD calendar date",
			}
		}
		return models.DateRange{}, err
	}

	if params.End == "" {
		return climate.OpenDateRange(params.Start)
	}
	return climate.NewDateRange(params.Start, params.End)
}

// handleError maps typed errors onto HTTP responses
func (h *ClimateHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	endpoint := routeTemplate(r)

	var (
		invalidDate    *models.InvalidDateError
		emptyDataset   *models.EmptyDatasetError
		unknownStation *models.UnknownStationError
	)

	status := http.StatusInternalServerError
	errorType := "internal_error"
	message := "failed to answer query"

	switch {
	case errors.As(err, &invalidDate):
		status, errorType, message = http.StatusBadRequest, "invalid_date", invalidDate.Error()
	case errors.As(err, &emptyDataset):
		errorType, message = "empty_dataset", emptyDataset.Error()
	case errors.As(err, &unknownStation):
		errorType, message = "unknown_station", unknownStation.Error()
	}

	fields := logging.Fields{
		"endpoint":   endpoint,
		"error_type": errorType,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(ctx, "[API_ERROR] Request failed", fields, err)
	} else {
		fields["error"] = err.Error()
		h.logger.Warn(ctx, "[API_BAD_REQUEST] Request rejected", fields)
	}

	h.metrics.RecordAPIError(errorType, endpoint)
	writeError(w, message, status)
}

// sendJSON sends a JSON response
func (h *ClimateHandler) sendJSON(w http.ResponseWriter, r *http.Request, data interface{}, statusCode int) {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Error(r.Context(), "[API_ENCODE_ERROR] Failed to encode response", logging.Fields{
			"endpoint": routeTemplate(r),
		}, err)
		writeError(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(append(body, '\n'))
}

// writeError sends an error response
func writeError(w http.ResponseWriter, message string, statusCode int) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers all climate API routes. The fixed routes are
// added before {start} so their names are never parsed as dates.
func (h *ClimateHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")

	api := router.PathPrefix(APIPrefix).Subrouter()
	api.HandleFunc("/precipitation", h.GetPrecipitation).Methods("GET")
	api.HandleFunc("/stations", h.GetStations).Methods("GET")
	api.HandleFunc("/tobs", h.GetTemperatureObservations).Methods("GET")
	api.HandleFunc("/{start}", h.GetTemperatureStats).Methods("GET")
	api.HandleFunc("/{start}/{end}", h.GetTemperatureStats).Methods("GET")
}
