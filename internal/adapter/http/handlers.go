package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
)

const sessionHeader = "X-Session-Key"

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

// requestError is a client mistake detected before any forecasting happens.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func (s *Server) handleSites(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.forecaster.Sites())
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	siteID, err := s.catalogSiteID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	detail, err := s.models.ModelDetail(r.Context(), siteID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	siteID, err := pathSiteID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.forecaster.Live(r.Context(), siteID)
	s.writeResult(w, r, result, err)
}

func (s *Server) handleLive24h(w http.ResponseWriter, r *http.Request) {
	siteID, err := pathSiteID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.forecaster.Live24h(r.Context(), siteID)
	s.writeResult(w, r, result, err)
}

// handleHistorical serves observed data for a site. ?hours wins over ?days;
// with neither the prediction API returns the last 30 days.
func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	siteID, err := s.catalogSiteID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var q domain.HistoricalQuery
	if q.Days, err = queryPositiveInt(r, "days"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.Hours, err = queryPositiveInt(r, "hours"); err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.models.Historical(r.Context(), siteID, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	health, err := s.models.ModelsHealth(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleModelMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.models.ModelMetrics(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sub, err := s.readCSVSubmission(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.forecaster.SubmitCSV(r.Context(), sub)
	s.writeResult(w, r, result, err)
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	sub, err := s.readCSVSubmission(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.forecaster.SubmitRaw(r.Context(), sub)
	s.writeResult(w, r, result, err)
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	siteID, err := pathSiteID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var input domain.ManualInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxUpload)).Decode(&input); err != nil {
		s.writeError(w, r, badRequest("invalid manual input: %v", err))
		return
	}

	expand, _ := strconv.ParseBool(r.URL.Query().Get("expand24"))
	result, err := s.forecaster.SubmitManual(r.Context(), domain.ManualSubmission{
		SiteID:     siteID,
		SessionKey: sessionKey(r),
		Input:      input,
		Expand24:   expand,
	})
	s.writeResult(w, r, result, err)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	result, ok := s.forecaster.Latest(r.PathValue("key"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no forecast for this session"})
		return
	}
	s.writeResult(w, r, result, nil)
}

// readCSVSubmission accepts either a multipart form with a "file" part or a
// text/csv body.
func (s *Server) readCSVSubmission(w http.ResponseWriter, r *http.Request) (domain.CSVSubmission, error) {
	siteID, err := pathSiteID(r)
	if err != nil {
		return domain.CSVSubmission{}, err
	}
	sub := domain.CSVSubmission{SiteID: siteID, SessionKey: sessionKey(r)}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			return sub, uploadReadError(err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return sub, badRequest("missing file field")
		}
		defer file.Close()

		if !strings.EqualFold(path.Ext(header.Filename), ".csv") {
			return sub, badRequest("Please upload a CSV file")
		}
		sub.Filename = header.Filename
		if sub.Content, err = io.ReadAll(file); err != nil {
			return sub, uploadReadError(err)
		}
	case "text/csv":
		sub.Filename = r.URL.Query().Get("filename")
		if sub.Filename == "" {
			sub.Filename = "upload.csv"
		}
		if sub.Content, err = io.ReadAll(r.Body); err != nil {
			return sub, uploadReadError(err)
		}
	default:
		return sub, &requestError{status: http.StatusUnsupportedMediaType, msg: "expected multipart/form-data or text/csv"}
	}
	return sub, nil
}

func uploadReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &requestError{status: http.StatusRequestEntityTooLarge, msg: fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)}
	}
	return badRequest("upload read: %v", err)
}

func pathSiteID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("siteID"))
	if err != nil {
		return 0, badRequest("invalid site id %q", r.PathValue("siteID"))
	}
	return id, nil
}

// catalogSiteID parses the path site ID and checks it against the catalog.
func (s *Server) catalogSiteID(r *http.Request) (int, error) {
	siteID, err := pathSiteID(r)
	if err != nil {
		return 0, err
	}
	if _, err := s.forecaster.Site(siteID); err != nil {
		return 0, err
	}
	return siteID, nil
}

func queryPositiveInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, badRequest("%s must be a positive integer, got %q", name, raw)
	}
	return v, nil
}

func sessionKey(r *http.Request) string {
	if k := r.URL.Query().Get("session"); k != "" {
		return k
	}
	return r.Header.Get(sessionHeader)
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, result domain.ForecastResult, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="forecast_site_%d.csv"`, result.SiteID))
		if err := domain.WritePredictionsCSV(w, result.Response.Predictions); err != nil {
			s.logger.Warn("write predictions csv", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeError maps a failure to a status code. Prediction API failures are
// reported as 502 with the upstream message unchanged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr  *requestError
		missing *domain.MissingColumnsError
	)
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, reqErr.status, errorBody{Error: reqErr.msg})
	case errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Missing: missing.Missing})
	case errors.Is(err, domain.ErrInvalidCSV):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrUnknownSite):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrSuperseded):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		s.logger.Warn("forecast request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	}
}
