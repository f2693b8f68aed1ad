package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/spark-advisor/pkg/adapters"
	"github.com/de-tools/spark-advisor/pkg/models/api"
	"github.com/de-tools/spark-advisor/pkg/models/domain"
	"github.com/de-tools/spark-advisor/pkg/services/spark"
	"github.com/de-tools/spark-advisor/pkg/store/duckdb/history"
)

// MaxEvaluateBodyBytes caps the cluster description accepted by Evaluate.
const MaxEvaluateBodyBytes = 1 << 20

// Auditor runs a full audit of the configured target.
type Auditor interface {
	Run(ctx context.Context) (*domain.AuditRun, error)
}

type Handler struct {
	auditor Auditor
	history history.Store
}

// NewHandler creates the audit handlers. historyStore may be nil, in which
// case the history endpoints answer 503.
func NewHandler(auditor Auditor, historyStore history.Store) *Handler {
	return &Handler{
		auditor: auditor,
		history: historyStore,
	}
}

// StartAudit runs an audit synchronously and returns its summary. Clusters
// that failed are reported in the body; only a failed enumeration turns the
// response into a 502.
func (h *Handler) StartAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	run, err := h.auditor.Run(ctx)
	if run == nil {
		logger.Error().Err(err).Msg("audit run failed")
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	status := http.StatusOK
	if err != nil && !errors.Is(err, domain.ErrPartialFailure) {
		logger.Error().Err(err).Str("run_id", run.ID).Msg("audit run aborted")
		status = http.StatusBadGateway
	}

	writeJSON(ctx, w, status, adapters.MapAuditRunDomainToApi(*run))
}

func (h *Handler) ListAudits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.history == nil {
		writeError(ctx, w, http.StatusServiceUnavailable, errors.New("audit history is not configured"))
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	runs, err := h.history.ListRuns(ctx, limit)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to list audit runs")
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	response := make([]api.AuditRun, 0, len(runs))
	for _, run := range runs {
		response = append(response, adapters.MapAuditRunStoreToApi(run))
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

func (h *Handler) ListClusterReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cluster := chi.URLParam(r, "cluster")
	if h.history == nil {
		writeError(ctx, w, http.StatusServiceUnavailable, errors.New("audit history is not configured"))
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	reports, err := h.history.ListClusterReports(ctx, cluster, limit)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("cluster", cluster).Msg("failed to list cluster reports")
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	response := make([]api.ClusterReport, 0, len(reports))
	for _, rep := range reports {
		response = append(response, adapters.MapClusterReportStoreToApi(rep))
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

// Evaluate runs the recommendation engine over a cluster description posted
// by the caller. Nothing is written anywhere.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.EvaluateRequest
	body := http.MaxBytesReader(w, r.Body, MaxEvaluateBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(ctx, w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
			return
		}
		writeError(ctx, w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	shape, props := adapters.MapEvaluateRequestToDomain(req)
	report, err := spark.Evaluate(req.ClusterName, req.MachineType, shape, props)
	if err != nil {
		writeError(ctx, w, http.StatusUnprocessableEntity, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, api.EvaluateResponse{
		Report:   adapters.MapConfigurationReportDomainToApi(report),
		Findings: adapters.MapAuditFindingsDomainToApi(report.Findings),
	})
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return history.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return limit, nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(ctx, w, status, api.ErrorResponse{Error: msg})
}
