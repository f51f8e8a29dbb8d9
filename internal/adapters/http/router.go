package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/tbraverman/leaselens/internal/core/domain"
	"github.com/tbraverman/leaselens/internal/core/ports"
	"github.com/tbraverman/leaselens/internal/core/usecase"
)

type RouterOptions struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

type Router struct {
	ingestUC *usecase.IngestDocumentUseCase
	queryUC  *usecase.QueryUseCase
	repo     ports.DocumentRepository
	exporter ports.ReportExporter
	limiter  *ipRateLimiter
}

func NewRouter(
	ingestUC *usecase.IngestDocumentUseCase,
	queryUC *usecase.QueryUseCase,
	repo ports.DocumentRepository,
	exporter ports.ReportExporter,
	opts RouterOptions,
) *Router {
	return &Router{
		ingestUC: ingestUC,
		queryUC:  queryUC,
		repo:     repo,
		exporter: exporter,
		limiter:  newIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/leases", rt.listLeases)
	mux.HandleFunc("/v1/leases/", rt.leaseSubresource)
	mux.HandleFunc("/v1/conflicts", rt.listConflicts)
	mux.HandleFunc("/v1/conflicts/report", rt.conflictReport)
	mux.HandleFunc("/v1/conflicts/", rt.resolveConflict)
	mux.HandleFunc("/v1/analytics", rt.analytics)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(rt.limiter, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestUC.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listLeases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	groups, err := rt.queryUC.ListLeases(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	summaries := make([]leaseSummary, 0, len(groups))
	for i := range groups {
		summaries = append(summaries, summarizeGroup(&groups[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"leases": summaries})
}

// leaseSubresource dispatches /v1/leases/{id}, /v1/leases/{id}/history, and
// /v1/leases/{id}/conflicts.
func (rt *Router) leaseSubresource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/leases/")
	leaseID, sub, _ := strings.Cut(rest, "/")
	if leaseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lease id is required"})
		return
	}

	switch sub {
	case "":
		group, err := rt.queryUC.GetLease(r.Context(), leaseID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, group)
	case "history":
		history, err := rt.queryUC.History(r.Context(), leaseID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lease_id": leaseID, "amendments": history})
	case "conflicts":
		conflicts, err := rt.queryUC.ListConflicts(r.Context(), leaseID, domain.ConflictStatus(r.URL.Query().Get("status")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lease_id": leaseID, "conflicts": conflicts})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown lease resource"})
	}
}

func (rt *Router) listConflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	conflicts, err := rt.queryUC.ListConflicts(r.Context(), "", domain.ConflictStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

// resolveConflict handles POST /v1/conflicts/{id}/resolution.
func (rt *Router) resolveConflict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/conflicts/")
	conflictID, action, _ := strings.Cut(rest, "/")
	if conflictID == "" || action != "resolution" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown conflict resource"})
		return
	}

	var req struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	decision := domain.ConflictStatus(req.Decision)
	if decision != domain.ConflictResolved && decision != domain.ConflictIgnored {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "decision must be resolved or ignored"})
		return
	}

	record, err := rt.queryUC.Resolve(r.Context(), conflictID, decision)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (rt *Router) conflictReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.exporter == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "report export is not configured"})
		return
	}

	groups, err := rt.queryUC.ListLeases(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := rt.exporter.ConflictReport(r.Context(), groups)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="conflict_report.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, report)
}

func (rt *Router) analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	summary, err := rt.queryUC.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// leaseSummary is the list-view projection of a group.
type leaseSummary struct {
	LeaseID       string       `json:"lease_id"`
	Tenant        string       `json:"tenant"`
	Landlord      string       `json:"landlord"`
	Address       string       `json:"property_address"`
	MonthlyRent   domain.Cents `json:"base_rent_monthly"`
	Confidence    float64      `json:"confidence"`
	Amendments    int          `json:"amendments"`
	OpenConflicts int          `json:"open_conflicts"`
}

func summarizeGroup(g *domain.LeaseGroup) leaseSummary {
	return leaseSummary{
		LeaseID:       g.LeaseID,
		Tenant:        g.Merged.Tenant.LegalName,
		Landlord:      g.Merged.Landlord.LegalName,
		Address:       g.Merged.PropertyAddress.String(),
		MonthlyRent:   g.Merged.BaseRentMonthly,
		Confidence:    g.Merged.Confidence,
		Amendments:    len(g.Amendments),
		OpenConflicts: len(g.OpenConflicts()),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
