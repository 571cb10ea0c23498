package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vfxhub/internal/models"
	"github.com/starford/vfxhub/internal/query"
	"github.com/starford/vfxhub/internal/repository"
	"github.com/starford/vfxhub/internal/studio"
)

// Handler holds API route handlers.
type Handler struct {
	svc *studio.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *studio.Service) *Handler {
	return &Handler{svc: svc}
}

// recordID parses the {id} URL parameter. It writes a 400 and returns false
// when the parameter is not an integer.
func recordID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return 0, false
	}
	return id, true
}

// ifMatch returns the If-Match header without surrounding quotes (standard
// ETag format).
func ifMatch(r *http.Request) string {
	return strings.Trim(r.Header.Get("If-Match"), `"`)
}

// filterValue maps the "all" selector used by the UI filters to an empty
// filter.
func filterValue(v string) string {
	if v == "all" {
		return ""
	}
	return v
}

func setVersion(w http.ResponseWriter, record any) {
	w.Header().Set("ETag", `"`+repository.Version(record)+`"`)
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects
//	@Tags			projects
//	@Produce		json
//	@Param			q		query		string	false	"Search title, client and description"
//	@Param			status	query		string	false	"Project status"	Enums(all, pre-production, in-progress, review, complete)
//	@Param			sort	query		string	false	"Sort field"		Enums(dueDate)
//	@Success		200		{object}	ProjectListResponse
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListProjects(r.Context(), query.Criteria{
		Search:    q.Get("q"),
		Category:  filterValue(q.Get("status")),
		SortByDue: q.Get("sort") == "dueDate",
	})
	if err != nil {
		writeServiceError(w, "list projects", err)
		return
	}
	if items == nil {
		items = []models.Project{}
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: items, Total: len(items)})
}

// GetProject handles GET /api/projects/{id}.
//
//	@Summary		Get a project
//	@Tags			projects
//	@Produce		json
//	@Param			id	path		int	true	"Project Id"
//	@Success		200	{object}	models.Project
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetProject(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get project", err)
		return
	}
	setVersion(w, p)
	writeJSON(w, http.StatusOK, p)
}

// CreateProject handles POST /api/projects.
//
//	@Summary		Create a project
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Project	true	"Project to create"
//	@Success		201		{object}	models.Project
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var p models.Project
	if !decodeBody(w, r, &p) {
		return
	}
	created, err := h.svc.CreateProject(r.Context(), p)
	if err != nil {
		writeServiceError(w, "create project", err)
		return
	}
	setVersion(w, created)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateProject handles PATCH /api/projects/{id}. The body is a merge patch.
//
//	@Summary		Update a project with optimistic concurrency
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			id			path	int		true	"Project Id"
//	@Param			If-Match	header	string	false	"Version stamp from ETag"
//	@Success		200			{object}	models.Project
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id} [patch]
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	var patch map[string]any
	if !decodeBody(w, r, &patch) {
		return
	}
	p, err := h.svc.UpdateProject(r.Context(), id, patch, ifMatch(r))
	if err != nil {
		writeServiceError(w, "update project", err)
		return
	}
	setVersion(w, p)
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/projects/{id}. Assets and milestones
// referencing the project are left in place.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteProject(r.Context(), id, ifMatch(r)); err != nil {
		writeServiceError(w, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProjectAssets handles GET /api/projects/{id}/assets.
func (h *Handler) ProjectAssets(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.GetProject(r.Context(), id); err != nil {
		writeServiceError(w, "get project", err)
		return
	}
	items, err := h.svc.ProjectAssets(r.Context(), id)
	if err != nil {
		writeServiceError(w, "list project assets", err)
		return
	}
	writeJSON(w, http.StatusOK, AssetListResponse{Assets: items, Total: len(items)})
}

// ProjectMilestones handles GET /api/projects/{id}/milestones.
func (h *Handler) ProjectMilestones(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.GetProject(r.Context(), id); err != nil {
		writeServiceError(w, "get project", err)
		return
	}
	items, err := h.svc.ProjectMilestones(r.Context(), id)
	if err != nil {
		writeServiceError(w, "list project milestones", err)
		return
	}
	writeJSON(w, http.StatusOK, MilestoneListResponse{Milestones: items, Total: len(items)})
}

// ListAssets handles GET /api/assets.
//
//	@Summary		List assets
//	@Tags			assets
//	@Produce		json
//	@Param			q			query		string	false	"Search file name and tags"
//	@Param			type		query		string	false	"Asset category"	Enums(all, image, video, model, other)
//	@Param			projectId	query		string	false	"Project Id or all"
//	@Success		200			{object}	AssetListResponse
//	@Security		BearerAuth
//	@Router			/assets [get]
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListAssets(r.Context(), query.Criteria{
		Search:    q.Get("q"),
		Category:  q.Get("type"),
		ProjectID: filterValue(q.Get("projectId")),
	})
	if err != nil {
		writeServiceError(w, "list assets", err)
		return
	}
	writeJSON(w, http.StatusOK, AssetListResponse{Assets: items, Total: len(items)})
}

// GetAsset handles GET /api/assets/{id}.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	a, err := h.svc.GetAsset(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get asset", err)
		return
	}
	setVersion(w, a.Asset)
	writeJSON(w, http.StatusOK, a)
}

// CreateAsset handles POST /api/assets. It stores metadata only; file
// bytes go through POST /api/uploads.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var a models.Asset
	if !decodeBody(w, r, &a) {
		return
	}
	created, err := h.svc.CreateAsset(r.Context(), a)
	if err != nil {
		writeServiceError(w, "create asset", err)
		return
	}
	setVersion(w, created)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateAsset handles PATCH /api/assets/{id}.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	var patch map[string]any
	if !decodeBody(w, r, &patch) {
		return
	}
	a, err := h.svc.UpdateAsset(r.Context(), id, patch, ifMatch(r))
	if err != nil {
		writeServiceError(w, "update asset", err)
		return
	}
	setVersion(w, a)
	writeJSON(w, http.StatusOK, a)
}

// DeleteAsset handles DELETE /api/assets/{id}.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteAsset(r.Context(), id, ifMatch(r)); err != nil {
		writeServiceError(w, "delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMilestones handles GET /api/milestones. Results are always in due
// date order.
//
//	@Summary		List milestones
//	@Tags			milestones
//	@Produce		json
//	@Param			q			query		string	false	"Search title and description"
//	@Param			projectId	query		string	false	"Project Id or all"
//	@Param			bucket		query		string	false	"Status bucket"	Enums(all, completed, pending, overdue, today)
//	@Success		200			{object}	MilestoneListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/milestones [get]
func (h *Handler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bucket, err := query.ParseBucket(q.Get("bucket"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	items, err := h.svc.ListMilestones(r.Context(), query.Criteria{
		Search:    q.Get("q"),
		ProjectID: filterValue(q.Get("projectId")),
		Bucket:    bucket,
	})
	if err != nil {
		writeServiceError(w, "list milestones", err)
		return
	}
	writeJSON(w, http.StatusOK, MilestoneListResponse{Milestones: items, Total: len(items)})
}

// MilestoneCounts handles GET /api/milestones/counts.
//
//	@Summary		Milestone totals per status bucket
//	@Tags			milestones
//	@Produce		json
//	@Param			projectId	query		string	false	"Project Id or all"
//	@Success		200			{object}	query.StatusCounts
//	@Security		BearerAuth
//	@Router			/milestones/counts [get]
func (h *Handler) MilestoneCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.MilestoneCounts(r.Context(), filterValue(r.URL.Query().Get("projectId")))
	if err != nil {
		writeServiceError(w, "count milestones", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// GetMilestone handles GET /api/milestones/{id}.
func (h *Handler) GetMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	m, err := h.svc.GetMilestone(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get milestone", err)
		return
	}
	setVersion(w, m.Milestone)
	writeJSON(w, http.StatusOK, m)
}

// CreateMilestone handles POST /api/milestones.
func (h *Handler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	var m models.Milestone
	if !decodeBody(w, r, &m) {
		return
	}
	created, err := h.svc.CreateMilestone(r.Context(), m)
	if err != nil {
		writeServiceError(w, "create milestone", err)
		return
	}
	setVersion(w, created)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateMilestone handles PATCH /api/milestones/{id}. Toggling completion
// is a patch of {"completed": true}.
func (h *Handler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	var patch map[string]any
	if !decodeBody(w, r, &patch) {
		return
	}
	m, err := h.svc.UpdateMilestone(r.Context(), id, patch, ifMatch(r))
	if err != nil {
		writeServiceError(w, "update milestone", err)
		return
	}
	setVersion(w, m)
	writeJSON(w, http.StatusOK, m)
}

// DeleteMilestone handles DELETE /api/milestones/{id}.
func (h *Handler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteMilestone(r.Context(), id, ifMatch(r)); err != nil {
		writeServiceError(w, "delete milestone", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
