package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/erp/syncengine/internal/application/integration"
	"github.com/erp/syncengine/internal/domain/integration"
	"github.com/erp/syncengine/internal/domain/shared"
	"github.com/erp/syncengine/internal/interfaces/http/dto"
	"github.com/erp/syncengine/internal/interfaces/http/middleware"
)

// ConfigService manages integration configs
type ConfigService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req integrationapp.CreateIntegrationRequest) (*integrationapp.IntegrationResponse, error)
	Update(ctx context.Context, id uuid.UUID, req integrationapp.UpdateIntegrationRequest) (*integrationapp.IntegrationResponse, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]integrationapp.IntegrationResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*integrationapp.IntegrationResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SyncService runs and inspects sync jobs
type SyncService interface {
	RunSync(ctx context.Context, req integrationapp.RunSyncRequest) (*integrationapp.SyncJobResponse, error)
	RunSyncAsync(ctx context.Context, req integrationapp.RunSyncRequest) (*integrationapp.SyncJobResponse, error)
	CancelJob(ctx context.Context, jobID uuid.UUID) error
	GetSyncJobs(ctx context.Context, integrationID uuid.UUID, limit int) ([]integrationapp.SyncJobResponse, error)
	GetSyncJob(ctx context.Context, jobID uuid.UUID) (*integrationapp.SyncJobResponse, error)
	GetSyncJobErrors(ctx context.Context, jobID uuid.UUID) ([]integrationapp.SyncRecordErrorResponse, error)
}

// ConnectionTester checks connectivity to an external system
type ConnectionTester interface {
	Test(ctx context.Context, id uuid.UUID) (*integrationapp.ConnectionResultResponse, error)
}

// AuditService reads and exports the audit trail
type AuditService interface {
	List(ctx context.Context, integrationID uuid.UUID, limit int) ([]integrationapp.AuditLogResponse, error)
	Export(ctx context.Context, tenantID, integrationID uuid.UUID) (*integrationapp.AuditExportResponse, error)
}

// IntegrationHandler serves /api/v1/integrations. Every route is scoped to
// the caller's tenant; resources of other tenants answer 404.
type IntegrationHandler struct {
	BaseHandler
	configs ConfigService
	syncs   SyncService
	tester  ConnectionTester
	audit   AuditService
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(configs ConfigService, syncs SyncService, tester ConnectionTester, audit AuditService) *IntegrationHandler {
	return &IntegrationHandler{
		configs: configs,
		syncs:   syncs,
		tester:  tester,
		audit:   audit,
	}
}

var errForeignTenant = integration.NewNotFoundError("integration config")

// ownedIntegration binds :id and loads the config, hiding other tenants' rows
func (h *IntegrationHandler) ownedIntegration(c *gin.Context) (uuid.UUID, *integrationapp.IntegrationResponse, bool) {
	tenant, err := tenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return uuid.Nil, nil, false
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return uuid.Nil, nil, false
	}

	cfg, err := h.configs.Get(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, nil, false
	}
	if cfg.TenantID != tenant {
		h.HandleError(c, errForeignTenant)
		return uuid.Nil, nil, false
	}
	return tenant, cfg, true
}

// ownedJob binds :job_id and loads the job, hiding other tenants' jobs
func (h *IntegrationHandler) ownedJob(c *gin.Context) (*integrationapp.SyncJobResponse, bool) {
	tenant, err := tenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return nil, false
	}

	var uri dto.JobIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return nil, false
	}

	job, err := h.syncs.GetSyncJob(c.Request.Context(), uuid.MustParse(uri.JobID))
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	if job.TenantID != tenant {
		h.HandleError(c, integration.NewNotFoundError("sync job"))
		return nil, false
	}
	return job, true
}

func (h *IntegrationHandler) bindLimit(c *gin.Context) (int, bool) {
	var q dto.LimitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return 0, false
	}
	return q.Limit, true
}

// ---------------------------------------------------------------------------
// Integration configs
// ---------------------------------------------------------------------------

// CreateIntegration godoc
// @ID           createIntegration
// @Summary      Create an integration
// @Description  Stores a new integration config. Credentials are encrypted at rest and redacted in the response.
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        request body integrationapp.CreateIntegrationRequest true "Integration config"
// @Success      201 {object} APIResponse[integrationapp.IntegrationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations [post]
func (h *IntegrationHandler) CreateIntegration(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req integrationapp.CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.configs.Create(c.Request.Context(), tenant, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListIntegrations godoc
// @ID           listIntegrations
// @Summary      List integrations
// @Description  Returns the tenant's integrations, newest first
// @Tags         integrations
// @Produce      json
// @Success      200 {object} APIResponse[[]integrationapp.IntegrationResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations [get]
func (h *IntegrationHandler) ListIntegrations(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	list, err := h.configs.List(c.Request.Context(), tenant)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, list, len(list), 0)
}

// GetIntegration godoc
// @ID           getIntegration
// @Summary      Get an integration
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} APIResponse[integrationapp.IntegrationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id} [get]
func (h *IntegrationHandler) GetIntegration(c *gin.Context) {
	_, cfg, ok := h.ownedIntegration(c)
	if !ok {
		return
	}
	h.Success(c, cfg)
}

// UpdateIntegration godoc
// @ID           updateIntegration
// @Summary      Update an integration
// @Description  Partial update. Omitted fields keep their value; config_data replaces the stored credentials as a whole.
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id      path string                                   true "Integration ID" format(uuid)
// @Param        request body integrationapp.UpdateIntegrationRequest true "Fields to change"
// @Success      200 {object} APIResponse[integrationapp.IntegrationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id} [patch]
func (h *IntegrationHandler) UpdateIntegration(c *gin.Context) {
	_, cfg, ok := h.ownedIntegration(c)
	if !ok {
		return
	}

	var req integrationapp.UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.configs.Update(c.Request.Context(), cfg.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteIntegration godoc
// @ID           deleteIntegration
// @Summary      Delete an integration
// @Description  Idempotent. Deleting an unknown integration also answers 204.
// @Tags         integrations
// @Param        id path string true "Integration ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id} [delete]
func (h *IntegrationHandler) DeleteIntegration(c *gin.Context) {
	tenant, err := tenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	id := uuid.MustParse(uri.ID)

	cfg, err := h.configs.Get(c.Request.Context(), id)
	switch {
	case err == nil && cfg.TenantID != tenant:
		// another tenant's row is invisible, so it is already "gone"
		h.NoContent(c)
		return
	case err != nil && shared.CodeOf(err) != integration.CodeNotFound:
		h.HandleError(c, err)
		return
	}

	if err := h.configs.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ---------------------------------------------------------------------------
// Sync jobs
// ---------------------------------------------------------------------------

// RunSync godoc
// @ID           runSync
// @Summary      Run a sync
// @Description  Pushes every local record of data_type to the external system. With async=true the job is returned while still running (202).
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        id      path string                         true "Integration ID" format(uuid)
// @Param        request body integrationapp.RunSyncRequest true "Sync request"
// @Success      200 {object} APIResponse[integrationapp.SyncJobResponse]
// @Success      202 {object} APIResponse[integrationapp.SyncJobResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id}/sync [post]
func (h *IntegrationHandler) RunSync(c *gin.Context) {
	_, cfg, ok := h.ownedIntegration(c)
	if !ok {
		return
	}

	var req integrationapp.RunSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.IntegrationID = cfg.ID

	if req.Async {
		job, err := h.syncs.RunSyncAsync(c.Request.Context(), req)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Accepted(c, job)
		return
	}

	job, err := h.syncs.RunSync(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, job)
}

// GetSyncJobs godoc
// @ID           getSyncJobs
// @Summary      List sync jobs of an integration
// @Tags         sync
// @Produce      json
// @Param        id    path  string true  "Integration ID" format(uuid)
// @Param        limit query int    false "Maximum jobs returned" minimum(1)
// @Success      200 {object} APIResponse[[]integrationapp.SyncJobResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id}/jobs [get]
func (h *IntegrationHandler) GetSyncJobs(c *gin.Context) {
	_, cfg, ok := h.ownedIntegration(c)
	if !ok {
		return
	}
	limit, ok := h.bindLimit(c)
	if !ok {
		return
	}

	jobs, err := h.syncs.GetSyncJobs(c.Request.Context(), cfg.ID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, jobs, len(jobs), limit)
}

// GetSyncJob godoc
// @ID           getSyncJob
// @Summary      Get a sync job
// @Tags         sync
// @Produce      json
// @Param        job_id path string true "Sync job ID" format(uuid)
// @Success      200 {object} APIResponse[integrationapp.SyncJobResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/jobs/{job_id} [get]
func (h *IntegrationHandler) GetSyncJob(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}
	h.Success(c, job)
}

// GetSyncJobErrors godoc
// @ID           getSyncJobErrors
// @Summary      List rejected records of a sync job
// @Tags         sync
// @Produce      json
// @Param        job_id path string true "Sync job ID" format(uuid)
// @Success      200 {object} APIResponse[[]integrationapp.SyncRecordErrorResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/jobs/{job_id}/errors [get]
func (h *IntegrationHandler) GetSyncJobErrors(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}

	errs, err := h.syncs.GetSyncJobErrors(c.Request.Context(), job.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, errs, len(errs), 0)
}

// CancelSyncJob godoc
// @ID           cancelSyncJob
// @Summary      Cancel a running sync job
// @Description  Workers finish the record they hold, then the job fails with "sync cancelled".
// @Tags         sync
// @Produce      json
// @Param        job_id path string true "Sync job ID" format(uuid)
// @Success      202 {object} APIResponse[integrationapp.SyncJobResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/jobs/{job_id}/cancel [post]
func (h *IntegrationHandler) CancelSyncJob(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}

	if err := h.syncs.CancelJob(c.Request.Context(), job.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, job)
}

// ---------------------------------------------------------------------------
// Connection test and audit
// ---------------------------------------------------------------------------

// TestConnection godoc
// @ID           testConnection
// @Summary      Test the connection to the external system
// @Description  A failed test is still a 200; inspect data.success.
// @Tags         integrations
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} APIResponse[integrationapp.ConnectionResultResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id}/test-connection [post]
func (h *IntegrationHandler) TestConnection(c *gin.Context) {
	_, cfg, ok := h.ownedIntegration(c)
	if !ok {
		return
	}

	result, err := h.tester.Test(c.Request.Context(), cfg.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetAuditLogs godoc
// @ID           getAuditLogs
// @Summary      List audit entries of an integration
// @Tags         audit
// @Produce      json
// @Param        id    path  string true  "Integration ID" format(uuid)
// @Param        limit query int    false "Maximum entries returned" minimum(1)
// @Success      200 {object} APIResponse[[]integrationapp.AuditLogResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id}/audit-logs [get]
func (h *IntegrationHandler) GetAuditLogs(c *gin.Context) {
	_, cfg, ok := h.ownedIntegration(c)
	if !ok {
		return
	}
	limit, ok := h.bindLimit(c)
	if !ok {
		return
	}

	entries, err := h.audit.List(c.Request.Context(), cfg.ID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, entries, len(entries), limit)
}

// ExportAuditLogs godoc
// @ID           exportAuditLogs
// @Summary      Export the audit log to object storage
// @Description  Writes the entries as JSON lines and returns a time-limited download location
// @Tags         audit
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} APIResponse[integrationapp.AuditExportResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      501 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /integrations/{id}/audit-logs/export [post]
func (h *IntegrationHandler) ExportAuditLogs(c *gin.Context) {
	tenant, cfg, ok := h.ownedIntegration(c)
	if !ok {
		return
	}

	export, err := h.audit.Export(c.Request.Context(), tenant, cfg.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, export)
}

// RegisterRoutes mounts the routes under /integrations. The static jobs
// segment sits next to :id; gin matches it before the parameter.
func (h *IntegrationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/integrations")
	g.POST("", h.CreateIntegration)
	g.GET("", h.ListIntegrations)

	jobs := g.Group("/jobs")
	jobs.GET("/:job_id", h.GetSyncJob)
	jobs.GET("/:job_id/errors", h.GetSyncJobErrors)
	jobs.POST("/:job_id/cancel", h.CancelSyncJob)

	g.GET("/:id", h.GetIntegration)
	g.PATCH("/:id", h.UpdateIntegration)
	g.DELETE("/:id", h.DeleteIntegration)
	g.POST("/:id/sync", h.RunSync)
	g.GET("/:id/jobs", h.GetSyncJobs)
	g.POST("/:id/test-connection", h.TestConnection)
	g.GET("/:id/audit-logs", h.GetAuditLogs)
	g.POST("/:id/audit-logs/export", h.ExportAuditLogs)
}
