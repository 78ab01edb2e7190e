package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"rentsystem/internal/config"
	"rentsystem/internal/model"
	"rentsystem/internal/repository"
	"rentsystem/internal/service"
	"rentsystem/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// 依赖注入用的窄接口，测试时替换为桩实现
type accountOps interface {
	Create(ctx context.Context, req *service.CreateAccountRequest) (*model.RentalAccount, error)
	Get(ctx context.Context, id string) (*model.RentalAccount, error)
	Update(ctx context.Context, id string, req *service.UpdateAccountRequest) (*model.RentalAccount, error)
	Delete(ctx context.Context, id string) error
	Rent(ctx context.Context, id string, req *service.RentRequest) (*model.RentalAccount, error)
	Complete(ctx context.Context, id string, req *service.CompleteRequest) (*model.RentalAccount, error)
	BatchSetStatus(ctx context.Context, ids []string, status string) (int64, error)
	BatchDelete(ctx context.Context, ids []string) (int64, error)
	List(ctx context.Context, filter repository.ListFilter) (*service.ListResult, error)
}

type reportOps interface {
	Statistics(ctx context.Context) (*service.Statistics, error)
	GetProfitReport(ctx context.Context, password string) (*service.ProfitReport, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}

type exportOps interface {
	Export(ctx context.Context, format, status string) ([]*model.RentalAccount, error)
}

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	accountService accountOps
	reportService  reportOps
	exportService  exportOps
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		accountService: service.NewAccountService(db, rdb, cfg),
		reportService:  service.NewReportService(db, rdb, cfg),
		exportService:  service.NewExportService(db),
	}
}

// respondServiceError 业务错误统一映射为响应码
func respondServiceError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	var tErr *service.TransitionError

	switch {
	case errors.As(err, &vErr):
		response.ParamError(c, vErr.Message)
	case errors.As(err, &tErr):
		response.ParamError(c, tErr.Message)
	case errors.Is(err, repository.ErrAccountNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrOldPasswordMismatch):
		response.Unauthorized(c, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// ============================================================
// 账号管理接口
// ============================================================

// ListAccounts 账号列表
// GET /api/accounts?status=&search=&page=1&limit=50
func (h *Handler) ListAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	result, err := h.accountService.List(c.Request.Context(), repository.ListFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Paged(c, result.Accounts, &response.Pagination{
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	})
}

// GetAccount 单个账号
// GET /api/accounts/:id
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.accountService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, account)
}

// CreateAccount 报单
// POST /api/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	account, err := h.accountService.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Created(c, account, "账号创建成功")
}

// UpdateAccount 改单
// PUT /api/accounts/:id
func (h *Handler) UpdateAccount(c *gin.Context) {
	var req service.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	account, err := h.accountService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, account, "账号更新成功")
}

// DeleteAccount 删除账号
// DELETE /api/accounts/:id
func (h *Handler) DeleteAccount(c *gin.Context) {
	if err := h.accountService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, nil, "账号删除成功")
}

// ============================================================
// 租赁管理接口
// ============================================================

// RentAccount 出租
// POST /api/accounts/:id/rent
func (h *Handler) RentAccount(c *gin.Context) {
	var req service.RentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	account, err := h.accountService.Rent(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, account, "账号出租成功")
}

// CompleteAccount 结单
// POST /api/accounts/:id/complete
func (h *Handler) CompleteAccount(c *gin.Context) {
	var req service.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	account, err := h.accountService.Complete(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, account, "订单结算成功")
}

// ============================================================
// 批量操作接口
// ============================================================

// BatchStatusRequest 批量改状态请求
type BatchStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// BatchUpdateStatus 批量改状态
// PUT /api/accounts/batch/status
func (h *Handler) BatchUpdateStatus(c *gin.Context) {
	var req BatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	updated, err := h.accountService.BatchSetStatus(c.Request.Context(), req.IDs, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, gin.H{"updatedCount": updated},
		"成功更新 "+strconv.FormatInt(updated, 10)+" 个账号的状态")
}

// BatchDeleteRequest 批量删除请求
type BatchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BatchDelete 批量删除
// DELETE /api/accounts/batch
func (h *Handler) BatchDelete(c *gin.Context) {
	var req BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	deleted, err := h.accountService.BatchDelete(c.Request.Context(), req.IDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, gin.H{"deletedCount": deleted},
		"成功删除 "+strconv.FormatInt(deleted, 10)+" 个账号")
}

// ============================================================
// 统计和报表接口
// ============================================================

// GetStatistics 状态统计
// GET /api/statistics
func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.reportService.Statistics(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// ProfitReportRequest 利润报表请求
type ProfitReportRequest struct {
	Password string `json:"password"`
}

// GetProfitReport 利润报表，密码验证
// POST /api/reports/profit
func (h *Handler) GetProfitReport(c *gin.Context) {
	var req ProfitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	report, err := h.reportService.GetProfitReport(c.Request.Context(), req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, report)
}

// ChangePasswordRequest 修改报表密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword 修改报表密码
// PUT /api/config/password
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.reportService.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithMessage(c, nil, "密码更新成功")
}

// ============================================================
// 数据导出接口
// ============================================================

// ExportAccounts 数据导出
// GET /api/export?format=json|csv&status=
func (h *Handler) ExportAccounts(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	status := c.Query("status")

	accounts, err := h.exportService.Export(c.Request.Context(), format, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if format == "csv" {
		content := service.BuildCSV(accounts)
		c.Header("Content-Disposition", "attachment; filename="+service.ExportFilename("csv"))
		c.Data(200, "text/csv; charset=utf-8", content)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+service.ExportFilename("json"))
	c.JSON(200, service.JSONExport{
		ExportDate: time.Now(),
		TotalCount: len(accounts),
		Data:       accounts,
	})
}
