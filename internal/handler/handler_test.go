package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rentsystem/internal/model"
	"rentsystem/internal/repository"
	"rentsystem/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// 服务桩
// ============================================================

type stubAccountService struct {
	account    *model.RentalAccount
	listResult *service.ListResult
	count      int64
	err        error
}

func (s *stubAccountService) Create(ctx context.Context, req *service.CreateAccountRequest) (*model.RentalAccount, error) {
	return s.account, s.err
}

func (s *stubAccountService) Get(ctx context.Context, id string) (*model.RentalAccount, error) {
	return s.account, s.err
}

func (s *stubAccountService) Update(ctx context.Context, id string, req *service.UpdateAccountRequest) (*model.RentalAccount, error) {
	return s.account, s.err
}

func (s *stubAccountService) Delete(ctx context.Context, id string) error {
	return s.err
}

func (s *stubAccountService) Rent(ctx context.Context, id string, req *service.RentRequest) (*model.RentalAccount, error) {
	return s.account, s.err
}

func (s *stubAccountService) Complete(ctx context.Context, id string, req *service.CompleteRequest) (*model.RentalAccount, error) {
	return s.account, s.err
}

func (s *stubAccountService) BatchSetStatus(ctx context.Context, ids []string, status string) (int64, error) {
	return s.count, s.err
}

func (s *stubAccountService) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	return s.count, s.err
}

func (s *stubAccountService) List(ctx context.Context, filter repository.ListFilter) (*service.ListResult, error) {
	return s.listResult, s.err
}

type stubReportService struct {
	stats  *service.Statistics
	report *service.ProfitReport
	err    error
}

func (s *stubReportService) Statistics(ctx context.Context) (*service.Statistics, error) {
	return s.stats, s.err
}

func (s *stubReportService) GetProfitReport(ctx context.Context, password string) (*service.ProfitReport, error) {
	return s.report, s.err
}

func (s *stubReportService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return s.err
}

type stubExportService struct {
	accounts []*model.RentalAccount
	err      error
}

func (s *stubExportService) Export(ctx context.Context, format, status string) ([]*model.RentalAccount, error) {
	return s.accounts, s.err
}

func newTestRouter(acc accountOps, rep reportOps, exp exportOps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, &Handler{
		accountService: acc,
		reportService:  rep,
		exportService:  exp,
	})
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalPages int64 `json:"totalPages"`
	} `json:"pagination"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

// ============================================================
// 用例
// ============================================================

func TestListAccountsPagination(t *testing.T) {
	second := &model.RentalAccount{ID: "a2", OrderNumber: "NO.000002", Status: model.StatusInventory}
	r := newTestRouter(&stubAccountService{
		listResult: &service.ListResult{
			Accounts:   []*model.RentalAccount{second},
			Total:      3,
			Page:       2,
			Limit:      1,
			TotalPages: 3,
		},
	}, &stubReportService{}, &stubExportService{})

	w := doRequest(t, r, http.MethodGet, "/api/accounts?page=2&limit=1", "")

	require.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	assert.True(t, e.Success)
	require.NotNil(t, e.Pagination)
	assert.Equal(t, int64(3), e.Pagination.Total)
	assert.Equal(t, 2, e.Pagination.Page)
	assert.Equal(t, int64(3), e.Pagination.TotalPages)

	var accounts []model.RentalAccount
	require.NoError(t, json.Unmarshal(e.Data, &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "NO.000002", accounts[0].OrderNumber)
}

func TestCreateAccountCreated(t *testing.T) {
	created := &model.RentalAccount{
		ID:          "a1",
		OrderNumber: "NO.000001",
		Status:      model.StatusInventory,
	}
	r := newTestRouter(&stubAccountService{account: created}, &stubReportService{}, &stubExportService{})

	w := doRequest(t, r, http.MethodPost, "/api/accounts",
		`{"pureCoins":500,"staminaLevel":3,"insuranceSlots":4,"accountLevel":20,"wechatId":"abc"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	e := decodeEnvelope(t, w)
	assert.True(t, e.Success)
	assert.Equal(t, "账号创建成功", e.Message)

	var account model.RentalAccount
	require.NoError(t, json.Unmarshal(e.Data, &account))
	assert.Equal(t, "NO.000001", account.OrderNumber)
	assert.Equal(t, model.StatusInventory, account.Status)
}

func TestCreateAccountValidationError(t *testing.T) {
	r := newTestRouter(&stubAccountService{
		err: &service.ValidationError{Field: "staminaLevel", Message: "体力等级必须在1-7之间"},
	}, &stubReportService{}, &stubExportService{})

	w := doRequest(t, r, http.MethodPost, "/api/accounts",
		`{"pureCoins":500,"staminaLevel":9,"insuranceSlots":4,"accountLevel":20,"wechatId":"abc"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decodeEnvelope(t, w)
	assert.False(t, e.Success)
	assert.Equal(t, "体力等级必须在1-7之间", e.Message)
}

func TestGetAccountNotFound(t *testing.T) {
	r := newTestRouter(&stubAccountService{err: repository.ErrAccountNotFound},
		&stubReportService{}, &stubExportService{})

	w := doRequest(t, r, http.MethodGet, "/api/accounts/missing", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	e := decodeEnvelope(t, w)
	assert.False(t, e.Success)
	assert.Equal(t, "账号不存在", e.Message)
}

func TestRentAccountInvalidTransition(t *testing.T) {
	r := newTestRouter(&stubAccountService{
		err: &service.TransitionError{Message: "只能出租库存状态的账号"},
	}, &stubReportService{}, &stubExportService{})

	w := doRequest(t, r, http.MethodPost, "/api/accounts/a1/rent",
		`{"bossWechatId":"boss1","baseCost":100,"basePrice":200}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decodeEnvelope(t, w)
	assert.False(t, e.Success)
	assert.Equal(t, "只能出租库存状态的账号", e.Message)
}

func TestCompleteAccountOK(t *testing.T) {
	completed := &model.RentalAccount{ID: "a1", Status: model.StatusCompleted}
	r := newTestRouter(&stubAccountService{account: completed},
		&stubReportService{}, &stubExportService{})

	w := doRequest(t, r, http.MethodPost, "/api/accounts/a1/complete",
		`{"extraCost":10,"extraPrice":50}`)

	require.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	assert.True(t, e.Success)
	assert.Equal(t, "订单结算成功", e.Message)
}

func TestBatchUpdateStatusCount(t *testing.T) {
	r := newTestRouter(&stubAccountService{count: 1},
		&stubReportService{}, &stubExportService{})

	w := doRequest(t, r, http.MethodPut, "/api/accounts/batch/status",
		`{"ids":["A","B"],"status":"rented"}`)

	require.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	assert.True(t, e.Success)

	var data struct {
		UpdatedCount int64 `json:"updatedCount"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, int64(1), data.UpdatedCount)
}

func TestBatchUpdateStatusInvalid(t *testing.T) {
	r := newTestRouter(&stubAccountService{
		err: &service.ValidationError{Field: "status", Message: "无效的状态值"},
	}, &stubReportService{}, &stubExportService{})

	w := doRequest(t, r, http.MethodPut, "/api/accounts/batch/status",
		`{"ids":["A"],"status":"broken"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decodeEnvelope(t, w)
	assert.False(t, e.Success)
	assert.Equal(t, "无效的状态值", e.Message)
}

func TestBatchDeleteCount(t *testing.T) {
	r := newTestRouter(&stubAccountService{count: 2},
		&stubReportService{}, &stubExportService{})

	w := doRequest(t, r, http.MethodDelete, "/api/accounts/batch", `{"ids":["A","B"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	assert.True(t, e.Success)

	var data struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, int64(2), data.DeletedCount)
}

func TestStatistics(t *testing.T) {
	r := newTestRouter(&stubAccountService{}, &stubReportService{
		stats: &service.Statistics{Total: 4, Inventory: 1, Rented: 2, Completed: 1},
	}, &stubExportService{})

	w := doRequest(t, r, http.MethodGet, "/api/statistics", "")

	require.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	assert.True(t, e.Success)

	var stats service.Statistics
	require.NoError(t, json.Unmarshal(e.Data, &stats))
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Rented)
}

func TestProfitReportWrongPassword(t *testing.T) {
	r := newTestRouter(&stubAccountService{}, &stubReportService{
		err: service.ErrPasswordMismatch,
	}, &stubExportService{})

	w := doRequest(t, r, http.MethodPost, "/api/reports/profit", `{"password":"wrong"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	e := decodeEnvelope(t, w)
	assert.False(t, e.Success)
	assert.Equal(t, "密码错误", e.Message)
	// 数据不能跟着错误一起带出去
	assert.Nil(t, e.Data)
}

func TestProfitReportOK(t *testing.T) {
	r := newTestRouter(&stubAccountService{}, &stubReportService{
		report: &service.ProfitReport{
			Summary: service.ProfitSummary{TotalProfit: 140, TotalOrders: 1, AverageProfit: 140},
			Details: []service.ProfitDetail{{OrderNumber: "NO.000001", Profit: 140}},
		},
	}, &stubExportService{})

	w := doRequest(t, r, http.MethodPost, "/api/reports/profit", `{"password":"papamiao1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	e := decodeEnvelope(t, w)
	assert.True(t, e.Success)

	var report service.ProfitReport
	require.NoError(t, json.Unmarshal(e.Data, &report))
	assert.Equal(t, 140.0, report.Summary.TotalProfit)
	require.Len(t, report.Details, 1)
	assert.Equal(t, "NO.000001", report.Details[0].OrderNumber)
}

func TestChangePasswordWrongOld(t *testing.T) {
	r := newTestRouter(&stubAccountService{}, &stubReportService{
		err: service.ErrOldPasswordMismatch,
	}, &stubExportService{})

	w := doRequest(t, r, http.MethodPut, "/api/config/password",
		`{"oldPassword":"wrong","newPassword":"next"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	e := decodeEnvelope(t, w)
	assert.False(t, e.Success)
	assert.Equal(t, "原密码错误", e.Message)
}

func TestExportCSV(t *testing.T) {
	r := newTestRouter(&stubAccountService{}, &stubReportService{}, &stubExportService{
		accounts: []*model.RentalAccount{
			{OrderNumber: "NO.000001", PureCoins: 500, Status: model.StatusInventory},
		},
	})

	w := doRequest(t, r, http.MethodGet, "/api/export?format=csv", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=accounts_")

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "\uFEFF"))
	assert.Contains(t, body, "订单号")
	assert.Contains(t, body, "NO.000001")
}

func TestExportJSON(t *testing.T) {
	r := newTestRouter(&stubAccountService{}, &stubReportService{}, &stubExportService{
		accounts: []*model.RentalAccount{
			{OrderNumber: "NO.000001"},
			{OrderNumber: "NO.000002"},
		},
	})

	w := doRequest(t, r, http.MethodGet, "/api/export", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".json")

	var export service.JSONExport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &export))
	assert.Equal(t, 2, export.TotalCount)
	require.Len(t, export.Data, 2)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubAccountService{}, &stubReportService{}, &stubExportService{})

	w := doRequest(t, r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
}
