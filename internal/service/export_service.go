package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"rentsystem/internal/model"
	"rentsystem/internal/repository"

	"gorm.io/gorm"
)

// ExportService 数据导出
type ExportService struct {
	accountRepo *repository.AccountRepository
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{
		accountRepo: repository.NewAccountRepository(db),
	}
}

// csvHeader 导出列顺序固定，和前端表格保持一致
var csvHeader = []string{
	"订单号", "纯币数量", "体力等级", "保险格子", "账号等级",
	"AWM子弹", "7.62*51子弹", "7.62*54子弹", "6.8子弹",
	"满耐久6头", "满耐久6甲", "接受账密", "付费刀皮",
	"仓库限制", "号主备注", "微信号", "老板微信", "状态",
	"基础成本", "基础售价", "增值成本", "增值售价", "创建时间",
}

// ExportResult 导出内容
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// JSONExport JSON 导出外层结构
type JSONExport struct {
	ExportDate time.Time              `json:"exportDate"`
	TotalCount int                    `json:"totalCount"`
	Data       []*model.RentalAccount `json:"data"`
}

// Export 按状态筛选后导出，format 支持 json/csv
func (s *ExportService) Export(ctx context.Context, format, status string) ([]*model.RentalAccount, error) {
	accounts, err := s.accountRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []*model.RentalAccount{}
	}
	return accounts, nil
}

// BuildCSV 生成带 BOM 的 CSV，Excel 打开中文不乱码
func BuildCSV(accounts []*model.RentalAccount) []byte {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	w := csv.NewWriter(&buf)
	_ = w.Write(csvHeader)

	for _, a := range accounts {
		createdAt := ""
		if !a.CreatedAt.IsZero() {
			createdAt = a.CreatedAt.Format(time.RFC3339)
		}
		_ = w.Write([]string{
			a.OrderNumber,
			fmt.Sprintf("%d", a.PureCoins),
			fmt.Sprintf("%d", a.StaminaLevel),
			fmt.Sprintf("%d", a.InsuranceSlots),
			fmt.Sprintf("%d", a.AccountLevel),
			fmt.Sprintf("%d", a.AwmAmmo),
			fmt.Sprintf("%d", a.Ammo76251),
			fmt.Sprintf("%d", a.Ammo76254),
			fmt.Sprintf("%d", a.Ammo68),
			fmt.Sprintf("%d", a.FullDurabilityHelmet),
			fmt.Sprintf("%d", a.FullDurabilityArmor),
			a.AcceptAccountInfo,
			a.HasPaidKnifeSkin,
			a.UntouchableItems,
			a.OwnerNotes,
			a.WechatID,
			a.BossWechatID,
			a.Status,
			formatAmount(a.BaseCost),
			formatAmount(a.BasePrice),
			formatAmount(a.ExtraCost),
			formatAmount(a.ExtraPrice),
			createdAt,
		})
	}
	w.Flush()

	return buf.Bytes()
}

func formatAmount(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// ExportFilename 附件文件名 accounts_yyyy-mm-dd.<ext>
func ExportFilename(ext string) string {
	return fmt.Sprintf("accounts_%s.%s", time.Now().Format("2006-01-02"), ext)
}
