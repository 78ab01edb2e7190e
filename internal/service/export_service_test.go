package service

import (
	"strings"
	"testing"
	"time"

	"rentsystem/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCSVHasBOMAndHeader(t *testing.T) {
	content := string(BuildCSV(nil))

	require.True(t, strings.HasPrefix(content, "\uFEFF"), "CSV 必须带 BOM")

	lines := strings.Split(strings.TrimRight(strings.TrimPrefix(content, "\uFEFF"), "\n"), "\n")
	require.Len(t, lines, 1)

	cols := strings.Split(lines[0], ",")
	assert.Len(t, cols, 23)
	assert.Equal(t, "订单号", cols[0])
	assert.Equal(t, "纯币数量", cols[1])
	assert.Equal(t, "状态", cols[17])
	assert.Equal(t, "创建时间", cols[22])
}

func TestBuildCSVRow(t *testing.T) {
	created := time.Date(2024, 1, 15, 14, 30, 52, 0, time.Local)
	content := string(BuildCSV([]*model.RentalAccount{
		{
			OrderNumber:    "NO.000001",
			PureCoins:      500,
			StaminaLevel:   3,
			InsuranceSlots: 4,
			AccountLevel:   20,
			WechatID:       "owner",
			BossWechatID:   "boss",
			Status:         model.StatusRented,
			BaseCost:       100,
			BasePrice:      200.5,
			CreatedAt:      created,
		},
	}))

	lines := strings.Split(strings.TrimRight(strings.TrimPrefix(content, "\uFEFF"), "\n"), "\n")
	require.Len(t, lines, 2)

	cols := strings.Split(lines[1], ",")
	require.Len(t, cols, 23)
	assert.Equal(t, "NO.000001", cols[0])
	assert.Equal(t, "500", cols[1])
	assert.Equal(t, "owner", cols[15])
	assert.Equal(t, "boss", cols[16])
	assert.Equal(t, "rented", cols[17])
	assert.Equal(t, "100", cols[18])
	assert.Equal(t, "200.5", cols[19])
}

func TestExportFilename(t *testing.T) {
	name := ExportFilename("csv")
	assert.True(t, strings.HasPrefix(name, "accounts_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
	// accounts_yyyy-mm-dd.csv
	assert.Len(t, name, len("accounts_2006-01-02.csv"))
}
