package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"vms/backend/internal/model"
	"vms/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportRangeInvalid  = errors.New("导出起始日期不能晚于结束日期")
	ErrExportRangeTooLarge = errors.New("单次导出跨度不能超过 366 天")
	ErrExportGenerateFail  = errors.New("生成 Excel 文件失败")
)

const maxExportDays = 366

// ExportService 导出业务接口
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写出
type ExportService interface {
	// ExportVisitors 导出 [from, to] 日期内登记的访客记录
	ExportVisitors(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var statusLabels = map[model.VisitorStatus]string{
	model.StatusPending:    "待审批",
	model.StatusApproved:   "已审批",
	model.StatusCancelled:  "已拒绝",
	model.StatusCheckedIn:  "在场",
	model.StatusCheckedOut: "已离场",
}

var categoryLabels = map[model.VisitorCategory]string{
	model.CategoryVisitor:    "访客",
	model.CategoryContractor: "承包商",
}

var exportHeaders = []string{
	"登记时间", "类别", "姓名", "公司", "电话", "接待人", "状态",
	"预约时间", "签到时间", "签退时间", "停留(分钟)", "培训完成",
}

// ═══════════════════════════════════════════════════════════
// ExportVisitors 导出访客记录为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportVisitors(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error) {
	if from.After(to) {
		return nil, "", ErrExportRangeInvalid
	}
	end := to.AddDate(0, 0, 1)
	if end.Sub(from) > maxExportDays*24*time.Hour {
		return nil, "", ErrExportRangeTooLarge
	}

	visitors, err := s.repo.Visitor.ListForExport(ctx, from, end)
	if err != nil {
		s.logger.Error("查询导出访客失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "访客记录"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 8)
	f.SetColWidth(sheetName, "C", "F", 16)
	f.SetColWidth(sheetName, "G", "G", 10)
	f.SetColWidth(sheetName, "H", "J", 20)
	f.SetColWidth(sheetName, "K", "L", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 表头
	for i, h := range exportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(exportHeaders)-1), 1), headerStyle)

	// 数据行
	row := 2
	for i := range visitors {
		v := &visitors[i]
		hostName := ""
		if v.Host != nil {
			hostName = v.Host.Name
		}
		training := "-"
		if v.IsContractor() {
			training = "否"
			if v.TrainingCompleted {
				training = "是"
			}
		}

		values := []interface{}{
			exportTime(&v.CreatedAt),
			categoryLabels[v.Category],
			v.FullName,
			v.Company,
			v.Phone,
			hostName,
			statusLabels[v.Status],
			exportTime(v.ScheduledAt),
			exportTime(v.CheckInTime),
			exportTime(v.CheckOutTime),
			stayMinutes(v),
			training,
		}
		for col, val := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), val)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("访客记录_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func exportTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// stayMinutes 已签退时返回停留分钟数，否则为空
func stayMinutes(v *model.Visitor) interface{} {
	if v.CheckInTime == nil || v.CheckOutTime == nil {
		return ""
	}
	return int(v.CheckOutTime.Sub(*v.CheckInTime).Minutes())
}
