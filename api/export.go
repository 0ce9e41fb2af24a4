package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"thyrosight/logger"
	"thyrosight/middleware"
	"thyrosight/models"
	"thyrosight/service"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "评估记录"

var exportHeaders = []string{
	"ID", "提交时间", "年龄", "性别", "模式", "分类结果", "置信度",
	"TSH", "T3", "T4", "T4U", "FTI", "既往病史", "家族史", "当前症状",
}

type flagLabel struct {
	label string
	set   bool
}

// joinFlags 以顿号连接为真的项，全部为假时为“无”
func joinFlags(flags []flagLabel) string {
	var out []string
	for _, f := range flags {
		if f.set {
			out = append(out, f.label)
		}
	}
	if len(out) == 0 {
		return "无"
	}
	return strings.Join(out, "、")
}

func medicalSummary(m *models.MedicalHistory) string {
	if m == nil {
		return ""
	}
	return joinFlags([]flagLabel{
		{"糖尿病", m.Diabetes},
		{"高血压", m.HighBloodPressure},
		{"高胆固醇", m.HighCholesterol},
		{"贫血", m.Anemia},
		{"抑郁/焦虑", m.DepressionAnxiety},
		{"心脏病", m.HeartDisease},
		{"月经不调", m.MenstrualIrregularities},
		{"自身免疫病", m.AutoimmuneDiseases},
	})
}

func familySummary(f *models.FamilyHistory) string {
	if f == nil {
		return ""
	}
	return joinFlags([]flagLabel{
		{"甲减", f.Hypothyroidism},
		{"甲亢", f.Hyperthyroidism},
		{"甲状腺肿", f.Goiter},
		{"甲状腺癌", f.ThyroidCancer},
	})
}

func symptomSummary(s *models.CurrentSymptoms) string {
	if s == nil {
		return ""
	}
	return joinFlags([]flagLabel{
		{"疲劳", s.Fatigue},
		{"体重变化", s.WeightChange},
		{"皮肤干燥", s.DrySkin},
		{"脱发", s.HairLoss},
		{"心率异常", s.HeartRate},
		{"消化问题", s.Digestion},
		{"月经紊乱", s.IrregularPeriods},
		{"颈部肿胀", s.NeckSwelling},
	})
}

// ExportHandler 导出处理器
type ExportHandler struct {
	svc *service.AssessmentService
}

// NewExportHandler 创建导出处理器
func NewExportHandler(svc *service.AssessmentService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ExportExcel 导出评估历史
// @Summary 导出评估历史
// @Description 导出当前用户全部评估为 Excel 文件
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Excel 文件"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "导出失败"
// @Router /api/v1/assessments/export [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	list, err := h.svc.ListAll(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	f, err := buildWorkbook(list)
	if err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("assessments_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))
	c.Status(http.StatusOK)

	// 状态码已发出，失败时只能记录日志
	if err := f.Write(c.Writer); err != nil {
		logger.FromContext(c).WithError(err).Error("写入 Excel 失败")
	}
}

func buildWorkbook(list []models.Assessment) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	_ = f.SetColWidth(exportSheet, "A", "A", 8)
	_ = f.SetColWidth(exportSheet, "B", "B", 20)
	_ = f.SetColWidth(exportSheet, "C", "L", 12)
	_ = f.SetColWidth(exportSheet, "M", "O", 30)

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, header)
		_ = f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for i, a := range list {
		row := i + 2
		values := []interface{}{
			a.ID,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
			a.Age,
			string(a.Gender),
			a.Mode,
			"", "",
			"", "", "", "", "",
			medicalSummary(a.MedicalHistory),
			familySummary(a.FamilyHistory),
			symptomSummary(a.CurrentSymptoms),
		}
		if a.Result != nil {
			values[5] = string(a.Result.Prediction)
			values[6] = a.Result.ConfidenceScore
		}
		if lab := a.LabResults; lab != nil {
			for j, v := range []*float64{lab.TSHLevel, lab.T3Level, lab.T4Level, lab.T4UptakeResult, lab.FTIResult} {
				if v != nil {
					values[7+j] = *v
				}
			}
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(values), row)
		_ = f.SetCellStyle(exportSheet, first, last, dataStyle)
	}

	return f, nil
}
