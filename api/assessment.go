package api

import (
	"encoding/json"
	"strconv"

	"thyrosight/middleware"
	"thyrosight/models"
	"thyrosight/service"

	"github.com/gin-gonic/gin"
)

// AssessmentHandler 评估处理器
type AssessmentHandler struct {
	svc *service.AssessmentService
}

// NewAssessmentHandler 创建评估处理器
func NewAssessmentHandler(svc *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{svc: svc}
}

// SubmitRequest 提交评估请求，分类结果由客户端预先取得
type SubmitRequest struct {
	FormData   map[string]interface{} `json:"form_data" binding:"required"`
	Prediction string                 `json:"prediction" binding:"required" example:"hypo"`
	CScore     *float64               `json:"c_score" binding:"required" example:"82.5"`
	Mode       string                 `json:"mode" example:"Hybrid"`
	SHAPValues json.RawMessage        `json:"shap_values" swaggertype:"array,object"`
}

// SubmitResponse 提交评估响应
type SubmitResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	FormID   uint            `json:"form_id"`
	ResultID uint            `json:"result_id"`
	Mode     string          `json:"mode"`
	Factors  []models.Factor `json:"factors"`
}

// PredictRequest 服务端分类请求
type PredictRequest struct {
	FormData map[string]interface{} `json:"form_data" binding:"required"`
}

// ListRequest 分页参数
type ListRequest struct {
	Page     int `form:"page" example:"1"`
	PageSize int `form:"page_size" example:"10"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

// Submit 保存一次评估
// @Summary 提交评估
// @Description 规范化表单、生成解释因子，并在一个事务中保存评估与分类结果
// @Tags 评估
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitRequest true "评估表单与分类结果"
// @Success 200 {object} SubmitResponse "保存成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "保存失败"
// @Router /api/v1/assessments [post]
func (h *AssessmentHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	label, ok := models.ParseLabel(req.Prediction)
	if !ok {
		label = models.Label(req.Prediction)
	}

	created, factors, err := h.svc.Submit(c.Request.Context(), middleware.GetCurrentUserID(c), service.SubmitInput{
		Form:       req.FormData,
		Label:      label,
		Confidence: *req.CScore,
		Mode:       req.Mode,
		SHAP:       req.SHAPValues,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(200, SubmitResponse{
		Success:  true,
		Message:  "评估已保存",
		FormID:   created.AssessmentID,
		ResultID: created.ResultID,
		Mode:     created.Mode,
		Factors:  factors,
	})
}

// Predict 调用分类服务并保存
// @Summary 分类并保存评估
// @Description 服务端调用分类服务，生成解释因子后保存；分类服务不可用时返回 502 且不写入数据
// @Tags 评估
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PredictRequest true "评估表单"
// @Success 200 {object} Response{data=service.PredictResult} "分类成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 429 {object} Response "请求过于频繁"
// @Failure 502 {object} Response "分类服务不可用"
// @Router /api/v1/assessments/predict [post]
func (h *AssessmentHandler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.PredictAndSubmit(c.Request.Context(), middleware.GetCurrentUserID(c), req.FormData)
	if err != nil {
		RespondError(c, err)
		return
	}

	SuccessWithMessage(c, "分类完成", result)
}

// List 评估历史
// @Summary 评估历史
// @Description 分页获取当前用户的评估，按提交时间倒序
// @Tags 评估
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} Response{data=PageResponse{list=[]models.Assessment}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/assessments [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, "参数错误")
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	list, total, err := h.svc.List(c.Request.Context(), middleware.GetCurrentUserID(c), req.Page, req.PageSize)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     list,
	})
}

// Get 评估详情
// @Summary 评估详情
// @Description 获取一条评估的全部表单数据、分类结果与解释因子；不存在与属于其他用户均返回 404
// @Tags 评估
// @Produce json
// @Security BearerAuth
// @Param id path int true "评估ID"
// @Success 200 {object} Response{data=models.Assessment} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/assessments/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	a, err := h.svc.Get(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, a)
}

// Delete 删除评估
// @Summary 删除评估
// @Description 删除一条评估及其全部关联数据
// @Tags 评估
// @Produce json
// @Security BearerAuth
// @Param id path int true "评估ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/assessments/{id} [delete]
func (h *AssessmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, middleware.GetCurrentUserID(c)); err != nil {
		RespondError(c, err)
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
