package service

import (
	"context"
	"encoding/json"

	"thyrosight/apperror"
	"thyrosight/explain"
	"thyrosight/intake"
	"thyrosight/models"
	"thyrosight/repository"

	"gorm.io/datatypes"
)

// SubmitInput 客户端已取得分类结果后的提交内容
type SubmitInput struct {
	Form       map[string]interface{}
	Label      models.Label
	Confidence float64
	Mode       string
	SHAP       json.RawMessage
}

// PredictResult 服务端分类并保存后的结果
type PredictResult struct {
	repository.Created
	Prediction models.Label    `json:"prediction"`
	Confidence float64         `json:"confidence"`
	Factors    []models.Factor `json:"factors"`
	Message    string          `json:"message,omitempty"`
}

// AssessmentService 组合规范化、分类、解释与持久化
type AssessmentService struct {
	repo       *repository.AssessmentRepository
	classifier Classifier
}

// NewAssessmentService 创建评估服务，classifier 可为 nil，此时仅支持客户端提交
func NewAssessmentService(repo *repository.AssessmentRepository, classifier Classifier) *AssessmentService {
	return &AssessmentService{repo: repo, classifier: classifier}
}

// Submit 规范化表单、生成解释因子并在一个事务中保存
func (s *AssessmentService) Submit(ctx context.Context, userID uint, in SubmitInput) (*repository.Created, []models.Factor, error) {
	rec := intake.Normalize(in.Form)

	shap, err := modelSHAP(in.SHAP)
	if err != nil {
		return nil, nil, err
	}

	factors := explain.Synthesize(in.Label, rec)
	created, err := s.repo.Create(ctx, userID, rec, repository.Outcome{
		Label:      in.Label,
		Confidence: in.Confidence,
		Mode:       in.Mode,
		Factors:    factors,
		ModelSHAP:  shap,
	})
	if err != nil {
		return nil, nil, err
	}
	return created, factors, nil
}

// PredictAndSubmit 调用分类服务后保存，分类失败时不写入任何数据
func (s *AssessmentService) PredictAndSubmit(ctx context.Context, userID uint, form map[string]interface{}) (*PredictResult, error) {
	if s.classifier == nil {
		return nil, apperror.Upstream(nil, "未配置分类服务")
	}
	if userID == 0 {
		return nil, apperror.Validation("缺少用户标识")
	}

	rec := intake.Normalize(form)
	p, err := s.classifier.Predict(ctx, rec)
	if err != nil {
		return nil, err
	}

	factors := explain.Synthesize(p.Label, rec)
	created, err := s.repo.Create(ctx, userID, rec, repository.Outcome{
		Label:      p.Label,
		Confidence: p.Confidence,
		Mode:       p.Mode,
		Factors:    factors,
		ModelSHAP:  datatypes.JSON(p.SHAP),
	})
	if err != nil {
		return nil, err
	}

	return &PredictResult{
		Created:    *created,
		Prediction: p.Label,
		Confidence: p.Confidence,
		Factors:    factors,
		Message:    p.Message,
	}, nil
}

// Get 读取当前用户的一条评估
func (s *AssessmentService) Get(ctx context.Context, id, userID uint) (*models.Assessment, error) {
	return s.repo.Get(ctx, id, userID)
}

// List 分页列出当前用户的评估
func (s *AssessmentService) List(ctx context.Context, userID uint, page, pageSize int) ([]models.Assessment, int64, error) {
	return s.repo.List(ctx, userID, page, pageSize)
}

// ListAll 当前用户全部评估
func (s *AssessmentService) ListAll(ctx context.Context, userID uint) ([]models.Assessment, error) {
	return s.repo.ListAll(ctx, userID)
}

// Delete 删除当前用户的一条评估
func (s *AssessmentService) Delete(ctx context.Context, id, userID uint) error {
	return s.repo.Delete(ctx, id, userID)
}

func modelSHAP(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, apperror.Validation("shap_values 不是合法的 JSON")
	}
	return datatypes.JSON(raw), nil
}
