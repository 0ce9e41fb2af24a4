// Package repository 负责评估数据的事务写入与按用户隔离的读取。
package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"thyrosight/apperror"
	"thyrosight/intake"
	"thyrosight/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Outcome 分类结果及解释
type Outcome struct {
	Label      models.Label
	Confidence float64
	Mode       string
	Factors    []models.Factor
	ModelSHAP  datatypes.JSON
}

// Created 写入成功后返回的标识
type Created struct {
	AssessmentID uint   `json:"form_id"`
	ResultID     uint   `json:"result_id"`
	Mode         string `json:"mode"`
}

// AssessmentRepository 评估仓储
type AssessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository 创建评估仓储
func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Validate 写入前的业务校验，失败时不会产生任何数据库操作
func Validate(userID uint, out Outcome) error {
	if userID == 0 {
		return apperror.Validation("缺少用户标识")
	}
	if !out.Label.Valid() {
		return apperror.Validation(fmt.Sprintf("无效的分类结果: %q", out.Label))
	}
	if math.IsNaN(out.Confidence) || out.Confidence < 0 || out.Confidence > 100 {
		return apperror.Validation(fmt.Sprintf("置信度必须在 0 到 100 之间: %v", out.Confidence))
	}
	return nil
}

// Create 在一个事务中写入评估、四个卫星表、分类结果和解释因子
func (r *AssessmentRepository) Create(ctx context.Context, userID uint, rec intake.Record, out Outcome) (*Created, error) {
	if err := Validate(userID, out); err != nil {
		return nil, err
	}

	mode := out.Mode
	if mode == "" {
		mode = rec.Mode
	}

	var created Created
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assessment := models.Assessment{
			UserID: userID,
			Age:    rec.Age,
			Gender: rec.Gender,
			Mode:   mode,
			Status: models.StatusCompleted,
		}
		if err := tx.Create(&assessment).Error; err != nil {
			return fmt.Errorf("写入评估失败: %w", err)
		}
		link := models.AssessmentLink{AssessmentID: assessment.ID, UserID: userID}

		medical := rec.MedicalHistory()
		medical.AssessmentLink = link
		if err := tx.Create(&medical).Error; err != nil {
			return fmt.Errorf("写入既往病史失败: %w", err)
		}

		family := rec.FamilyHistory()
		family.AssessmentLink = link
		if err := tx.Create(&family).Error; err != nil {
			return fmt.Errorf("写入家族史失败: %w", err)
		}

		symptoms := rec.CurrentSymptoms()
		symptoms.AssessmentLink = link
		if err := tx.Create(&symptoms).Error; err != nil {
			return fmt.Errorf("写入当前症状失败: %w", err)
		}

		labs := rec.LabResults()
		labs.AssessmentLink = link
		if err := tx.Create(&labs).Error; err != nil {
			return fmt.Errorf("写入化验结果失败: %w", err)
		}

		result := models.PredictionResult{
			AssessmentID:    assessment.ID,
			UserID:          userID,
			Prediction:      out.Label,
			ConfidenceScore: out.Confidence,
			Mode:            mode,
		}
		if err := tx.Create(&result).Error; err != nil {
			return fmt.Errorf("写入分类结果失败: %w", err)
		}

		if len(out.Factors) > 0 || len(out.ModelSHAP) > 0 {
			explanation := models.Explanation{
				AssessmentID: assessment.ID,
				Factors:      datatypes.JSONSlice[models.Factor](out.Factors),
				ModelSHAP:    out.ModelSHAP,
			}
			if explanation.Factors == nil {
				explanation.Factors = datatypes.JSONSlice[models.Factor]{}
			}
			if err := tx.Create(&explanation).Error; err != nil {
				return fmt.Errorf("写入解释因子失败: %w", err)
			}
		}

		created = Created{AssessmentID: assessment.ID, ResultID: result.ID, Mode: mode}
		return nil
	})
	if err != nil {
		return nil, apperror.Storage(err, "保存评估失败")
	}
	return &created, nil
}

// Get 读取完整评估；记录不存在与属于其他用户返回同一种错误
func (r *AssessmentRepository) Get(ctx context.Context, id, userID uint) (*models.Assessment, error) {
	var a models.Assessment
	err := r.db.WithContext(ctx).
		Preload("MedicalHistory").
		Preload("FamilyHistory").
		Preload("CurrentSymptoms").
		Preload("LabResults").
		Preload("Result").
		Preload("Explanation").
		Where("id = ? AND user_id = ?", id, userID).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("评估记录不存在或无权访问")
		}
		return nil, apperror.Storage(err, "读取评估失败")
	}
	return &a, nil
}

// List 分页列出用户的评估，按创建时间倒序
func (r *AssessmentRepository) List(ctx context.Context, userID uint, page, pageSize int) ([]models.Assessment, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	query := r.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.Storage(err, "统计评估失败")
	}

	var list []models.Assessment
	err := query.
		Preload("Result").
		Preload("LabResults").
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error
	if err != nil {
		return nil, 0, apperror.Storage(err, "查询评估失败")
	}
	return list, total, nil
}

// ListAll 列出用户全部评估及其卫星数据，用于导出
func (r *AssessmentRepository) ListAll(ctx context.Context, userID uint) ([]models.Assessment, error) {
	var list []models.Assessment
	err := r.db.WithContext(ctx).
		Preload("MedicalHistory").
		Preload("FamilyHistory").
		Preload("CurrentSymptoms").
		Preload("LabResults").
		Preload("Result").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, apperror.Storage(err, "查询评估失败")
	}
	return list, nil
}

// Delete 校验归属后在事务中删除评估及全部关联数据
func (r *AssessmentRepository) Delete(ctx context.Context, id, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.Assessment
		if err := tx.Select("id").Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{
			&models.Explanation{},
			&models.PredictionResult{},
			&models.LabResults{},
			&models.CurrentSymptoms{},
			&models.FamilyHistory{},
			&models.MedicalHistory{},
		} {
			if err := tx.Where("assessment_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Assessment{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("评估记录不存在或无权访问")
		}
		return apperror.Storage(err, "删除评估失败")
	}
	return nil
}
