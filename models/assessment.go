package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// 评估状态
const (
	StatusPending    = "pending"
	StatusCompleted  = "completed"
	StatusIncomplete = "incomplete"
)

// Gender 受测者性别
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Label 分类结果
type Label string

const (
	LabelNormal Label = "normal"
	LabelHypo   Label = "hypo"
	LabelHyper  Label = "hyper"
)

// Labels 全部合法分类
var Labels = []Label{LabelNormal, LabelHypo, LabelHyper}

// Valid 是否为合法分类
func (l Label) Valid() bool {
	switch l {
	case LabelNormal, LabelHypo, LabelHyper:
		return true
	}
	return false
}

// ParseLabel 接受内部标签或分类服务使用的名称，不区分大小写
func ParseLabel(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return LabelNormal, true
	case "hypo", "hypothyroid", "hypothyroidism":
		return LabelHypo, true
	case "hyper", "hyperthyroid", "hyperthyroidism":
		return LabelHyper, true
	}
	return "", false
}

// Assessment 一次评估提交
type Assessment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Age       int       `json:"age" gorm:"not null;default:0"`
	Gender    Gender    `json:"gender" gorm:"size:10;not null"`
	Mode      string    `json:"mode" gorm:"size:50"`
	Status    string    `json:"status" gorm:"size:20;default:pending;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	MedicalHistory  *MedicalHistory   `json:"medical_history,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	FamilyHistory   *FamilyHistory    `json:"family_history,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	CurrentSymptoms *CurrentSymptoms  `json:"current_symptoms,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	LabResults      *LabResults       `json:"lab_results,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	Result          *PredictionResult `json:"result,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	Explanation     *Explanation      `json:"explanation,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
}

// TableName 设置表名
func (Assessment) TableName() string {
	return "assessment"
}

// AssessmentLink 卫星表与评估的一对一关联字段
type AssessmentLink struct {
	ID           uint `json:"-" gorm:"primaryKey"`
	AssessmentID uint `json:"assessment_id" gorm:"uniqueIndex;not null"`
	UserID       uint `json:"-" gorm:"index;not null"`
}

// MedicalHistory 既往病史
type MedicalHistory struct {
	AssessmentLink
	Diabetes                bool `json:"diabetes" gorm:"column:diabetes;not null;default:false"`
	HighBloodPressure       bool `json:"high_blood_pressure" gorm:"column:high_blood_pressure;not null;default:false"`
	HighCholesterol         bool `json:"high_cholesterol" gorm:"column:high_cholesterol;not null;default:false"`
	Anemia                  bool `json:"anemia" gorm:"column:anemia;not null;default:false"`
	DepressionAnxiety       bool `json:"depression_anxiety" gorm:"column:depression_anxiety;not null;default:false"`
	HeartDisease            bool `json:"heart_disease" gorm:"column:heart_disease;not null;default:false"`
	MenstrualIrregularities bool `json:"menstrual_irregularities" gorm:"column:menstrual_irregularities;not null;default:false"`
	AutoimmuneDiseases      bool `json:"autoimmune_diseases" gorm:"column:autoimmune_diseases;not null;default:false"`
}

// TableName 设置表名
func (MedicalHistory) TableName() string {
	return "medical_history"
}

// FamilyHistory 家族史
type FamilyHistory struct {
	AssessmentLink
	Hypothyroidism  bool `json:"fh_hypothyroidism" gorm:"column:fh_hypothyroidism;not null;default:false"`
	Hyperthyroidism bool `json:"fh_hyperthyroidism" gorm:"column:fh_hyperthyroidism;not null;default:false"`
	Goiter          bool `json:"fh_goiter" gorm:"column:fh_goiter;not null;default:false"`
	ThyroidCancer   bool `json:"fh_thyroid_cancer" gorm:"column:fh_thyroid_cancer;not null;default:false"`
}

// TableName 设置表名
func (FamilyHistory) TableName() string {
	return "family_history"
}

// CurrentSymptoms 当前症状
type CurrentSymptoms struct {
	AssessmentLink
	Fatigue          bool `json:"sym_fatigue" gorm:"column:sym_fatigue;not null;default:false"`
	WeightChange     bool `json:"sym_weight_change" gorm:"column:sym_weight_change;not null;default:false"`
	DrySkin          bool `json:"sym_dry_skin" gorm:"column:sym_dry_skin;not null;default:false"`
	HairLoss         bool `json:"sym_hair_loss" gorm:"column:sym_hair_loss;not null;default:false"`
	HeartRate        bool `json:"sym_heart_rate" gorm:"column:sym_heart_rate;not null;default:false"`
	Digestion        bool `json:"sym_digestion" gorm:"column:sym_digestion;not null;default:false"`
	IrregularPeriods bool `json:"sym_irregular_periods" gorm:"column:sym_irregular_periods;not null;default:false"`
	NeckSwelling     bool `json:"sym_neck_swelling" gorm:"column:sym_neck_swelling;not null;default:false"`
}

// TableName 设置表名
func (CurrentSymptoms) TableName() string {
	return "current_symptoms"
}

// LabResults 化验结果，数值仅在对应标志为 true 时有意义
type LabResults struct {
	AssessmentLink
	TSH            bool     `json:"tsh" gorm:"column:tsh;not null;default:false"`
	TSHLevel       *float64 `json:"tsh_level" gorm:"column:tsh_level"`
	T3             bool     `json:"t3" gorm:"column:t3;not null;default:false"`
	T3Level        *float64 `json:"t3_level" gorm:"column:t3_level"`
	T4             bool     `json:"t4" gorm:"column:t4;not null;default:false"`
	T4Level        *float64 `json:"t4_level" gorm:"column:t4_level"`
	T4Uptake       bool     `json:"t4_uptake" gorm:"column:t4_uptake;not null;default:false"`
	T4UptakeResult *float64 `json:"t4_uptake_result" gorm:"column:t4_uptake_result"`
	FTI            bool     `json:"fti" gorm:"column:fti;not null;default:false"`
	FTIResult      *float64 `json:"fti_result" gorm:"column:fti_result"`
}

// TableName 设置表名
func (LabResults) TableName() string {
	return "lab_results"
}

// PredictionResult 分类结果
type PredictionResult struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	AssessmentID    uint      `json:"assessment_id" gorm:"uniqueIndex;not null"`
	UserID          uint      `json:"-" gorm:"index;not null"`
	Prediction      Label     `json:"prediction" gorm:"size:10;not null"`
	ConfidenceScore float64   `json:"c_score" gorm:"column:c_score;type:decimal(5,2);not null"`
	Mode            string    `json:"mode" gorm:"size:50"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName 设置表名
func (PredictionResult) TableName() string {
	return "prediction_result"
}

// Explanation 解释因子列表，按生成顺序整体存储
type Explanation struct {
	ID           uint                       `json:"-" gorm:"primaryKey"`
	AssessmentID uint                       `json:"assessment_id" gorm:"uniqueIndex;not null"`
	Factors      datatypes.JSONSlice[Factor] `json:"factors" gorm:"not null"`
	ModelSHAP    datatypes.JSON             `json:"model_shap,omitempty"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// TableName 设置表名
func (Explanation) TableName() string {
	return "explanation_factors"
}

// All 返回需要建表的全部模型，顺序满足外键依赖
func All() []interface{} {
	return []interface{}{
		&User{},
		&Assessment{},
		&MedicalHistory{},
		&FamilyHistory{},
		&CurrentSymptoms{},
		&LabResults{},
		&PredictionResult{},
		&Explanation{},
	}
}
