package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"thyrosight/intake"
	"thyrosight/models"
)

// 模型训练时使用的特征列名
const (
	featureAge  = "Age"
	featureSex  = "Sex"
	featureMode = "mode"
)

type flagFeature struct {
	name  string
	value func(r intake.Record) bool
}

var flagFeatures = []flagFeature{
	{"Diabetes", func(r intake.Record) bool { return r.Medical.Diabetes }},
	{"HighBloodPressure", func(r intake.Record) bool { return r.Medical.HighBloodPressure }},
	{"HighCholesterol", func(r intake.Record) bool { return r.Medical.HighCholesterol }},
	{"Anemia", func(r intake.Record) bool { return r.Medical.Anemia }},
	{"DepressionAnxiety", func(r intake.Record) bool { return r.Medical.DepressionAnxiety }},
	{"HeartDisease", func(r intake.Record) bool { return r.Medical.HeartDisease }},
	{"MenstrualIrregularities", func(r intake.Record) bool { return r.Medical.MenstrualIrregularities }},
	{"AutoimmuneDiseases", func(r intake.Record) bool { return r.Medical.AutoimmuneDiseases }},

	{"FH_Hypothyroidism", func(r intake.Record) bool { return r.Family.Hypothyroidism }},
	{"FH_Hyperthyroidism", func(r intake.Record) bool { return r.Family.Hyperthyroidism }},
	{"FH_Goiter", func(r intake.Record) bool { return r.Family.Goiter }},
	{"FH_ThyroidCancer", func(r intake.Record) bool { return r.Family.ThyroidCancer }},

	{"Sym_Fatigue", func(r intake.Record) bool { return r.Symptoms.Fatigue }},
	{"Sym_WeightChange", func(r intake.Record) bool { return r.Symptoms.WeightChange }},
	{"Sym_DrySkin", func(r intake.Record) bool { return r.Symptoms.DrySkin }},
	{"Sym_HairLoss", func(r intake.Record) bool { return r.Symptoms.HairLoss }},
	{"Sym_HeartRate", func(r intake.Record) bool { return r.Symptoms.HeartRate }},
	{"Sym_Digestion", func(r intake.Record) bool { return r.Symptoms.Digestion }},
	{"Sym_IrregularPeriods", func(r intake.Record) bool { return r.Symptoms.IrregularPeriods }},
	{"Sym_NeckSwelling", func(r intake.Record) bool { return r.Symptoms.NeckSwelling }},
}

var labFeatures = []struct {
	name string
	lab  func(r intake.Record) intake.Lab
}{
	{"TSH mIU/L", func(r intake.Record) intake.Lab { return r.Labs.TSH }},
	{"T3 ng/dL", func(r intake.Record) intake.Lab { return r.Labs.T3 }},
	{"T4 ng/dL", func(r intake.Record) intake.Lab { return r.Labs.T4 }},
	{"T4U", func(r intake.Record) intake.Lab { return r.Labs.T4Uptake }},
	{"FTI", func(r intake.Record) intake.Lab { return r.Labs.FTI }},
}

// Features 将规范化表单转换为分类服务的请求体
// 标志为 0/1，缺失的化验值为 0
func Features(r intake.Record) map[string]interface{} {
	out := make(map[string]interface{}, len(flagFeatures)+len(labFeatures)+3)
	out[featureAge] = r.Age
	sex := 0
	if r.Gender == models.GenderMale {
		sex = 1
	}
	out[featureSex] = sex
	out[featureMode] = r.Mode

	for _, f := range flagFeatures {
		v := 0
		if f.value(r) {
			v = 1
		}
		out[f.name] = v
	}
	for _, f := range labFeatures {
		lab := f.lab(r)
		v := 0.0
		if lab.Present() {
			v = *lab.Value
		}
		out[f.name] = v
	}
	return out
}

// featureKey 请求体的摘要，map 序列化时键有序，结果稳定
func featureKey(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func encodeFeatures(r intake.Record) ([]byte, error) {
	return json.Marshal(Features(r))
}
