package intake

import "thyrosight/models"

// Record 规范化后的评估表单，每个逻辑字段只有一个键
type Record struct {
	Age    int
	Gender models.Gender
	Mode   string

	Medical  MedicalFlags
	Family   FamilyFlags
	Symptoms SymptomFlags
	Labs     Labs
}

// MedicalFlags 既往病史
type MedicalFlags struct {
	Diabetes                bool
	HighBloodPressure       bool
	HighCholesterol         bool
	Anemia                  bool
	DepressionAnxiety       bool
	HeartDisease            bool
	MenstrualIrregularities bool
	AutoimmuneDiseases      bool
}

// FamilyFlags 家族史
type FamilyFlags struct {
	Hypothyroidism  bool
	Hyperthyroidism bool
	Goiter          bool
	ThyroidCancer   bool
}

// SymptomFlags 当前症状
type SymptomFlags struct {
	Fatigue          bool
	WeightChange     bool
	DrySkin          bool
	HairLoss         bool
	HeartRate        bool
	Digestion        bool
	IrregularPeriods bool
	NeckSwelling     bool
}

// Lab 单项化验，Value 仅在 Taken 为 true 且可解析时非 nil
type Lab struct {
	Taken bool
	Value *float64
}

// Present 是否有可用数值
func (l Lab) Present() bool {
	return l.Taken && l.Value != nil
}

// Labs 五项甲状腺化验
type Labs struct {
	TSH      Lab
	T3       Lab
	T4       Lab
	T4Uptake Lab
	FTI      Lab
}

// Fields 以规范键名输出，Normalize(r.Fields()) 与 r 相等
func (r Record) Fields() map[string]interface{} {
	out := map[string]interface{}{
		"age":    r.Age,
		"gender": string(r.Gender),
		"mode":   r.Mode,
	}
	for _, f := range flagFields {
		out[f.key] = *f.ptr(&r)
	}
	for _, f := range labFields {
		lab := f.ptr(&r)
		out[f.flagKey] = lab.Taken
		if lab.Value != nil {
			out[f.valueKey] = *lab.Value
		}
	}
	return out
}

// MedicalHistory 转换为持久化模型
func (r Record) MedicalHistory() models.MedicalHistory {
	m := r.Medical
	return models.MedicalHistory{
		Diabetes:                m.Diabetes,
		HighBloodPressure:       m.HighBloodPressure,
		HighCholesterol:         m.HighCholesterol,
		Anemia:                  m.Anemia,
		DepressionAnxiety:       m.DepressionAnxiety,
		HeartDisease:            m.HeartDisease,
		MenstrualIrregularities: m.MenstrualIrregularities,
		AutoimmuneDiseases:      m.AutoimmuneDiseases,
	}
}

// FamilyHistory 转换为持久化模型
func (r Record) FamilyHistory() models.FamilyHistory {
	f := r.Family
	return models.FamilyHistory{
		Hypothyroidism:  f.Hypothyroidism,
		Hyperthyroidism: f.Hyperthyroidism,
		Goiter:          f.Goiter,
		ThyroidCancer:   f.ThyroidCancer,
	}
}

// CurrentSymptoms 转换为持久化模型
func (r Record) CurrentSymptoms() models.CurrentSymptoms {
	s := r.Symptoms
	return models.CurrentSymptoms{
		Fatigue:          s.Fatigue,
		WeightChange:     s.WeightChange,
		DrySkin:          s.DrySkin,
		HairLoss:         s.HairLoss,
		HeartRate:        s.HeartRate,
		Digestion:        s.Digestion,
		IrregularPeriods: s.IrregularPeriods,
		NeckSwelling:     s.NeckSwelling,
	}
}

// LabResults 转换为持久化模型，未检测项数值写 NULL
func (r Record) LabResults() models.LabResults {
	l := r.Labs
	return models.LabResults{
		TSH:            l.TSH.Taken,
		TSHLevel:       l.TSH.value(),
		T3:             l.T3.Taken,
		T3Level:        l.T3.value(),
		T4:             l.T4.Taken,
		T4Level:        l.T4.value(),
		T4Uptake:       l.T4Uptake.Taken,
		T4UptakeResult: l.T4Uptake.value(),
		FTI:            l.FTI.Taken,
		FTIResult:      l.FTI.value(),
	}
}

func (l Lab) value() *float64 {
	if !l.Present() {
		return nil
	}
	v := *l.Value
	return &v
}

// FromModels 从持久化模型还原规范记录
func FromModels(a *models.Assessment) Record {
	r := Record{Age: a.Age, Gender: a.Gender, Mode: a.Mode}
	if m := a.MedicalHistory; m != nil {
		r.Medical = MedicalFlags{
			Diabetes:                m.Diabetes,
			HighBloodPressure:       m.HighBloodPressure,
			HighCholesterol:         m.HighCholesterol,
			Anemia:                  m.Anemia,
			DepressionAnxiety:       m.DepressionAnxiety,
			HeartDisease:            m.HeartDisease,
			MenstrualIrregularities: m.MenstrualIrregularities,
			AutoimmuneDiseases:      m.AutoimmuneDiseases,
		}
	}
	if f := a.FamilyHistory; f != nil {
		r.Family = FamilyFlags{
			Hypothyroidism:  f.Hypothyroidism,
			Hyperthyroidism: f.Hyperthyroidism,
			Goiter:          f.Goiter,
			ThyroidCancer:   f.ThyroidCancer,
		}
	}
	if s := a.CurrentSymptoms; s != nil {
		r.Symptoms = SymptomFlags{
			Fatigue:          s.Fatigue,
			WeightChange:     s.WeightChange,
			DrySkin:          s.DrySkin,
			HairLoss:         s.HairLoss,
			HeartRate:        s.HeartRate,
			Digestion:        s.Digestion,
			IrregularPeriods: s.IrregularPeriods,
			NeckSwelling:     s.NeckSwelling,
		}
	}
	if l := a.LabResults; l != nil {
		r.Labs = Labs{
			TSH:      labFrom(l.TSH, l.TSHLevel),
			T3:       labFrom(l.T3, l.T3Level),
			T4:       labFrom(l.T4, l.T4Level),
			T4Uptake: labFrom(l.T4Uptake, l.T4UptakeResult),
			FTI:      labFrom(l.FTI, l.FTIResult),
		}
	}
	return r
}

func labFrom(taken bool, v *float64) Lab {
	if !taken {
		return Lab{}
	}
	return Lab{Taken: true, Value: v}
}
