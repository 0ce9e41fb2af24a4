package explain

import (
	"thyrosight/intake"
	"thyrosight/models"
)

// outcome 规则命中后给出的因子模板，描述中的 {value} {label} {age} 在生成时替换
type outcome struct {
	name   string
	impact int
	desc   string
}

// byLabel 按分类结果区分的因子，缺少某个分类表示该分类下不产生因子
type byLabel map[models.Label]outcome

// consistent 某一分类得到正向因子，其余分类得到负向因子
func consistent(label models.Label, name string, pos, neg int, posDesc, negDesc string) byLabel {
	out := byLabel{}
	for _, l := range models.Labels {
		if l == label {
			out[l] = outcome{name, pos, posDesc}
		} else {
			out[l] = outcome{name, neg, negDesc}
		}
	}
	return out
}

// abnormal 甲减与甲亢共用 abnormalImpact，正常分类使用 normalImpact
func abnormal(name string, abnormalImpact, normalImpact int, abnormalDesc, normalDesc string) byLabel {
	return byLabel{
		models.LabelHypo:   {name, abnormalImpact, abnormalDesc},
		models.LabelHyper:  {name, abnormalImpact, abnormalDesc},
		models.LabelNormal: {name, normalImpact, normalDesc},
	}
}

func only(label models.Label, name string, impact int, desc string) byLabel {
	return byLabel{label: {name, impact, desc}}
}

// labRule 化验项目按参考区间分为偏低、正常、偏高三档
type labRule struct {
	lab    func(intake.Record) intake.Lab
	low    float64
	high   float64
	below  byLabel
	within byLabel
	above  byLabel
}

// flagRule 是非题，两种回答都可能产生因子
type flagRule struct {
	flag func(intake.Record) bool
	yes  byLabel
	no   byLabel
}

var labRules = []labRule{
	{
		lab: func(r intake.Record) intake.Lab { return r.Labs.TSH },
		low: 0.4, high: 4.0,
		below: consistent(models.LabelHyper, "TSH Levels (Low)", 25, -22,
			"Your TSH level is {value} mIU/L, below the normal range (0.4-4.0). A suppressed TSH is a strong sign of an overactive thyroid.",
			"Your TSH level is {value} mIU/L, below the normal range. This points towards hyperthyroidism and contradicts {label}."),
		above: consistent(models.LabelHypo, "TSH Levels (High)", 25, -22,
			"Your TSH level is {value} mIU/L, above the normal range (0.4-4.0). The pituitary is pushing an underactive thyroid, a strong sign of hypothyroidism.",
			"Your TSH level is {value} mIU/L, above the normal range. This points towards hypothyroidism and contradicts {label}."),
		within: consistent(models.LabelNormal, "TSH Levels (Normal)", 18, -15,
			"Your TSH level is {value} mIU/L, within the normal range (0.4-4.0), supporting healthy thyroid function.",
			"Your TSH level is {value} mIU/L, within the normal range, which contradicts {label}."),
	},
	{
		lab: func(r intake.Record) intake.Lab { return r.Labs.T3 },
		low: 80, high: 200,
		below: consistent(models.LabelHypo, "T3 Levels (Low)", 20, -18,
			"Your T3 level is {value} ng/dL, below the normal range (80-200), consistent with insufficient hormone production.",
			"Your low T3 level ({value} ng/dL) suggests hypothyroidism, contradicting {label}."),
		above: consistent(models.LabelHyper, "T3 Levels (High)", 20, -18,
			"Your T3 level is {value} ng/dL, above the normal range (80-200), consistent with excess hormone production.",
			"Your elevated T3 level ({value} ng/dL) suggests hyperthyroidism, contradicting {label}."),
		within: consistent(models.LabelNormal, "T3 Levels (Normal)", 14, -12,
			"Your T3 level is {value} ng/dL, within the normal range (80-200).",
			"Your T3 level is {value} ng/dL, within the normal range, which does not support {label}."),
	},
	{
		lab: func(r intake.Record) intake.Lab { return r.Labs.T4 },
		low: 4.5, high: 12.5,
		below: consistent(models.LabelHypo, "T4 Levels (Low)", 18, -16,
			"Your T4 level is {value} ng/dL, below the normal range (4.5-12.5), consistent with insufficient thyroxine production.",
			"Your low T4 level ({value} ng/dL) suggests hypothyroidism, contradicting {label}."),
		above: consistent(models.LabelHyper, "T4 Levels (High)", 18, -16,
			"Your T4 level is {value} ng/dL, above the normal range (4.5-12.5), consistent with excess thyroxine production.",
			"Your elevated T4 level ({value} ng/dL) suggests hyperthyroidism, contradicting {label}."),
		within: consistent(models.LabelNormal, "T4 Levels (Normal)", 14, -12,
			"Your T4 level is {value} ng/dL, within the normal range (4.5-12.5).",
			"Your T4 level is {value} ng/dL, within the normal range, which does not align with {label}."),
	},
	{
		lab: func(r intake.Record) intake.Lab { return r.Labs.FTI },
		low: 1.0, high: 4.0,
		below: only(models.LabelHypo, "Free Thyroxine Index (Low)", 15,
			"Your FTI is {value}, below the normal range (1.0-4.0), indicating reduced free thyroid hormone."),
		above: only(models.LabelHyper, "Free Thyroxine Index (High)", 15,
			"Your FTI is {value}, above the normal range (1.0-4.0), indicating excess free thyroid hormone."),
		within: only(models.LabelNormal, "Free Thyroxine Index (Normal)", 12,
			"Your FTI is {value}, within the normal range (1.0-4.0), indicating balanced hormone availability."),
	},
	{
		lab: func(r intake.Record) intake.Lab { return r.Labs.T4Uptake },
		low: 25, high: 35,
		below: only(models.LabelHypo, "T4 Uptake (Low)", 12,
			"Your T4 uptake is {value}%, below the normal range (25-35%), consistent with hypothyroidism."),
		above: only(models.LabelHyper, "T4 Uptake (High)", 12,
			"Your T4 uptake is {value}%, above the normal range (25-35%), consistent with hyperthyroidism."),
		within: only(models.LabelNormal, "T4 Uptake (Normal)", 10,
			"Your T4 uptake is {value}%, within the normal range (25-35%)."),
	},
}

var flagRules = []flagRule{
	// 既往病史
	{
		flag: func(r intake.Record) bool { return r.Medical.Diabetes },
		yes: abnormal("Diabetes History", 8, -8,
			"Diabetes is associated with a higher rate of thyroid dysfunction.",
			"Diabetes raises thyroid disorder risk, which weighs against a normal result."),
		no: abnormal("No Diabetes", -3, 3,
			"You do not have diabetes, removing one associated risk factor.",
			"You do not have diabetes, a mild protective factor."),
	},
	{
		flag: func(r intake.Record) bool { return r.Medical.HighBloodPressure },
		yes: byLabel{
			models.LabelHyper: {"High Blood Pressure", 10, "High blood pressure is common with an overactive thyroid."},
			models.LabelHypo:  {"High Blood Pressure", 6, "Hypothyroidism can contribute to raised diastolic blood pressure."},
		},
		no: only(models.LabelHyper, "Normal Blood Pressure", -8,
			"Your blood pressure is normal, which is less typical of hyperthyroidism."),
	},
	{
		flag: func(r intake.Record) bool { return r.Medical.HighCholesterol },
		yes: only(models.LabelHypo, "High Cholesterol", 12,
			"High cholesterol is a common consequence of a slowed metabolism in hypothyroidism."),
		no: only(models.LabelHypo, "Normal Cholesterol", -10,
			"Your cholesterol is normal, which is less typical of hypothyroidism."),
	},
	{
		flag: func(r intake.Record) bool { return r.Medical.Anemia },
		yes: byLabel{
			models.LabelHypo:   {"Anemia", 10, "Anemia frequently accompanies hypothyroidism."},
			models.LabelNormal: {"Anemia", -8, "Anemia can be linked to thyroid dysfunction, which weighs against a normal result."},
		},
		no: byLabel{
			models.LabelHypo:   {"No Anemia", -8, "You do not have anemia, which is often seen with hypothyroidism."},
			models.LabelNormal: {"No Anemia", 8, "You do not have anemia, supporting normal thyroid function."},
		},
	},
	{
		flag: func(r intake.Record) bool { return r.Medical.DepressionAnxiety },
		yes: byLabel{
			models.LabelHypo:   {"Depression/Anxiety", 11, "Low mood and depression are common symptoms of hypothyroidism."},
			models.LabelHyper:  {"Anxiety", 11, "Anxiety and nervousness are common symptoms of hyperthyroidism."},
			models.LabelNormal: {"Depression/Anxiety", -9, "Mood disorders can be thyroid related, which weighs against a normal result."},
		},
		no: abnormal("No Mood Disorders", -9, 9,
			"You report no depression or anxiety, which are common with thyroid disorders.",
			"You report no depression or anxiety, supporting normal thyroid function."),
	},
	{
		flag: func(r intake.Record) bool { return r.Medical.HeartDisease },
		yes: byLabel{
			models.LabelHyper:  {"Heart Disease", 13, "Heart conditions such as arrhythmia are strongly associated with hyperthyroidism."},
			models.LabelHypo:   {"Heart Disease", 9, "Hypothyroidism is associated with cardiovascular disease."},
			models.LabelNormal: {"Heart Disease", -9, "Heart disease can be thyroid related, which weighs against a normal result."},
		},
		no: abnormal("No Heart Disease", -5, 5,
			"You do not have heart disease, which often accompanies thyroid disorders.",
			"You do not have heart disease, a protective factor."),
	},
	{
		flag: func(r intake.Record) bool { return r.Medical.MenstrualIrregularities },
		yes: abnormal("Menstrual Irregularities", 10, -10,
			"Menstrual irregularities are a recognised sign of thyroid hormone imbalance.",
			"Menstrual irregularities may indicate hormone imbalance, which weighs against a normal result."),
		no: abnormal("Regular Menstrual Cycles", -8, 8,
			"Regular cycles are less typical of a thyroid disorder.",
			"Regular cycles support balanced thyroid hormones."),
	},
	{
		flag: func(r intake.Record) bool { return r.Medical.AutoimmuneDiseases },
		yes: abnormal("Autoimmune Disease History", 14, -14,
			"Autoimmune diseases strongly raise the risk of Hashimoto's and Graves' disease.",
			"A history of autoimmune disease raises thyroid risk, which weighs against a normal result."),
		no: abnormal("No Autoimmune Diseases", -12, 12,
			"You have no autoimmune disease, the most common cause of thyroid disorders.",
			"You have no autoimmune disease, a strong protective factor."),
	},

	// 家族史
	{
		flag: func(r intake.Record) bool { return r.Family.Hypothyroidism },
		yes: byLabel{
			models.LabelHypo:   {"Family History of Hypothyroidism", 15, "Hypothyroidism in close relatives substantially raises your risk."},
			models.LabelNormal: {"Family History of Hypothyroidism", -12, "A family history of hypothyroidism raises your risk, which weighs against a normal result."},
		},
		no: byLabel{
			models.LabelHypo:   {"No Family History of Hypothyroidism", -13, "No relatives with hypothyroidism lowers the likelihood of this diagnosis."},
			models.LabelNormal: {"No Family History of Hypothyroidism", 10, "No relatives with hypothyroidism supports a normal result."},
		},
	},
	{
		flag: func(r intake.Record) bool { return r.Family.Hyperthyroidism },
		yes: byLabel{
			models.LabelHyper:  {"Family History of Hyperthyroidism", 15, "Hyperthyroidism in close relatives substantially raises your risk."},
			models.LabelNormal: {"Family History of Hyperthyroidism", -12, "A family history of hyperthyroidism raises your risk, which weighs against a normal result."},
		},
		no: byLabel{
			models.LabelHyper:  {"No Family History of Hyperthyroidism", -13, "No relatives with hyperthyroidism lowers the likelihood of this diagnosis."},
			models.LabelNormal: {"No Family History of Hyperthyroidism", 10, "No relatives with hyperthyroidism supports a normal result."},
		},
	},
	{
		flag: func(r intake.Record) bool { return r.Family.Goiter },
		yes: abnormal("Family History of Goiter", 12, -12,
			"Goiter in the family indicates a hereditary tendency to thyroid disease.",
			"Goiter in the family raises your risk, which weighs against a normal result."),
		no: abnormal("No Family History of Goiter", -10, 10,
			"No family history of goiter lowers hereditary risk.",
			"No family history of goiter supports a normal result."),
	},
	{
		flag: func(r intake.Record) bool { return r.Family.ThyroidCancer },
		yes: abnormal("Family History of Thyroid Cancer", 13, -13,
			"Thyroid cancer in the family indicates elevated hereditary thyroid risk.",
			"Thyroid cancer in the family raises your risk, which weighs against a normal result."),
		no: abnormal("No Family History of Thyroid Cancer", -11, 11,
			"No family history of thyroid cancer lowers hereditary risk.",
			"No family history of thyroid cancer supports a normal result."),
	},

	// 当前症状
	{
		flag: func(r intake.Record) bool { return r.Symptoms.Fatigue },
		yes: byLabel{
			models.LabelHypo:   {"Fatigue/Weakness", 13, "Persistent tiredness is one of the most common symptoms of hypothyroidism."},
			models.LabelHyper:  {"Fatigue", 8, "Fatigue and muscle weakness can occur with hyperthyroidism."},
			models.LabelNormal: {"Fatigue/Weakness", -11, "Ongoing fatigue can be thyroid related, which weighs against a normal result."},
		},
		no: abnormal("No Fatigue", -11, 11,
			"You report no fatigue, a very common thyroid symptom.",
			"You report no fatigue, supporting normal thyroid function."),
	},
	{
		flag: func(r intake.Record) bool { return r.Symptoms.WeightChange },
		yes: byLabel{
			models.LabelHypo:   {"Unexplained Weight Gain", 14, "Unexplained weight gain reflects the slowed metabolism of hypothyroidism."},
			models.LabelHyper:  {"Unexplained Weight Loss", 14, "Unexplained weight loss reflects the accelerated metabolism of hyperthyroidism."},
			models.LabelNormal: {"Unexplained Weight Changes", -12, "Unexplained weight changes can be thyroid related, which weighs against a normal result."},
		},
		no: abnormal("Stable Weight", -12, 12,
			"Your weight is stable, which is less typical of a thyroid disorder.",
			"Your weight is stable, supporting a balanced metabolism."),
	},
	{
		flag: func(r intake.Record) bool { return r.Symptoms.DrySkin },
		yes: byLabel{
			models.LabelHypo:   {"Dry Skin", 10, "Dry, rough skin is a classic sign of hypothyroidism."},
			models.LabelNormal: {"Dry Skin", -8, "Dry skin can be thyroid related, which weighs against a normal result."},
		},
		no: byLabel{
			models.LabelHypo:   {"Normal Skin", -8, "Your skin is normal, which is less typical of hypothyroidism."},
			models.LabelNormal: {"Normal Skin", 8, "Your skin is normal, supporting normal thyroid function."},
		},
	},
	{
		flag: func(r intake.Record) bool { return r.Symptoms.HairLoss },
		yes: abnormal("Hair Thinning/Loss", 11, -9,
			"Hair thinning occurs with both under- and overactive thyroid.",
			"Hair loss can be thyroid related, which weighs against a normal result."),
		no: abnormal("Normal Hair Growth", -9, 9,
			"Your hair growth is normal, which is less typical of a thyroid disorder.",
			"Your hair growth is normal, supporting normal thyroid function."),
	},
	{
		flag: func(r intake.Record) bool { return r.Symptoms.HeartRate },
		yes: byLabel{
			models.LabelHyper:  {"Rapid Heart Rate", 16, "A fast or pounding heartbeat is a hallmark of hyperthyroidism."},
			models.LabelHypo:   {"Slow Heart Rate", 12, "A slow heart rate is consistent with hypothyroidism."},
			models.LabelNormal: {"Abnormal Heart Rate", -12, "An abnormal heart rate can be thyroid related, which weighs against a normal result."},
		},
		no: abnormal("Normal Heart Rate", -14, 14,
			"Your heart rate is normal, which is less typical of a thyroid disorder.",
			"Your heart rate is normal, supporting normal thyroid function."),
	},
	{
		flag: func(r intake.Record) bool { return r.Symptoms.Digestion },
		yes: byLabel{
			models.LabelHypo:   {"Constipation", 11, "Constipation is common when hypothyroidism slows digestion."},
			models.LabelHyper:  {"Diarrhea", 11, "Frequent bowel movements are common when hyperthyroidism speeds digestion."},
			models.LabelNormal: {"Digestive Issues", -9, "Digestive changes can be thyroid related, which weighs against a normal result."},
		},
		no: abnormal("Normal Digestion", -9, 9,
			"Your digestion is normal, which is less typical of a thyroid disorder.",
			"Your digestion is normal, supporting normal thyroid function."),
	},
	{
		flag: func(r intake.Record) bool { return r.Symptoms.IrregularPeriods },
		yes: abnormal("Irregular Menstrual Periods", 12, -10,
			"Irregular periods are a recognised symptom of thyroid hormone imbalance.",
			"Irregular periods can be thyroid related, which weighs against a normal result."),
		no: abnormal("Regular Periods", -10, 10,
			"Regular periods are less typical of a thyroid disorder.",
			"Regular periods support balanced thyroid hormones."),
	},
	{
		flag: func(r intake.Record) bool { return r.Symptoms.NeckSwelling },
		yes: abnormal("Neck Swelling/Goiter", 17, -17,
			"Swelling at the front of the neck suggests an enlarged thyroid gland.",
			"Neck swelling suggests an enlarged thyroid, which weighs against a normal result."),
		no: abnormal("No Neck Swelling", -15, 15,
			"No neck swelling makes a structural thyroid problem less likely.",
			"No neck swelling supports a normal thyroid gland."),
	},
}

// ageBand 年龄段，按顺序取第一个满足的区间；30 到 40 岁不产生因子
type ageBand struct {
	above  int
	below  int
	factor byLabel
}

var ageBands = []ageBand{
	{above: 60, factor: abnormalOnly("Age Factor (60+)", 14,
		"At age {age} you are in a high-risk group; thyroid disorders become much more common after 60.")},
	{above: 50, factor: abnormalOnly("Age Factor (50+)", 12,
		"At age {age} your risk is elevated; prevalence rises markedly after 50.")},
	{above: 40, factor: abnormalOnly("Age Factor (40+)", 8,
		"At age {age} you are entering a higher-risk period as thyroid function declines with age.")},
	{below: 30, factor: only(models.LabelNormal, "Age Factor (<30)", 8,
		"At age {age} thyroid disorders are less common, supporting normal thyroid function.")},
}

func abnormalOnly(name string, impact int, desc string) byLabel {
	return byLabel{
		models.LabelHypo:  {name, impact, desc},
		models.LabelHyper: {name, impact, desc},
	}
}

var genderFactors = map[models.Gender]byLabel{
	models.GenderFemale: abnormal("Gender Factor (Female)", 12, -8,
		"Women are five to eight times more likely than men to develop thyroid conditions.",
		"Women have a higher baseline risk for thyroid disorders."),
	models.GenderMale: consistent(models.LabelNormal, "Gender Factor (Male)", 8, -8,
		"Men have a lower baseline risk for thyroid disorders.",
		"Thyroid disorders are less common in men."),
}

var protective = outcome{
	name:   "No Risk Factors Present",
	impact: 15,
	desc:   "You report no significant medical conditions, family history or symptoms associated with thyroid disorders.",
}

// protectiveChecks 正常分类下至少两项成立时追加综合保护因子
var protectiveChecks = []func(intake.Record) bool{
	func(r intake.Record) bool {
		m := r.Medical
		return !m.Diabetes && !m.HighBloodPressure && !m.HighCholesterol && !m.Anemia
	},
	func(r intake.Record) bool {
		f := r.Family
		return !f.Hypothyroidism && !f.Hyperthyroidism && !f.Goiter && !f.ThyroidCancer
	},
	func(r intake.Record) bool {
		s := r.Symptoms
		return !s.Fatigue && !s.WeightChange && !s.HeartRate && !s.NeckSwelling
	},
}
