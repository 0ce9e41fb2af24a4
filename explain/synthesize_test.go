package explain

import (
	"math/rand"
	"testing"

	"thyrosight/intake"
	"thyrosight/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lab(v float64) intake.Lab {
	return intake.Lab{Taken: true, Value: &v}
}

func findFactor(fs []models.Factor, name string) (models.Factor, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return models.Factor{}, false
}

func assertOrdered(t *testing.T, fs []models.Factor) {
	t.Helper()
	seenNegative := false
	prev := map[models.Polarity]int{}
	for i, f := range fs {
		switch f.Type {
		case models.PolarityPositive:
			require.False(t, seenNegative, "positive factor %q after a negative one", f.Name)
			assert.Greater(t, f.Impact, 0)
		case models.PolarityNegative:
			seenNegative = true
			assert.Less(t, f.Impact, 0)
		default:
			t.Fatalf("unexpected polarity %q", f.Type)
		}
		if last, ok := prev[f.Type]; ok {
			assert.LessOrEqual(t, f.AbsImpact(), last, "factor %d (%s) breaks ordering", i, f.Name)
		}
		prev[f.Type] = f.AbsImpact()
	}
}

func TestSynthesize_TSHLowRange(t *testing.T) {
	rec := intake.Record{Age: 35, Labs: intake.Labs{TSH: lab(0.2)}}

	hyper, ok := findFactor(Synthesize(models.LabelHyper, rec), "TSH Levels (Low)")
	require.True(t, ok)
	assert.Equal(t, models.PolarityPositive, hyper.Type)
	assert.Equal(t, 25, hyper.Impact)
	assert.Contains(t, hyper.Description, "0.2 mIU/L")

	hypo, ok := findFactor(Synthesize(models.LabelHypo, rec), "TSH Levels (Low)")
	require.True(t, ok)
	assert.Equal(t, models.PolarityNegative, hypo.Type)
	assert.Equal(t, -22, hypo.Impact)
	assert.Contains(t, hypo.Description, "hypothyroid")
}

func TestSynthesize_LabBuckets(t *testing.T) {
	cases := []struct {
		name   string
		labs   intake.Labs
		label  models.Label
		factor string
		impact int
	}{
		{"tsh high hypo", intake.Labs{TSH: lab(8.5)}, models.LabelHypo, "TSH Levels (High)", 25},
		{"tsh high normal", intake.Labs{TSH: lab(8.5)}, models.LabelNormal, "TSH Levels (High)", -22},
		{"tsh boundary normal", intake.Labs{TSH: lab(4.0)}, models.LabelNormal, "TSH Levels (Normal)", 18},
		{"tsh normal hyper", intake.Labs{TSH: lab(1.5)}, models.LabelHyper, "TSH Levels (Normal)", -15},
		{"t3 high hyper", intake.Labs{T3: lab(250)}, models.LabelHyper, "T3 Levels (High)", 20},
		{"t3 low normal", intake.Labs{T3: lab(60)}, models.LabelNormal, "T3 Levels (Low)", -18},
		{"t3 boundary", intake.Labs{T3: lab(80)}, models.LabelHypo, "T3 Levels (Normal)", -12},
		{"t4 low hypo", intake.Labs{T4: lab(3.9)}, models.LabelHypo, "T4 Levels (Low)", 18},
		{"t4 high normal", intake.Labs{T4: lab(13)}, models.LabelNormal, "T4 Levels (High)", -16},
		{"fti normal", intake.Labs{FTI: lab(2.5)}, models.LabelNormal, "Free Thyroxine Index (Normal)", 12},
		{"fti high", intake.Labs{FTI: lab(4.5)}, models.LabelHyper, "Free Thyroxine Index (High)", 15},
		{"t4u low", intake.Labs{T4Uptake: lab(20)}, models.LabelHypo, "T4 Uptake (Low)", 12},
		{"t4u normal", intake.Labs{T4Uptake: lab(30)}, models.LabelNormal, "T4 Uptake (Normal)", 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, ok := findFactor(Synthesize(tc.label, intake.Record{Age: 35, Labs: tc.labs}), tc.factor)
			require.True(t, ok)
			assert.Equal(t, tc.impact, f.Impact)
		})
	}
}

func TestSynthesize_PositiveOnlyLabsEmitNothingOnMismatch(t *testing.T) {
	rec := intake.Record{Age: 35, Labs: intake.Labs{FTI: lab(2.5), T4Uptake: lab(40)}}
	fs := Synthesize(models.LabelHypo, rec)

	_, ok := findFactor(fs, "Free Thyroxine Index (Normal)")
	assert.False(t, ok)
	_, ok = findFactor(fs, "T4 Uptake (High)")
	assert.False(t, ok)
}

func TestSynthesize_LabValueIgnoredWithoutFlag(t *testing.T) {
	v := 0.1
	rec := intake.Record{Age: 35, Labs: intake.Labs{
		TSH: intake.Lab{Taken: false, Value: &v},
		T3:  intake.Lab{Taken: true},
	}}
	for _, label := range models.Labels {
		for _, f := range Synthesize(label, rec) {
			assert.NotContains(t, f.Name, "TSH")
			assert.NotContains(t, f.Name, "T3")
		}
	}
}

func TestSynthesize_BinaryAnswers(t *testing.T) {
	yes := intake.Record{Age: 35}
	yes.Symptoms.NeckSwelling = true
	yes.Medical.HighCholesterol = true

	f, ok := findFactor(Synthesize(models.LabelHyper, yes), "Neck Swelling/Goiter")
	require.True(t, ok)
	assert.Equal(t, 17, f.Impact)

	f, ok = findFactor(Synthesize(models.LabelNormal, yes), "Neck Swelling/Goiter")
	require.True(t, ok)
	assert.Equal(t, -17, f.Impact)

	// 高胆固醇只对甲减给出因子
	_, ok = findFactor(Synthesize(models.LabelHyper, yes), "High Cholesterol")
	assert.False(t, ok)
	f, ok = findFactor(Synthesize(models.LabelHypo, yes), "High Cholesterol")
	require.True(t, ok)
	assert.Equal(t, 12, f.Impact)

	// 否定回答同样产生因子
	f, ok = findFactor(Synthesize(models.LabelNormal, intake.Record{Age: 35}), "No Neck Swelling")
	require.True(t, ok)
	assert.Equal(t, 15, f.Impact)
	assert.Equal(t, models.PolarityPositive, f.Type)

	// 同一症状在不同分类下名称不同
	hr := intake.Record{Age: 35}
	hr.Symptoms.HeartRate = true
	_, ok = findFactor(Synthesize(models.LabelHyper, hr), "Rapid Heart Rate")
	assert.True(t, ok)
	_, ok = findFactor(Synthesize(models.LabelHypo, hr), "Slow Heart Rate")
	assert.True(t, ok)
	_, ok = findFactor(Synthesize(models.LabelNormal, hr), "Abnormal Heart Rate")
	assert.True(t, ok)
}

func TestSynthesize_AgeBands(t *testing.T) {
	cases := []struct {
		age    int
		label  models.Label
		factor string
		impact int
	}{
		{65, models.LabelHypo, "Age Factor (60+)", 14},
		{55, models.LabelHyper, "Age Factor (50+)", 12},
		{45, models.LabelHypo, "Age Factor (40+)", 8},
		{25, models.LabelNormal, "Age Factor (<30)", 8},
	}
	for _, tc := range cases {
		f, ok := findFactor(Synthesize(tc.label, intake.Record{Age: tc.age}), tc.factor)
		require.True(t, ok, tc.factor)
		assert.Equal(t, tc.impact, f.Impact)
	}

	// 老年段不支持正常分类，<30 不支持异常分类，30-40 没有因子
	for _, fs := range [][]models.Factor{
		Synthesize(models.LabelNormal, intake.Record{Age: 65}),
		Synthesize(models.LabelHypo, intake.Record{Age: 25}),
		Synthesize(models.LabelHypo, intake.Record{Age: 35}),
		Synthesize(models.LabelNormal, intake.Record{Age: 40}),
	} {
		for _, f := range fs {
			assert.NotContains(t, f.Name, "Age Factor")
		}
	}
}

func TestSynthesize_Gender(t *testing.T) {
	f, ok := findFactor(Synthesize(models.LabelHypo, intake.Record{Age: 35, Gender: models.GenderFemale}), "Gender Factor (Female)")
	require.True(t, ok)
	assert.Equal(t, 12, f.Impact)

	f, ok = findFactor(Synthesize(models.LabelNormal, intake.Record{Age: 35, Gender: models.GenderFemale}), "Gender Factor (Female)")
	require.True(t, ok)
	assert.Equal(t, -8, f.Impact)

	f, ok = findFactor(Synthesize(models.LabelNormal, intake.Record{Age: 35, Gender: models.GenderMale}), "Gender Factor (Male)")
	require.True(t, ok)
	assert.Equal(t, 8, f.Impact)

	for _, f := range Synthesize(models.LabelHyper, intake.Record{Age: 35, Gender: models.GenderOther}) {
		assert.NotContains(t, f.Name, "Gender")
	}
}

func TestSynthesize_ProtectiveComposite(t *testing.T) {
	clean := intake.Record{Age: 35}
	f, ok := findFactor(Synthesize(models.LabelNormal, clean), "No Risk Factors Present")
	require.True(t, ok)
	assert.Equal(t, 15, f.Impact)

	// 异常分类不追加
	_, ok = findFactor(Synthesize(models.LabelHypo, clean), "No Risk Factors Present")
	assert.False(t, ok)

	// 三项中仅一项成立
	risky := intake.Record{Age: 35}
	risky.Medical.Diabetes = true
	risky.Family.Goiter = true
	_, ok = findFactor(Synthesize(models.LabelNormal, risky), "No Risk Factors Present")
	assert.False(t, ok)

	// 两项成立
	risky.Family.Goiter = false
	_, ok = findFactor(Synthesize(models.LabelNormal, risky), "No Risk Factors Present")
	assert.True(t, ok)
}

func TestSynthesize_OrderingInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	genders := []models.Gender{models.GenderMale, models.GenderFemale, models.GenderOther}

	for i := 0; i < 200; i++ {
		raw := map[string]interface{}{
			"age":    rng.Intn(90),
			"gender": string(genders[rng.Intn(len(genders))]),
		}
		for _, key := range intake.FlagKeys() {
			raw[key] = rng.Intn(2) == 1
		}
		raw["tsh_level"] = rng.Float64() * 10
		raw["t3_level"] = 40 + rng.Float64()*220
		raw["t4_level"] = rng.Float64() * 16
		raw["t4_uptake_result"] = 15 + rng.Float64()*30
		raw["fti_result"] = rng.Float64() * 5

		rec := intake.Normalize(raw)
		for _, label := range models.Labels {
			assertOrdered(t, Synthesize(label, rec))
		}
	}
}

func TestSynthesize_StableTies(t *testing.T) {
	// 正常分类下多个因子同为 +9，应保持规则顺序
	fs := Synthesize(models.LabelNormal, intake.Record{Age: 35})
	var nines []string
	for _, f := range fs {
		if f.Impact == 9 {
			nines = append(nines, f.Name)
		}
	}
	assert.Equal(t, []string{"No Mood Disorders", "Normal Hair Growth", "Normal Digestion"}, nines)
}

func TestSynthesize_NoTruncation(t *testing.T) {
	rec := intake.Record{Age: 65, Gender: models.GenderFemale, Labs: intake.Labs{
		TSH: lab(8.5), T3: lab(60), T4: lab(3), FTI: lab(0.5), T4Uptake: lab(20),
	}}
	// 5 项化验 + 18 个对甲减有意义的否定回答 + 年龄 + 性别
	fs := Synthesize(models.LabelHypo, rec)
	assert.Len(t, fs, 5+18+1+1)
}

func TestSynthesize_EndToEndScenario(t *testing.T) {
	raw := map[string]interface{}{"age": 35, "gender": "female", "tsh": "yes", "tshValue": 8.5}
	for _, key := range intake.FlagKeys() {
		if key != "tsh" {
			raw[key] = "no"
		}
	}

	fs := Synthesize(models.LabelHypo, intake.Normalize(raw))
	require.NotEmpty(t, fs)
	assert.Equal(t, "TSH Levels (High)", fs[0].Name)
	assert.Equal(t, 25, fs[0].Impact)
	assert.Equal(t, models.PolarityPositive, fs[0].Type)
	assertOrdered(t, fs)
}

func TestSynthesize_InvalidLabel(t *testing.T) {
	fs := Synthesize(models.Label("uncertain"), intake.Record{Age: 35})
	assert.NotNil(t, fs)
	assert.Empty(t, fs)
}
