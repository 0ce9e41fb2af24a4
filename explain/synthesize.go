// Package explain 根据分类结果与规范化表单生成解释因子。
//
// 每条规则相互独立，至多产生一个因子；结果按极性分组，组内按影响力绝对值降序。
package explain

import (
	"sort"
	"strconv"
	"strings"

	"thyrosight/intake"
	"thyrosight/models"
)

// rule 单条规则，未命中时返回 false
type rule func(models.Label, intake.Record) (models.Factor, bool)

var labelText = map[models.Label]string{
	models.LabelNormal: "a normal result",
	models.LabelHypo:   "a hypothyroid result",
	models.LabelHyper:  "a hyperthyroid result",
}

// rules 固定求值顺序：化验、病史、家族史、症状、年龄、性别、综合保护因子
var rules = buildRules()

func buildRules() []rule {
	out := make([]rule, 0, len(labRules)+len(flagRules)+3)
	for _, lr := range labRules {
		out = append(out, lr.eval)
	}
	for _, fr := range flagRules {
		out = append(out, fr.eval)
	}
	return append(out, ageRule, genderRule, protectiveRule)
}

// Synthesize 生成有序解释因子列表，不截断
func Synthesize(label models.Label, rec intake.Record) []models.Factor {
	factors := []models.Factor{}
	if !label.Valid() {
		return factors
	}

	var positives, negatives []models.Factor
	for _, r := range rules {
		f, ok := r(label, rec)
		if !ok {
			continue
		}
		if f.Type == models.PolarityPositive {
			positives = append(positives, f)
		} else {
			negatives = append(negatives, f)
		}
	}

	sortByMagnitude(positives)
	sortByMagnitude(negatives)

	factors = append(factors, positives...)
	return append(factors, negatives...)
}

// sortByMagnitude 稳定排序，影响力相同时保持规则顺序
func sortByMagnitude(fs []models.Factor) {
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[i].AbsImpact() > fs[j].AbsImpact()
	})
}

func (lr labRule) eval(label models.Label, rec intake.Record) (models.Factor, bool) {
	lab := lr.lab(rec)
	if !lab.Present() {
		return models.Factor{}, false
	}
	v := *lab.Value

	bucket := lr.within
	switch {
	case v < lr.low:
		bucket = lr.below
	case v > lr.high:
		bucket = lr.above
	}
	return bucket.render(label, templateVars{value: formatValue(v)})
}

func (fr flagRule) eval(label models.Label, rec intake.Record) (models.Factor, bool) {
	if fr.flag(rec) {
		return fr.yes.render(label, templateVars{})
	}
	return fr.no.render(label, templateVars{})
}

func ageRule(label models.Label, rec intake.Record) (models.Factor, bool) {
	for _, b := range ageBands {
		if (b.above > 0 && rec.Age > b.above) || (b.below > 0 && rec.Age < b.below) {
			return b.factor.render(label, templateVars{age: strconv.Itoa(rec.Age)})
		}
	}
	return models.Factor{}, false
}

func genderRule(label models.Label, rec intake.Record) (models.Factor, bool) {
	bl, ok := genderFactors[rec.Gender]
	if !ok {
		return models.Factor{}, false
	}
	return bl.render(label, templateVars{})
}

func protectiveRule(label models.Label, rec intake.Record) (models.Factor, bool) {
	if label != models.LabelNormal {
		return models.Factor{}, false
	}
	held := 0
	for _, check := range protectiveChecks {
		if check(rec) {
			held++
		}
	}
	if held < 2 {
		return models.Factor{}, false
	}
	return protective.factor(label, templateVars{}), true
}

type templateVars struct {
	value string
	age   string
}

func (bl byLabel) render(label models.Label, vars templateVars) (models.Factor, bool) {
	o, ok := bl[label]
	if !ok {
		return models.Factor{}, false
	}
	return o.factor(label, vars), true
}

func (o outcome) factor(label models.Label, vars templateVars) models.Factor {
	polarity := models.PolarityPositive
	if o.impact < 0 {
		polarity = models.PolarityNegative
	}
	desc := strings.NewReplacer(
		"{value}", vars.value,
		"{age}", vars.age,
		"{label}", labelText[label],
	).Replace(o.desc)

	return models.Factor{
		Name:        o.name,
		Impact:      o.impact,
		Type:        polarity,
		Description: desc,
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
