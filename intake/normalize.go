// Package intake 将客户端提交的表单字段规范化为 Record。
//
// 客户端历史上出现过多种字段拼写（大小写、连字符与下划线混用、Yes/No 与 1/0 混用），
// 规范化只做形态转换：无法识别的值按缺省处理，从不报错。
package intake

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"thyrosight/models"
)

// DefaultMode 未提交 mode 时使用
const DefaultMode = "Hybrid"

type flagField struct {
	key string
	ptr func(*Record) *bool
}

type labField struct {
	flagKey      string
	valueKey     string
	valueAliases []string
	ptr          func(*Record) *Lab
}

var flagFields = []flagField{
	{key: "diabetes", ptr: func(r *Record) *bool { return &r.Medical.Diabetes }},
	{key: "high_blood_pressure", ptr: func(r *Record) *bool { return &r.Medical.HighBloodPressure }},
	{key: "high_cholesterol", ptr: func(r *Record) *bool { return &r.Medical.HighCholesterol }},
	{key: "anemia", ptr: func(r *Record) *bool { return &r.Medical.Anemia }},
	{key: "depression_anxiety", ptr: func(r *Record) *bool { return &r.Medical.DepressionAnxiety }},
	{key: "heart_disease", ptr: func(r *Record) *bool { return &r.Medical.HeartDisease }},
	{key: "menstrual_irregularities", ptr: func(r *Record) *bool { return &r.Medical.MenstrualIrregularities }},
	{key: "autoimmune_diseases", ptr: func(r *Record) *bool { return &r.Medical.AutoimmuneDiseases }},

	{key: "fh_hypothyroidism", ptr: func(r *Record) *bool { return &r.Family.Hypothyroidism }},
	{key: "fh_hyperthyroidism", ptr: func(r *Record) *bool { return &r.Family.Hyperthyroidism }},
	{key: "fh_goiter", ptr: func(r *Record) *bool { return &r.Family.Goiter }},
	{key: "fh_thyroid_cancer", ptr: func(r *Record) *bool { return &r.Family.ThyroidCancer }},

	{key: "sym_fatigue", ptr: func(r *Record) *bool { return &r.Symptoms.Fatigue }},
	{key: "sym_weight_change", ptr: func(r *Record) *bool { return &r.Symptoms.WeightChange }},
	{key: "sym_dry_skin", ptr: func(r *Record) *bool { return &r.Symptoms.DrySkin }},
	{key: "sym_hair_loss", ptr: func(r *Record) *bool { return &r.Symptoms.HairLoss }},
	{key: "sym_heart_rate", ptr: func(r *Record) *bool { return &r.Symptoms.HeartRate }},
	{key: "sym_digestion", ptr: func(r *Record) *bool { return &r.Symptoms.Digestion }},
	{key: "sym_irregular_periods", ptr: func(r *Record) *bool { return &r.Symptoms.IrregularPeriods }},
	{key: "sym_neck_swelling", ptr: func(r *Record) *bool { return &r.Symptoms.NeckSwelling }},
}

var labFields = []labField{
	{flagKey: "tsh", valueKey: "tsh_level", valueAliases: []string{"tshvalue"},
		ptr: func(r *Record) *Lab { return &r.Labs.TSH }},
	{flagKey: "t3", valueKey: "t3_level", valueAliases: []string{"t3value"},
		ptr: func(r *Record) *Lab { return &r.Labs.T3 }},
	{flagKey: "t4", valueKey: "t4_level", valueAliases: []string{"t4value"},
		ptr: func(r *Record) *Lab { return &r.Labs.T4 }},
	{flagKey: "t4_uptake", valueKey: "t4_uptake_result", valueAliases: []string{"t4uptakevalue"},
		ptr: func(r *Record) *Lab { return &r.Labs.T4Uptake }},
	{flagKey: "fti", valueKey: "fti_result", valueAliases: []string{"ftivalue"},
		ptr: func(r *Record) *Lab { return &r.Labs.FTI }},
}

// FlagKeys 全部布尔字段的规范键名，含化验标志
func FlagKeys() []string {
	keys := make([]string, 0, len(flagFields)+len(labFields))
	for _, f := range flagFields {
		keys = append(keys, f.key)
	}
	for _, f := range labFields {
		keys = append(keys, f.flagKey)
	}
	return keys
}

// Normalize 规范化原始表单
func Normalize(raw map[string]interface{}) Record {
	idx := newIndex(raw)

	r := Record{
		Age:    parseAge(idx.lookup("age")),
		Gender: parseGender(idx.lookup("gender", "sex")),
		Mode:   parseMode(idx.lookup("mode")),
	}

	for _, f := range flagFields {
		*f.ptr(&r) = toBool(idx.lookup(f.key))
	}

	for _, f := range labFields {
		lab := f.ptr(&r)
		lab.Taken = toBool(idx.lookup(f.flagKey))
		if !lab.Taken {
			continue
		}
		if v, ok := toFloat(idx.lookup(f.valueKey, f.valueAliases...)); ok {
			lab.Value = &v
		}
	}

	return r
}

// compact 去掉大小写、连字符与下划线差异
func compact(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, ch := range strings.ToLower(strings.TrimSpace(name)) {
		if ch == '_' || ch == '-' || ch == ' ' {
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

type index struct {
	raw  map[string]interface{}
	keys map[string][]string
}

func newIndex(raw map[string]interface{}) index {
	keys := make(map[string][]string, len(raw))
	for k := range raw {
		c := compact(k)
		keys[c] = append(keys[c], k)
	}
	for _, ks := range keys {
		sort.Strings(ks)
	}
	return index{raw: raw, keys: keys}
}

// lookup 依次尝试规范键及别名，跳过空值；同一紧凑键命中多个原始键时，优先完全等于规范键的那个
func (i index) lookup(canonical string, aliases ...string) interface{} {
	if v, ok := i.raw[canonical]; ok && !blank(v) {
		return v
	}
	for _, name := range append([]string{canonical}, aliases...) {
		for _, k := range i.keys[compact(name)] {
			if v := i.raw[k]; !blank(v) {
				return v
			}
		}
	}
	return nil
}

func blank(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func toBool(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		switch s {
		case "yes", "y", "1", "true", "on":
			return true
		case "", "no", "n", "0", "false", "off":
			return false
		}
		f, err := strconv.ParseFloat(s, 64)
		return err == nil && f != 0 && !math.IsNaN(f)
	}
	f, ok := toFloat(v)
	return ok && f != 0
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseAge(v interface{}) int {
	f, ok := toFloat(v)
	if !ok || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func parseGender(v interface{}) models.Gender {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "male", "m", "man", "1":
			return models.GenderMale
		case "female", "f", "woman", "0":
			return models.GenderFemale
		}
		return models.GenderOther
	}
	if f, ok := toFloat(v); ok {
		switch f {
		case 1:
			return models.GenderMale
		case 0:
			return models.GenderFemale
		}
	}
	return models.GenderOther
}

func parseMode(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return DefaultMode
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultMode
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
