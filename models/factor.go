package models

// Polarity 因子与分类结果的一致性
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// Factor 解释列表中的一项
type Factor struct {
	Name        string   `json:"name"`
	Impact      int      `json:"impact"`
	Type        Polarity `json:"type"`
	Description string   `json:"description"`
}

// AbsImpact 影响力绝对值
func (f Factor) AbsImpact() int {
	if f.Impact < 0 {
		return -f.Impact
	}
	return f.Impact
}
