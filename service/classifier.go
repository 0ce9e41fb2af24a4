package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"thyrosight/apperror"
	"thyrosight/config"
	"thyrosight/intake"
	"thyrosight/logger"
	"thyrosight/models"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Prediction 分类服务返回的结果
type Prediction struct {
	Label      models.Label    `json:"prediction"`
	Confidence float64         `json:"confidence"`
	Mode       string          `json:"mode"`
	SHAP       json.RawMessage `json:"shap_values,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// Classifier 根据规范化表单给出分类结果
type Classifier interface {
	Predict(ctx context.Context, rec intake.Record) (*Prediction, error)
}

// predictResponse /predict 的响应体
type predictResponse struct {
	Success    bool            `json:"success"`
	Prediction string          `json:"prediction"`
	Confidence float64         `json:"confidence"`
	Mode       string          `json:"mode"`
	SHAPValues json.RawMessage `json:"shap_values"`
	Message    string          `json:"message"`
}

// ClassifierClient 调用外部分类服务，带熔断与结果缓存
type ClassifierClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	cache   *cache.Cache
	log     *logrus.Entry
}

// NewClassifierClient 创建分类服务客户端
func NewClassifierClient(cfg config.GatewayConfig) *ClassifierClient {
	log := logger.L().WithField("component", "classifier")

	threshold := cfg.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("熔断器状态变化")
		},
	}

	c := &ClassifierClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
	if cfg.CacheTTL > 0 {
		c.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return c
}

// Predict 发送特征到 /predict，失败时返回 upstream 错误，不做本地兜底
func (c *ClassifierClient) Predict(ctx context.Context, rec intake.Record) (*Prediction, error) {
	payload, err := encodeFeatures(rec)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "编码分类特征失败")
	}

	key := featureKey(payload)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			p := *v.(*Prediction)
			return &p, nil
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperror.Upstream(err, "分类服务暂不可用，请稍后重试")
		}
		if appErr, ok := apperror.As(err); ok {
			return nil, appErr
		}
		return nil, apperror.Upstream(err, "分类服务调用失败")
	}

	p := result.(*Prediction)
	if c.cache != nil {
		cached := *p
		c.cache.SetDefault(key, &cached)
	}
	return p, nil
}

func (c *ClassifierClient) call(ctx context.Context, payload []byte) (*Prediction, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.Upstream(err, "创建分类请求失败")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.WithError(err).Error("分类服务请求失败")
		return nil, apperror.Upstream(err, "分类服务请求失败")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Upstream(err, "读取分类服务响应失败")
	}

	var out predictResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, apperror.Upstream(fmt.Errorf("HTTP %d", resp.StatusCode), "分类服务返回错误")
		}
		return nil, apperror.Upstream(err, "解析分类服务响应失败")
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		msg := strings.TrimSpace(out.Message)
		if msg == "" {
			msg = "分类服务返回错误"
		}
		return nil, apperror.Upstream(fmt.Errorf("HTTP %d", resp.StatusCode), msg)
	}

	label, ok := models.ParseLabel(out.Prediction)
	if !ok {
		return nil, apperror.Upstream(fmt.Errorf("label %q", out.Prediction), "分类服务返回了无法识别的结果")
	}
	if math.IsNaN(out.Confidence) || out.Confidence < 0 || out.Confidence > 100 {
		return nil, apperror.Upstream(fmt.Errorf("confidence %v", out.Confidence), "分类服务返回的置信度无效")
	}

	c.log.WithFields(logrus.Fields{
		"prediction": label,
		"confidence": out.Confidence,
		"mode":       out.Mode,
		"elapsed":    time.Since(start).String(),
	}).Info("分类完成")

	p := &Prediction{
		Label:      label,
		Confidence: out.Confidence,
		Mode:       out.Mode,
		Message:    strings.TrimSpace(out.Message),
	}
	if len(out.SHAPValues) > 0 && string(out.SHAPValues) != "null" {
		p.SHAP = out.SHAPValues
	}
	return p, nil
}
