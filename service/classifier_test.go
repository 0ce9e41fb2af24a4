package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"thyrosight/apperror"
	"thyrosight/config"
	"thyrosight/intake"
	"thyrosight/models"

	"github.com/jarcoal/httpmock"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://classifier.test"

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		BaseURL:  testBaseURL + "/",
		Timeout:  2 * time.Second,
		CacheTTL: time.Minute,
		Breaker: config.BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 2,
		},
	}
}

func activateMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func sampleRecord() intake.Record {
	return intake.Normalize(map[string]interface{}{
		"age": 35, "gender": "female", "diabetes": "yes",
		"tsh": "yes", "tshValue": 8.5, "sym_fatigue": "yes",
	})
}

func TestFeatures(t *testing.T) {
	f := Features(sampleRecord())

	assert.Equal(t, 35, f["Age"])
	assert.Equal(t, 0, f["Sex"])
	assert.Equal(t, "Hybrid", f["mode"])
	assert.Equal(t, 1, f["Diabetes"])
	assert.Equal(t, 0, f["HighCholesterol"])
	assert.Equal(t, 1, f["Sym_Fatigue"])
	assert.Equal(t, 0, f["FH_Goiter"])
	assert.Equal(t, 8.5, f["TSH mIU/L"])
	assert.Equal(t, 0.0, f["T3 ng/dL"])
	assert.Equal(t, 0.0, f["T4U"])
	assert.Len(t, f, 3+20+5)

	male := Features(intake.Normalize(map[string]interface{}{"gender": "m"}))
	assert.Equal(t, 1, male["Sex"])
}

func TestPredict_Success(t *testing.T) {
	activateMock(t)

	var got map[string]interface{}
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"success":     true,
				"prediction":  "Hypothyroid",
				"confidence":  82.5,
				"mode":        "Hybrid (Lab-Assisted)",
				"shap_values": []map[string]interface{}{{"feature": "TSH mIU/L", "impact": 41.2}},
				"message":     " Hybrid (Lab-Assisted) prediction successful.",
			})
		})

	client := NewClassifierClient(testGatewayConfig())
	p, err := client.Predict(context.Background(), sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, models.LabelHypo, p.Label)
	assert.Equal(t, 82.5, p.Confidence)
	assert.Equal(t, "Hybrid (Lab-Assisted)", p.Mode)
	assert.Equal(t, "Hybrid (Lab-Assisted) prediction successful.", p.Message)
	assert.JSONEq(t, `[{"feature":"TSH mIU/L","impact":41.2}]`, string(p.SHAP))

	assert.Equal(t, 8.5, got["TSH mIU/L"])
	assert.Equal(t, float64(1), got["Diabetes"])
}

func TestPredict_CacheAvoidsSecondCall(t *testing.T) {
	activateMock(t)
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict",
		httpmock.NewStringResponder(http.StatusOK, `{"success":true,"prediction":"Normal","confidence":64,"mode":"Symptom-Only"}`))

	client := NewClassifierClient(testGatewayConfig())
	first, err := client.Predict(context.Background(), sampleRecord())
	require.NoError(t, err)

	// 修改返回值不影响缓存
	first.Confidence = 1

	second, err := client.Predict(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, models.LabelNormal, second.Label)
	assert.Equal(t, 64.0, second.Confidence)
	assert.Nil(t, second.SHAP)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	// 不同输入不命中缓存
	_, err = client.Predict(context.Background(), intake.Normalize(map[string]interface{}{"age": 70}))
	require.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestPredict_UpstreamFailures(t *testing.T) {
	cases := []struct {
		name      string
		responder httpmock.Responder
		message   string
	}{
		{"server error", httpmock.NewStringResponder(http.StatusInternalServerError, `{"success":false,"message":"Prediction failed: boom"}`), "Prediction failed: boom"},
		{"bad gateway html", httpmock.NewStringResponder(http.StatusBadGateway, `<html>bad gateway</html>`), "分类服务返回错误"},
		{"success false", httpmock.NewStringResponder(http.StatusOK, `{"success":false,"message":"Model not loaded"}`), "Model not loaded"},
		{"uncertain label", httpmock.NewStringResponder(http.StatusOK, `{"success":true,"prediction":"Uncertain","confidence":40}`), "分类服务返回了无法识别的结果"},
		{"confidence out of range", httpmock.NewStringResponder(http.StatusOK, `{"success":true,"prediction":"Hyperthyroid","confidence":120}`), "分类服务返回的置信度无效"},
		{"malformed json", httpmock.NewStringResponder(http.StatusOK, `{"success":`), "解析分类服务响应失败"},
		{"transport", httpmock.NewErrorResponder(errors.New("connection refused")), "分类服务请求失败"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			activateMock(t)
			httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict", tc.responder)

			client := NewClassifierClient(testGatewayConfig())
			p, err := client.Predict(context.Background(), sampleRecord())
			require.Error(t, err)
			assert.Nil(t, p)

			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindUpstream, appErr.Kind)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestPredict_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	activateMock(t)
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	client := NewClassifierClient(testGatewayConfig())
	for i := 0; i < 2; i++ {
		_, err := client.Predict(context.Background(), sampleRecord())
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, client.breaker.State())

	_, err := client.Predict(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUpstream))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestPredict_NoCacheWhenTTLDisabled(t *testing.T) {
	activateMock(t)
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/predict",
		httpmock.NewStringResponder(http.StatusOK, `{"success":true,"prediction":"hyper","confidence":90}`))

	cfg := testGatewayConfig()
	cfg.CacheTTL = 0
	client := NewClassifierClient(cfg)

	for i := 0; i < 2; i++ {
		p, err := client.Predict(context.Background(), sampleRecord())
		require.NoError(t, err)
		assert.Equal(t, models.LabelHyper, p.Label)
	}
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}
