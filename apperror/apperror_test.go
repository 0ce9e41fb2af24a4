package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection refused")

	assert.Equal(t, KindValidation, KindOf(Validation("bad label")))
	assert.Equal(t, KindStorage, KindOf(Storage(base, "写入失败")))
	assert.Equal(t, KindInternal, KindOf(base))

	// 经 fmt.Errorf 包装后仍可识别
	wrapped := fmt.Errorf("submit: %w", Upstream(base, "分类服务不可用"))
	assert.Equal(t, KindUpstream, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindUpstream))
	assert.False(t, Is(nil, KindUpstream))
	assert.ErrorIs(t, wrapped, base)
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "not_found: 评估记录不存在", NotFound("评估记录不存在").Error())
	assert.Equal(t, "storage: 写入失败: boom", Storage(errors.New("boom"), "写入失败").Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindUnauthorized: http.StatusUnauthorized,
		KindUpstream:     http.StatusBadGateway,
		KindStorage:      http.StatusInternalServerError,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), string(kind))
	}
}
