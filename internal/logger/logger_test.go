package logger

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestFormatFields_SortedKeys(t *testing.T) {
	got := formatFields(Fields{"b": 2, "a": "x", "c": 1.5})
	assert.Equal(t, "{a=x, b=2, c=1.50}", got)
	assert.Equal(t, "", formatFields(nil))
}

func TestLevels(t *testing.T) {
	buf := captureLog(t)

	Info("hello", Fields{"component": "test"})
	Warn("careful", nil)
	Debug("details", Fields{"n": 3})
	Error("failed", errors.New("boom"), Fields{"caller_id": "c1"})

	out := buf.String()
	assert.Contains(t, out, "[INFO] hello {component=test}")
	assert.Contains(t, out, "[WARN] careful")
	assert.Contains(t, out, "[DEBUG] details {n=3}")
	assert.Contains(t, out, "[ERROR] failed: boom {caller_id=c1}")
}

func TestWithContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/chat", nil)
	c.Set("request_id", "req-1")
	c.Set("caller_id", "caller-9")

	fields := WithContext(c)
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "caller-9", fields["caller_id"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/chat", fields["path"])
}

func TestLogAPIRequest(t *testing.T) {
	buf := captureLog(t)
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/health", nil)
	c.Set("request_id", "req-2")

	LogAPIRequest(c, 15*time.Millisecond, 200, nil)

	out := buf.String()
	assert.Contains(t, out, "[INFO] API request completed")
	assert.Contains(t, out, "duration_ms=15")
	assert.Contains(t, out, "request_id=req-2")
	assert.Contains(t, out, "status_code=200")
}

func TestLogGenerationRequest(t *testing.T) {
	buf := captureLog(t)

	LogGenerationRequest(context.Background(), "qwen-max", time.Second, 10, 5, Fields{"operation": "intent"})

	out := buf.String()
	assert.Contains(t, out, "model=qwen-max")
	assert.Contains(t, out, "total_tokens=15")
	assert.Contains(t, out, "operation=intent")
}

func TestError_NilErr(t *testing.T) {
	buf := captureLog(t)

	Error("request failed", nil, Fields{"status_code": 500})

	assert.Contains(t, buf.String(), "[ERROR] request failed: <nil> {status_code=500}")
}
