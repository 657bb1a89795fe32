package xresponse

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSuccess_NilDataIsNull(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, "Queue not created", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, present := body["data"]
	assert.True(t, present)
	assert.Nil(t, data)
	assert.Equal(t, "success", body["status"])
}

func TestForbidden(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Forbidden(c, "permission denied")

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeForbidden, body.ErrorCode)
	assert.Equal(t, "error", body.Status)
}

func TestGetStatusFromCode(t *testing.T) {
	assert.Equal(t, "success", GetStatusFromCode(http.StatusCreated))
	assert.Equal(t, "error", GetStatusFromCode(http.StatusConflict))
}
