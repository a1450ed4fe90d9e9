package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginatedMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		total, limit, wantPages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)

		Paginated(c, []string{}, tc.total, 1, tc.limit)
		assert.Equal(t, http.StatusOK, rec.Code)

		var body Body
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotNil(t, body.Meta)
		assert.True(t, body.Success)
		assert.Equal(t, tc.total, body.Meta.Total)
		assert.Equal(t, tc.wantPages, body.Meta.TotalPages, "total=%d limit=%d", tc.total, tc.limit)
	}
}

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Conflict(c, "webinar is at full capacity")
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "webinar is at full capacity", body.Error)
}
