package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusForbidden, "limit reached", map[string]interface{}{
		"limit_reached": true,
		"current_plan":  "explorer",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Forbidden", body["title"])
	assert.Equal(t, "limit reached", body["detail"])
	assert.EqualValues(t, 403, body["status"])
	assert.Equal(t, true, body["limit_reached"])
	assert.Equal(t, "explorer", body["current_plan"])
	assert.NotEmpty(t, body["type"])
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=20&bad=x&tags=a,%20b,,c&flag=1&nope=maybe", nil)

	n, err := QueryInt(r, "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	n, err = QueryInt(r, "offset", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = QueryInt(r, "bad", 0)
	assert.EqualError(t, err, "bad must be an integer")

	b, err := QueryBool(r, "flag", false)
	require.NoError(t, err)
	assert.True(t, b)

	b, err = QueryBool(r, "absent", true)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = QueryBool(r, "nope", false)
	assert.Error(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, QueryList(r, "tags"))
	assert.Nil(t, QueryList(r, "missing"))
}

func TestOptionalString(t *testing.T) {
	var body struct {
		Category OptionalString `json:"category_id"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{}`), &body))
	assert.False(t, body.Category.Present)
	assert.False(t, body.Category.Clears())

	require.NoError(t, json.Unmarshal([]byte(`{"category_id":null}`), &body))
	assert.True(t, body.Category.Clears())

	body.Category = OptionalString{}
	require.NoError(t, json.Unmarshal([]byte(`{"category_id":"c1"}`), &body))
	require.NotNil(t, body.Category.Value)
	assert.Equal(t, "c1", *body.Category.Value)
	assert.False(t, body.Category.Clears())
}
