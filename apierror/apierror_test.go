package apierror

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageFromBody(t *testing.T) {
	cases := []struct {
		description string
		body        string
		expected    string
	}{
		{"Should read a string message", `{"message":"name should not be empty"}`, "name should not be empty"},
		{"Should join array messages", `{"message":["name should not be empty","phone must be a string"]}`, "name should not be empty, phone must be a string"},
		{"Should return empty for missing message", `{"error":"Bad Request"}`, ""},
		{"Should return empty for non JSON body", `<html>502</html>`, ""},
		{"Should return empty for non string message", `{"message":42}`, ""},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			assert.Equal(t, c.expected, MessageFromBody([]byte(c.body)))
		})
	}
}

func TestFromResponse(t *testing.T) {
	recorder := httptest.NewRecorder()
	recorder.WriteHeader(http.StatusBadRequest)
	recorder.WriteString(`{"message":["a","b"]}`)

	serverErr := FromResponse(recorder.Result())
	assert.Equal(t, http.StatusBadRequest, serverErr.StatusCode)
	assert.Equal(t, "a, b", serverErr.MessageOr("fallback"))

	empty := &ServerError{StatusCode: 500}
	assert.Equal(t, "fallback", empty.MessageOr("fallback"))
}

func TestNetworkErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	var err error = &NetworkError{Err: cause}

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
}
