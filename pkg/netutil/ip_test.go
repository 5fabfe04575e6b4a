package netutil

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:53211"

	ip, err := GetClientIP(r)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", ip)

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	ip, err = GetClientIP(r)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", ip)

	r.Header.Del("X-Forwarded-For")
	r.RemoteAddr = "10.0.0.2"
	ip, err = GetClientIP(r)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", ip)

	r.RemoteAddr = ""
	_, err = GetClientIP(r)
	assert.Error(t, err)
}
