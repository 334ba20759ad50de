package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/snapcal/billing/pkg/config"
)

func allowlistRouter(t *testing.T, cidrs []string, trustProxy bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &cfgpkg.Config{}
	cfg.Provider.AllowedIPRanges = cidrs
	cfg.Provider.TrustProxyHeader = trustProxy

	r := gin.New()
	r.POST("/webhooks/provider", SourceIPAllowlist(cfg, zap.NewNop().Sugar()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ip": WebhookClientIP(c)})
	})
	return r
}

func TestSourceIPAllowlist_AllowsListedPeer(t *testing.T) {
	r := allowlistRouter(t, []string{"203.0.113.0/24"}, false)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", nil)
	req.RemoteAddr = "203.0.113.7:4411"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "203.0.113.7")
}

func TestSourceIPAllowlist_RejectsForeignPeer(t *testing.T) {
	r := allowlistRouter(t, []string{"203.0.113.0/24"}, false)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", nil)
	req.RemoteAddr = "198.51.100.9:4411"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSourceIPAllowlist_IgnoresForwardedForWithoutTrust(t *testing.T) {
	r := allowlistRouter(t, []string{"203.0.113.0/24"}, false)

	// The spoofed header must not override the peer address.
	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", nil)
	req.RemoteAddr = "198.51.100.9:4411"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSourceIPAllowlist_EmptyAllowlistFailsClosed(t *testing.T) {
	r := allowlistRouter(t, nil, false)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", nil)
	req.RemoteAddr = "203.0.113.7:4411"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSourceIPAllowlist_InvalidCIDRSkipped(t *testing.T) {
	r := allowlistRouter(t, []string{"bogus", "203.0.113.0/24"}, false)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", nil)
	req.RemoteAddr = "203.0.113.7:4411"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
