package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/thaistayandfly/travel-itinerary/internal/gateway"
)

// ShellAsset proxies one allow-listed static asset through the gateway
// transport, so fonts and styles keep working offline from the shell
// cache.
func (a *App) ShellAsset(c *gin.Context) {
	raw := c.Query("u")
	if raw == "" {
		RespondError(c, http.StatusBadRequest, "missing asset url", nil)
		return
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		RespondError(c, http.StatusBadRequest, "invalid asset url", err)
		return
	}
	if !gateway.HostAllowed(u.Host) {
		RespondError(c, http.StatusForbidden, "host not allowed", nil)
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to build asset request", err)
		return
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		RespondError(c, http.StatusBadGateway, "asset unavailable", err)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, nil)
}
