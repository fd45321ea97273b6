package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thaistayandfly/travel-itinerary/internal/http/middleware"
	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

type openDocumentRequest struct {
	Year string `json:"year"`
}

type downloadAllRequest struct {
	Year string `json:"year"`
}

// ListDocuments reports the composite keys currently cached, so the
// client can mark which buttons open without a prompt.
func (a *App) ListDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"documents": a.Index.Keys()})
}

// OpenDocument verifies access and returns one document payload. The
// year comes from the body; a bearer token from a previous verification
// in the same session substitutes for it.
func (a *App) OpenDocument(c *gin.Context) {
	sess, ok := a.resolveSession(c)
	if !ok {
		return
	}

	rowIndex, docIndex, ok := docCoordinates(c)
	if !ok {
		return
	}

	var req openDocumentRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if !BindJSONOrError(c, &req) {
			return
		}
	}

	result, err := a.docsService(c).Open(sess, rowIndex, docIndex,
		req.Year, middleware.GetDocAccessToken(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DownloadAll caches every outstanding document in one sequential run.
// Only one run at a time; a second request while one is active gets 409.
func (a *App) DownloadAll(c *gin.Context) {
	sess, ok := a.resolveSession(c)
	if !ok {
		return
	}

	if !a.Bulk.TryStart() {
		RespondError(c, http.StatusConflict, "a download is already in progress", nil)
		return
	}

	var req downloadAllRequest
	if !BindJSONOrError(c, &req) {
		a.Bulk.Release()
		return
	}

	result, err := a.fetchService(c).Load(sess, declaredOffline(c))
	if err != nil {
		a.Bulk.Release()
		RespondDomainError(c, err)
		return
	}

	report, err := a.docsService(c).DownloadAll(sess, result.Rows, req.Year, a.Bulk)
	if err != nil {
		a.Bulk.Release()
		RespondDomainError(c, err)
		return
	}

	utils.LogEvent(middleware.GetRequestID(c), "docs", "bulk_done",
		"succeeded="+strconv.Itoa(report.Succeeded)+" failed="+strconv.Itoa(report.Failed))
	c.JSON(http.StatusOK, report)
}

// BulkStatus reports progress of the active (or last) download-all run.
func (a *App) BulkStatus(c *gin.Context) {
	running, done, total, report := a.Bulk.Status()
	c.JSON(http.StatusOK, gin.H{
		"running":   running,
		"processed": done,
		"total":     total,
		"report":    report,
	})
}

// ClearCache wipes every storage tier. Session parameters go too, so the
// next visit needs a full link again.
func (a *App) ClearCache(c *gin.Context) {
	reqID := middleware.GetRequestID(c)

	if err := a.Docs.Clear(); err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to clear document store", err)
		return
	}
	a.Index.Replace(nil)

	if err := a.KV.Clear(); err != nil {
		utils.LogEvent(reqID, "cache", "clear", "kv: "+err.Error())
	}
	if err := a.RespCache.Clear(); err != nil {
		utils.LogEvent(reqID, "cache", "clear", "respcache: "+err.Error())
	}

	utils.LogEvent(reqID, "cache", "clear", "all storage tiers wiped")
	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}

func docCoordinates(c *gin.Context) (int, int, bool) {
	rowIndex, err := strconv.Atoi(c.Param("row"))
	if err != nil || rowIndex < 0 {
		RespondError(c, http.StatusBadRequest, "invalid row index", err)
		return 0, 0, false
	}
	docIndex, err := strconv.Atoi(c.Param("doc"))
	if err != nil || docIndex < 0 {
		RespondError(c, http.StatusBadRequest, "invalid document index", err)
		return 0, 0, false
	}
	return rowIndex, docIndex, true
}
