package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
)

// DocumentInfo describes a cached document (page count, size) for the
// in-app viewer header.
func (a *App) DocumentInfo(c *gin.Context) {
	sess, rowIndex, docIndex, ok := a.viewerTarget(c)
	if !ok {
		return
	}

	info, err := a.viewerService(c).Info(models.CompositeKey(sess.SpreadsheetID, rowIndex, docIndex))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// DocumentPage extracts the text of one page. Pages render one at a
// time; the client advances with prev/next.
func (a *App) DocumentPage(c *gin.Context) {
	sess, rowIndex, docIndex, ok := a.viewerTarget(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid page number", err)
		return
	}

	view, err := a.viewerService(c).Page(models.CompositeKey(sess.SpreadsheetID, rowIndex, docIndex), page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DocumentFile streams the decoded PDF for download or external viewing.
func (a *App) DocumentFile(c *gin.Context) {
	sess, rowIndex, docIndex, ok := a.viewerTarget(c)
	if !ok {
		return
	}

	key := models.CompositeKey(sess.SpreadsheetID, rowIndex, docIndex)
	raw, err := a.viewerService(c).Bytes(key)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+key+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", raw)
}

func (a *App) viewerTarget(c *gin.Context) (models.Session, int, int, bool) {
	sess, ok := a.resolveSession(c)
	if !ok {
		return models.Session{}, 0, 0, false
	}
	rowIndex, docIndex, ok := docCoordinates(c)
	if !ok {
		return models.Session{}, 0, 0, false
	}
	return sess, rowIndex, docIndex, true
}
