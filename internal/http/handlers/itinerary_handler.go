package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
	"github.com/thaistayandfly/travel-itinerary/internal/http/middleware"
	"github.com/thaistayandfly/travel-itinerary/internal/render"
	"github.com/thaistayandfly/travel-itinerary/internal/services"
)

// ItineraryPage is the start page: resolve the session, load data with
// offline fallback and render the grouped itinerary.
func (a *App) ItineraryPage(c *gin.Context) {
	sess, ok := a.resolveSession(c)
	if !ok {
		return
	}

	view, err := a.loadView(c, sess)
	if err != nil {
		renderErrorPage(c, err)
		return
	}

	body := render.NewHTMLRenderer(view).RenderPage()
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(pageShell(body, sess)))
}

// ItineraryJSON returns the grouped view model for API consumers.
func (a *App) ItineraryJSON(c *gin.Context) {
	sess, ok := a.resolveSession(c)
	if !ok {
		return
	}

	view, err := a.loadView(c, sess)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ItineraryPDF streams the printable summary.
func (a *App) ItineraryPDF(c *gin.Context) {
	sess, ok := a.resolveSession(c)
	if !ok {
		return
	}

	view, err := a.loadView(c, sess)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	printout := services.PrintoutService{RequestID: middleware.GetRequestID(c)}
	blob, filename, err := printout.Build(view)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to build itinerary pdf", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", blob)
}

func (a *App) loadView(c *gin.Context, sess models.Session) (render.ViewData, error) {
	result, err := a.fetchService(c).Load(sess, declaredOffline(c))
	if err != nil {
		return render.ViewData{}, err
	}
	return render.BuildView(sess, result.Rows, result.Translations, result.CityMap,
		a.Index.Snapshot(), result.Offline), nil
}
