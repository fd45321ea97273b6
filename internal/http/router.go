package api

import (
	"log"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	intconfig "github.com/thaistayandfly/travel-itinerary/internal/config"
	h "github.com/thaistayandfly/travel-itinerary/internal/http/handlers"
	"github.com/thaistayandfly/travel-itinerary/internal/http/middleware"
)

func NewRouter(env intconfig.Env, app *h.App) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(),
		middleware.CORS(), middleware.DocAccessToken())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	// Pages
	r.GET("/", app.ItineraryPage)
	r.GET("/print", app.ItineraryPDF)
	r.GET("/shell/asset", app.ShellAsset)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		api.GET("/itinerary", app.ItineraryJSON)
		api.GET("/itinerary/pdf", app.ItineraryPDF)

		docs := api.Group("/documents")
		docs.GET("", app.ListDocuments)
		docs.POST("/:row/:doc/open", app.OpenDocument)
		docs.GET("/:row/:doc/info", app.DocumentInfo)
		docs.GET("/:row/:doc/pages/:page", app.DocumentPage)
		docs.GET("/:row/:doc/file", app.DocumentFile)
		docs.POST("/download-all", app.DownloadAll)
		docs.GET("/download-all/status", app.BulkStatus)

		api.GET("/install-prompt", app.InstallPromptState)
		api.POST("/install-prompt/dismiss", app.DismissInstallPrompt)

		api.DELETE("/cache", app.ClearCache)
	}

	return r
}
