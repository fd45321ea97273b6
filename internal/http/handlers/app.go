package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	intconfig "github.com/thaistayandfly/travel-itinerary/internal/config"
	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
	"github.com/thaistayandfly/travel-itinerary/internal/gateway"
	"github.com/thaistayandfly/travel-itinerary/internal/http/middleware"
	"github.com/thaistayandfly/travel-itinerary/internal/repositories"
	"github.com/thaistayandfly/travel-itinerary/internal/services"
	"github.com/thaistayandfly/travel-itinerary/internal/store"
)

// App wires the storage tiers and the gateway transport into the request
// handlers. One instance lives for the process.
type App struct {
	Env       intconfig.Env
	KV        *store.KV
	RespCache *store.ResponseCache
	Docs      *repositories.DocumentRepository
	Index     *services.DocIndex
	Transport *gateway.Transport
	Client    *http.Client
	Params    store.Params
	Bulk      *services.BulkProgress
}

// NewApp builds the shared application state. The document index starts
// from whatever the structured store already holds.
func NewApp(env intconfig.Env, kv *store.KV, rc *store.ResponseCache, docs *repositories.DocumentRepository, transport *gateway.Transport) *App {
	index := services.NewDocIndex()
	if ids, err := docs.ListIDs(); err == nil {
		index.Replace(ids)
	}

	return &App{
		Env:       env,
		KV:        kv,
		RespCache: rc,
		Docs:      docs,
		Index:     index,
		Transport: transport,
		Client:    &http.Client{Transport: transport},
		Params: store.Params{Backends: []store.ParamBackend{
			store.RespCacheParams(rc),
			docs,
			store.KVParams(kv),
			store.MemoryParams(),
		}},
		Bulk: &services.BulkProgress{},
	}
}

func (a *App) sessionService(c *gin.Context) services.SessionService {
	return services.SessionService{
		Params:    a.Params,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *App) fetchService(c *gin.Context) services.FetchService {
	return services.FetchService{
		APIURL:    a.Env.APIURL,
		Client:    a.Client,
		KV:        a.KV,
		Docs:      a.Docs,
		Index:     a.Index,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *App) docsService(c *gin.Context) services.DocsService {
	return services.DocsService{
		APIURL:    a.Env.APIURL,
		Client:    a.Client,
		Docs:      a.Docs,
		KV:        a.KV,
		Index:     a.Index,
		JWTSecret: []byte(a.Env.JWTSecret),
		BulkDelay: a.Env.BulkDelay,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *App) viewerService(c *gin.Context) services.ViewerService {
	return services.ViewerService{
		Docs:      a.Docs,
		RequestID: middleware.GetRequestID(c),
	}
}

// resolveSession produces the session for a request or writes the
// redirect / terminal response itself. The second return value reports
// whether handling should continue.
func (a *App) resolveSession(c *gin.Context) (models.Session, bool) {
	standalone := c.Query("standalone") == "1" || c.GetHeader("X-Display-Mode") == "standalone"

	resolution, err := a.sessionService(c).Resolve(c.Request.URL.Path, c.Request.URL.Query(), standalone)
	if err != nil {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			RespondError(c, http.StatusUnprocessableEntity, "missing trip parameters", err)
		} else {
			renderSetupPage(c)
		}
		return models.Session{}, false
	}
	if resolution.RedirectURL != "" {
		c.Redirect(http.StatusFound, resolution.RedirectURL)
		return models.Session{}, false
	}
	return resolution.Session, true
}

func declaredOffline(c *gin.Context) bool {
	return c.Query("offline") == "1"
}
