package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	intconfig "github.com/thaistayandfly/travel-itinerary/internal/config"
	"github.com/thaistayandfly/travel-itinerary/internal/store"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "itinerary gateway running"})
}

// DBCheck verifies the structured document store is reachable.
func DBCheck(c *gin.Context) {
	if err := intconfig.EnsureDB(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document store unreachable: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "document store OK"})
}

// InstallPromptState reports whether the install hint was dismissed.
func (a *App) InstallPromptState(c *gin.Context) {
	var dismissed bool
	a.KV.Get(store.KeyInstallDismissed, &dismissed)
	c.JSON(http.StatusOK, gin.H{"dismissed": dismissed})
}

// DismissInstallPrompt persists the dismissal so the hint stays hidden.
func (a *App) DismissInstallPrompt(c *gin.Context) {
	if err := a.KV.Put(store.KeyInstallDismissed, true); err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to persist dismissal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "dismissed"})
}
