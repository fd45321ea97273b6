package handlers

import (
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thaistayandfly/travel-itinerary/internal/domain"
	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
)

// pageShell wraps the rendered itinerary body in the minimal document the
// shell cache also serves offline.
func pageShell(body string, sess models.Session) string {
	dir := "ltr"
	if sess.IsRTL {
		dir = "rtl"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang=%q dir=%q>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Travel Itinerary</title>
<link rel="stylesheet" href="/shell/asset?u=https%%3A%%2F%%2Fcdn.jsdelivr.net%%2Fnpm%%2Fbootstrap%%405.3.0%%2Fdist%%2Fcss%%2Fbootstrap.min.css">
</head>
<body>%s</body>
</html>`, sess.Language, dir, body)
}

// renderSetupPage is the terminal missing-parameters view: the only way
// out is pasting a full itinerary link.
func renderSetupPage(c *gin.Context) {
	c.Data(http.StatusUnprocessableEntity, "text/html; charset=utf-8", []byte(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Travel Itinerary Setup</title></head>
<body>
<div id="errorScreen" class="error-screen">
<h1>Missing trip parameters</h1>
<p>This page needs a link containing your client code and itinerary id.</p>
<form method="get" action="/">
<label>Paste your full itinerary link:</label>
<input type="url" name="paste" placeholder="https://.../?client=...&amp;shid=...">
<button type="submit">Open</button>
</form>
</div>
</body>
</html>`))
}

// renderErrorPage is the full-screen terminal error view.
func renderErrorPage(c *gin.Context, err error) {
	message := "Something went wrong. Please try again."
	if domain.IsUnavailable(err) {
		message = err.Error()
	}
	c.Data(http.StatusServiceUnavailable, "text/html; charset=utf-8", []byte(fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Travel Itinerary</title></head>
<body>
<div id="errorScreen" class="error-screen">
<h1>Unable to load your itinerary</h1>
<p id="errorMessage">%s</p>
</div>
</body>
</html>`, html.EscapeString(message))))
}
