package services

import (
	"fmt"
	"net/url"

	"github.com/thaistayandfly/travel-itinerary/internal/domain"
	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
	"github.com/thaistayandfly/travel-itinerary/internal/i18n"
	"github.com/thaistayandfly/travel-itinerary/internal/store"
	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

// restoredMarker tags a redirect that already embedded recovered
// parameters, so resolution never loops.
const restoredMarker = "restored"

// SessionService resolves the session identity from the request URL or,
// failing that, from the persisted parameter backends.
type SessionService struct {
	Params    store.Params
	RequestID string
}

// Resolution is the outcome of one resolve attempt. A non-empty
// RedirectURL asks the handler to rewrite the address once and retry.
type Resolution struct {
	Session     models.Session
	RedirectURL string
	Recovered   bool
	Source      string
}

// Resolve reads client/shid/lang from the query (the original app's URL
// fragment collapses into the query server-side), then falls back to the
// backends in precedence order. standalone marks an installed-app request,
// which adopts recovered values without the address rewrite.
func (s SessionService) Resolve(path string, query url.Values, standalone bool) (Resolution, error) {
	sess := models.Session{
		ClientCode:    utils.TrimOrEmpty(query.Get("client")),
		SpreadsheetID: utils.TrimOrEmpty(query.Get("shid")),
		Language:      utils.TrimOrEmpty(query.Get("lang")),
	}

	if !sess.Complete() {
		if pasted, ok := parsePastedLink(query.Get("paste")); ok {
			sess = pasted
		}
	}

	if sess.Complete() {
		sess.Language, sess.IsRTL = i18n.Resolve(sess.Language)
		s.Params.FanOut(s.RequestID, sess)
		return Resolution{Session: sess, Source: "url"}, nil
	}

	recovered, source, ok := s.Params.Recover()
	if !ok {
		return Resolution{}, domain.ValidationError{
			Field: "client/shid",
			Msg:   "missing required parameters",
		}
	}

	recovered.Language, recovered.IsRTL = i18n.Resolve(recovered.Language)
	utils.LogEvent(s.RequestID, "session", "recover", "restored from "+source)

	if standalone {
		s.Params.FanOut(s.RequestID, recovered)
		return Resolution{Session: recovered, Recovered: true, Source: source}, nil
	}

	if query.Get(restoredMarker) != "" {
		// already redirected once and the parameters still did not stick
		return Resolution{}, domain.ValidationError{
			Field: "client/shid",
			Msg:   "missing required parameters",
		}
	}

	redirect := buildRedirectQuery(recovered)

	return Resolution{
		Session:     recovered,
		Recovered:   true,
		Source:      source,
		RedirectURL: fmt.Sprintf("%s?%s", path, redirect.Encode()),
	}, nil
}

// parsePastedLink extracts session parameters from a full itinerary URL
// the user pasted into the setup form. The fragment is checked first
// because shared links historically carried parameters there.
func parsePastedLink(raw string) (models.Session, bool) {
	raw = utils.TrimOrEmpty(raw)
	if raw == "" {
		return models.Session{}, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return models.Session{}, false
	}

	sources := []url.Values{}
	if u.Fragment != "" {
		if fv, ferr := url.ParseQuery(u.Fragment); ferr == nil {
			sources = append(sources, fv)
		}
	}
	sources = append(sources, u.Query())

	var sess models.Session
	for _, v := range sources {
		if sess.ClientCode == "" {
			sess.ClientCode = utils.TrimOrEmpty(v.Get("client"))
		}
		if sess.SpreadsheetID == "" {
			sess.SpreadsheetID = utils.TrimOrEmpty(v.Get("shid"))
		}
		if sess.Language == "" {
			sess.Language = utils.TrimOrEmpty(v.Get("lang"))
		}
	}
	return sess, sess.Complete()
}

func buildRedirectQuery(recovered models.Session) url.Values {
	redirect := url.Values{}
	redirect.Set("client", recovered.ClientCode)
	redirect.Set("shid", recovered.SpreadsheetID)
	redirect.Set("lang", recovered.Language)
	redirect.Set(restoredMarker, "1")
	return redirect
}
