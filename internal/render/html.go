package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

// HTMLRenderer builds the itinerary page markup from a prepared view.
type HTMLRenderer struct {
	view ViewData
}

func NewHTMLRenderer(view ViewData) *HTMLRenderer {
	return &HTMLRenderer{view: view}
}

func (r *HTMLRenderer) t(key, fallback string) string {
	if v, ok := r.view.Translations[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// RenderPage produces the full page body: header, grouped sections and the
// cost summary. The surrounding shell document is served from the shell
// cache, not built here.
func (r *HTMLRenderer) RenderPage() string {
	var b strings.Builder

	dir := "ltr"
	if r.view.Session.IsRTL {
		dir = "rtl"
	}
	fmt.Fprintf(&b, `<main id="mainContainer" dir=%q lang=%q>`, dir, r.view.Session.Language)

	if r.view.Offline {
		fmt.Fprintf(&b, `<div id="offlineBadge" class="offline-badge show">%s</div>`,
			html.EscapeString(r.t("offlineMode", "Offline Mode")))
	}

	b.WriteString(`<header class="itinerary-header mb-4"><div class="header-center">`)
	fmt.Fprintf(&b, `<div class="header-eyebrow">%s</div>`, html.EscapeString(r.t("clientLabel", "Trip for")))
	fmt.Fprintf(&b, `<h1 class="header-client">%s</h1>`, html.EscapeString(r.view.Session.ClientCode))
	fmt.Fprintf(&b, `<p class="header-sub">%s</p>`, html.EscapeString(r.t("pageTitle", "Travel Itinerary")))
	b.WriteString(`</div></header>`)

	for i, g := range r.view.Groups {
		r.renderGroup(&b, i, g)
	}

	r.renderCostSummary(&b)

	b.WriteString(`</main>`)
	return b.String()
}

func (r *HTMLRenderer) renderGroup(b *strings.Builder, idx int, g Group) {
	fmt.Fprintf(b, `<div id="section%d" class="card mb-4 shadow-sm timeline"><div class="card-body">`, idx)

	if g.Location != "" {
		kindLabel := r.t("staying", "Staying")
		if g.Kind == KindTravel {
			kindLabel = r.t("travelDay", "Travel Day")
		}
		fmt.Fprintf(b, `<div class="country-chip">%s<span class="chip-divider">•</span>%s</div>`,
			html.EscapeString(g.Location), html.EscapeString(kindLabel))
	}

	fmt.Fprintf(b, `<h5 class="card-title fw-bold text-primary border-bottom pb-2 mb-3">%s</h5>`,
		html.EscapeString(g.Title))

	for i, item := range g.Items {
		b.WriteString(`<div class="mb-3">`)
		r.renderItem(b, item)
		r.renderDocumentButtons(b, item)
		b.WriteString(`</div>`)
		if i < len(g.Items)-1 {
			b.WriteString(`<hr>`)
		}
	}

	b.WriteString(`</div></div>`)
}

func (r *HTMLRenderer) renderItem(b *strings.Builder, item Item) {
	switch item.Kind {
	case ItemHotel:
		r.renderHotel(b, item)
	case ItemFlight:
		r.renderFlight(b, item)
	case ItemFerry:
		r.renderGeneric(b, item, r.t("ferry", "Ferry"))
	case ItemTaxi:
		r.renderGeneric(b, item, r.t("taxi", "Taxi"))
	default:
		r.renderGeneric(b, item, r.t("trip", "Trip"))
	}
}

func (r *HTMLRenderer) renderHotel(b *strings.Builder, item Item) {
	row := item.Row
	b.WriteString(`<div class="info-block hotel-block"><div class="info-header">`)
	fmt.Fprintf(b, `<div class="info-title">%s</div></div><div class="info-grid">`, safe(row.HotelAirline))
	r.infoItem(b, r.t("location", "Location"), item.From)
	r.infoItem(b, r.t("checkIn", "Check-in"), joinDateTime(row.StartDate, row.CheckIn))
	r.infoItem(b, r.t("checkOut", "Check-out"), joinDateTime(row.FinishDate, row.CheckOut))
	b.WriteString(`</div>`)
	r.renderNotes(b, row.Notes)
	b.WriteString(`</div>`)
}

func (r *HTMLRenderer) renderFlight(b *strings.Builder, item Item) {
	row := item.Row
	fv := item.Flight
	if fv == nil {
		r.renderGeneric(b, item, r.t("flight", "Flight"))
		return
	}

	badge := r.t("directFlight", "Flight")
	if fv.Connecting {
		badge = r.t("connectingFlight", "Connecting Flight")
	}

	b.WriteString(`<div class="info-block flight-block"><div class="info-header">`)
	fmt.Fprintf(b, `<div class="info-title">%s<span class="connection-badge">%s</span></div></div>`,
		safe(row.HotelAirline), html.EscapeString(badge))

	for i, seg := range fv.Segments {
		if i > 0 {
			fmt.Fprintf(b, `<div class="layover-panel">%s %s · %s</div>`,
				html.EscapeString(r.t("layover", "Layover")),
				html.EscapeString(fv.LayoverAirport),
				html.EscapeString(fv.LayoverLabel))
		}
		b.WriteString(`<div class="info-grid">`)
		r.infoItem(b, r.t("from", "From"), seg.From)
		r.infoItem(b, r.t("to", "To"), seg.To)
		r.infoItem(b, r.t("departure", "Departure"), seg.Departure)
		r.infoItem(b, r.t("arrival", "Arrival"), seg.Arrival)
		b.WriteString(`</div>`)
	}

	r.renderNotes(b, row.Notes)
	b.WriteString(`</div>`)
}

func (r *HTMLRenderer) renderGeneric(b *strings.Builder, item Item, title string) {
	b.WriteString(`<div class="info-block"><div class="info-header">`)
	fmt.Fprintf(b, `<div class="info-title">%s</div></div><div class="info-grid">`, html.EscapeString(title))
	r.infoItem(b, r.t("from", "From"), item.From)
	r.infoItem(b, r.t("to", "To"), item.To)
	b.WriteString(`</div>`)
	r.renderNotes(b, item.Row.Notes)
	b.WriteString(`</div>`)
}

func (r *HTMLRenderer) renderDocumentButtons(b *strings.Builder, item Item) {
	if len(item.Documents) == 0 {
		return
	}
	b.WriteString(`<div class="d-flex justify-content-end gap-2 mt-3">`)
	for _, doc := range item.Documents {
		cls := "btn btn-sm btn-outline-primary doc-button"
		badge := ""
		if doc.Cached {
			cls += " doc-cached"
			badge = `<span class="doc-badge">✓</span>`
		}
		fmt.Fprintf(b, `<button class=%q data-row="%d" data-doc="%d">%s%s</button>`,
			cls, doc.RowIndex, doc.DocIndex, safe(doc.Label), badge)
	}
	b.WriteString(`</div>`)
}

func (r *HTMLRenderer) renderCostSummary(b *strings.Builder) {
	if len(r.view.CostSummary) == 0 {
		return
	}
	b.WriteString(`<div class="summary-hero-wrap"><div class="card"><div class="card-body">`)
	fmt.Fprintf(b, `<h5>%s</h5>`, html.EscapeString(r.t("costSummary", "Cost Summary")))
	for _, total := range r.view.CostSummary {
		fmt.Fprintf(b, `<strong>%s %s</strong>`,
			html.EscapeString(total.Currency), utils.FormatMoney(total.Total))
	}
	b.WriteString(`</div></div></div>`)
}

func (r *HTMLRenderer) renderNotes(b *strings.Builder, notes string) {
	if strings.TrimSpace(notes) == "" {
		return
	}
	fmt.Fprintf(b, `<div class="info-notes">%s</div>`, safe(notes))
}

func (r *HTMLRenderer) infoItem(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, `<div class="info-item"><span>%s</span>%s</div>`,
		html.EscapeString(label), safe(value))
}

// safe escapes a cell value, substituting "-" for empty ones.
func safe(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return html.EscapeString(v)
}
