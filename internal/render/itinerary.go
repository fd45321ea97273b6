// Package render turns the flat itinerary row set into the grouped view
// structure. Everything here is pure: no network, no storage.
package render

import (
	"sort"
	"strings"

	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

// Group kinds.
const (
	KindTravel = "travel"
	KindStay   = "stay"
)

// Item kinds, in dispatch priority order.
const (
	ItemHotel   = "hotel"
	ItemFlight  = "flight"
	ItemFerry   = "ferry"
	ItemTaxi    = "taxi"
	ItemGeneric = "generic"
)

// ViewData is the renderable structure handed to templates and the JSON
// view endpoint.
type ViewData struct {
	Session      models.Session    `json:"session"`
	Groups       []Group           `json:"groups"`
	CostSummary  []CurrencyTotal   `json:"costSummary,omitempty"`
	Offline      bool              `json:"offline"`
	Translations map[string]string `json:"-"`
}

// Group is a contiguous run of rows sharing one (start, finish) date pair.
type Group struct {
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Location string `json:"location,omitempty"`
	Items    []Item `json:"items"`
}

// Item is one row prepared for display.
type Item struct {
	Kind      string        `json:"kind"`
	Row       models.Row    `json:"row"`
	From      string        `json:"from,omitempty"`
	To        string        `json:"to,omitempty"`
	Flight    *FlightView   `json:"flight,omitempty"`
	Documents []DocumentRef `json:"documents,omitempty"`
}

// DocumentRef is a row document reference annotated with its cache state.
type DocumentRef struct {
	models.DocumentRef
	Key    string `json:"key"`
	Cached bool   `json:"cached"`
}

// FlightView carries the one- or two-segment flight rendering.
type FlightView struct {
	Connecting     bool            `json:"connecting"`
	Segments       []FlightSegment `json:"segments"`
	LayoverAirport string          `json:"layoverAirport,omitempty"`
	LayoverLabel   string          `json:"layoverLabel,omitempty"`
}

type FlightSegment struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
}

type CurrencyTotal struct {
	Currency string  `json:"currency"`
	Total    float64 `json:"total"`
}

// BuildView assembles the full view structure. cached holds the composite
// keys currently present in the document store.
func BuildView(s models.Session, rows []models.Row, translations map[string]string, cityMap map[string]map[string]string, cached map[string]bool, offline bool) ViewData {
	view := ViewData{
		Session:      s,
		Offline:      offline,
		Translations: translations,
	}

	for _, group := range GroupRows(rows) {
		g := Group{
			Title: sectionTitle(group),
			Kind:  GroupKind(group),
		}
		if loc := strings.TrimSpace(group[0].CurrentLocation); loc != "" {
			g.Location = TranslateCity(cityMap, s.Language, loc)
		}
		for _, row := range group {
			g.Items = append(g.Items, buildItem(s, row, cityMap, cached))
		}
		view.Groups = append(view.Groups, g)
	}

	view.CostSummary = CostSummary(rows)
	return view
}

// GroupRows partitions rows left to right on the (start, finish) date
// pair. Input order is load-bearing: an identical pair appearing later in
// the sheet starts a fresh group.
func GroupRows(rows []models.Row) [][]models.Row {
	var groups [][]models.Row
	lastKey := ""
	for _, row := range rows {
		key := row.StartDate + "\x00" + row.FinishDate
		if len(groups) == 0 || key != lastKey {
			groups = append(groups, nil)
			lastKey = key
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], row)
	}
	return groups
}

// GroupKind reports "travel" when any member row moves the traveler.
func GroupKind(group []models.Row) string {
	for _, row := range group {
		t := strings.ToLower(row.Type)
		if strings.Contains(t, "flight") || strings.Contains(t, "ferry") || strings.Contains(t, "taxi") {
			return KindTravel
		}
	}
	return KindStay
}

// ItemKind dispatches a row by type substring in fixed priority order.
// Unmatched types render generically rather than failing.
func ItemKind(row models.Row) string {
	t := strings.ToLower(row.Type)
	switch {
	case strings.Contains(t, "hotel"):
		return ItemHotel
	case strings.Contains(t, "flight"):
		return ItemFlight
	case strings.Contains(t, "ferry"):
		return ItemFerry
	case strings.Contains(t, "taxi"):
		return ItemTaxi
	default:
		return ItemGeneric
	}
}

// TranslateCity resolves a raw city string through the city map, falling
// back active language -> English -> raw original.
func TranslateCity(cityMap map[string]map[string]string, lang, city string) string {
	key := strings.TrimSpace(city)
	if key == "" || cityMap == nil {
		return key
	}
	entry, ok := cityMap[key]
	if !ok {
		return key
	}
	if name := strings.TrimSpace(entry[lang]); name != "" {
		return name
	}
	if name := strings.TrimSpace(entry["en"]); name != "" {
		return name
	}
	return key
}

// CostSummary sums parseable prices per currency. Rows missing either a
// valid price or a currency are skipped; an empty result omits the summary.
func CostSummary(rows []models.Row) []CurrencyTotal {
	totals := map[string]float64{}
	for _, row := range rows {
		currency := strings.TrimSpace(row.Currency)
		price, ok := utils.ParsePrice(row.Price)
		if !ok || currency == "" {
			continue
		}
		totals[currency] += price
	}
	if len(totals) == 0 {
		return nil
	}

	out := make([]CurrencyTotal, 0, len(totals))
	for c, v := range totals {
		out = append(out, CurrencyTotal{Currency: c, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// DocumentRefs enumerates a row's document list entries. The in-row index
// counts non-empty trimmed entries and is part of the composite key.
func DocumentRefs(row models.Row) []models.DocumentRef {
	entries := utils.SplitDocumentList(row.Documents)
	refs := make([]models.DocumentRef, 0, len(entries))
	for i, label := range entries {
		refs = append(refs, models.DocumentRef{RowIndex: row.Index, DocIndex: i, Label: label})
	}
	return refs
}

// AllDocumentRefs enumerates document references across the whole row set.
func AllDocumentRefs(rows []models.Row) []models.DocumentRef {
	var refs []models.DocumentRef
	for _, row := range rows {
		refs = append(refs, DocumentRefs(row)...)
	}
	return refs
}

func buildItem(s models.Session, row models.Row, cityMap map[string]map[string]string, cached map[string]bool) Item {
	item := Item{
		Kind: ItemKind(row),
		Row:  row,
		From: TranslateCity(cityMap, s.Language, row.CurrentLocation),
		To:   TranslateCity(cityMap, s.Language, row.Destination),
	}

	if item.Kind == ItemFlight {
		item.Flight = buildFlight(s, row, cityMap)
	}

	for _, ref := range DocumentRefs(row) {
		key := ref.CompositeKey(s.SpreadsheetID)
		item.Documents = append(item.Documents, DocumentRef{
			DocumentRef: ref,
			Key:         key,
			Cached:      cached[key],
		})
	}
	return item
}

// buildFlight renders one or two segments. A non-empty layover airport
// splits the flight; the second departure is the first arrival plus the
// layover duration on a 24-hour clock.
func buildFlight(s models.Session, row models.Row, cityMap map[string]map[string]string) *FlightView {
	from := TranslateCity(cityMap, s.Language, row.CurrentLocation)
	to := TranslateCity(cityMap, s.Language, row.Destination)
	layover := strings.TrimSpace(row.LayoverAirport)

	if layover == "" {
		return &FlightView{
			Segments: []FlightSegment{{
				From:      from,
				To:        to,
				Departure: joinDateTime(row.StartDate, row.CheckIn),
				Arrival:   joinDateTime(row.FinishDate, row.CheckOut),
			}},
		}
	}

	via := TranslateCity(cityMap, s.Language, layover)
	secondDeparture := utils.AddClockDuration(row.CheckOut, row.LayoverDuration)
	return &FlightView{
		Connecting:     true,
		LayoverAirport: via,
		LayoverLabel:   utils.FormatClockDuration(row.LayoverDuration, s.Language),
		Segments: []FlightSegment{
			{
				From:      from,
				To:        via,
				Departure: joinDateTime(row.StartDate, row.CheckIn),
				Arrival:   joinDateTime(row.FinishDate, row.CheckOut),
			},
			{
				From:      via,
				To:        to,
				Departure: joinDateTime(row.FinishDate, secondDeparture),
				Arrival:   "",
			},
		},
	}
}

func sectionTitle(group []models.Row) string {
	if len(group) == 0 {
		return ""
	}
	return strings.TrimSpace(group[0].StartDate) + " – " + strings.TrimSpace(group[0].FinishDate)
}

func joinDateTime(date, clock string) string {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		date = "-"
	}
	return strings.TrimSpace(date + " " + clock)
}
