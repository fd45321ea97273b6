package models

import (
	"fmt"
	"time"
)

// Row is one itinerary line as delivered by the spreadsheet API. Field
// names mirror the sheet headers, so JSON tags carry the spaces verbatim.
type Row struct {
	Index           int    `json:"rowIndex"`
	Type            string `json:"Type"`
	CurrentLocation string `json:"Current Location"`
	Destination     string `json:"Destination"`
	StartDate       string `json:"Start Date"`
	FinishDate      string `json:"Finish Date"`
	CheckIn         string `json:"Check-in / Departure"`
	CheckOut        string `json:"Check-out / Arrival"`
	HotelAirline    string `json:"Hotel / Airline"`
	LayoverAirport  string `json:"Layover Airport"`
	LayoverDuration string `json:"Layover Duration"`
	Price           string `json:"Price"`
	Currency        string `json:"Currency"`
	Location        string `json:"Location"`
	Documents       string `json:"Documents"`
	Notes           string `json:"Notes"`
}

// ItineraryPayload is the upstream response body. Either Data is populated
// or Error carries an application-level failure.
type ItineraryPayload struct {
	Data         []Row                        `json:"data"`
	Translations map[string]string            `json:"translations"`
	CityMap      map[string]map[string]string `json:"cityMap"`
	Error        string                       `json:"error,omitempty"`
}

// Snapshot is the single offline copy of an itinerary. It is written and
// replaced as one serialized record, never patched.
type Snapshot struct {
	Timestamp    time.Time                    `json:"timestamp"`
	Rows         []Row                        `json:"data"`
	Translations map[string]string            `json:"translations"`
	CityMap      map[string]map[string]string `json:"cityMap"`
	Version      string                       `json:"version"`
}

// DocumentRef points at one entry of a row's document list. The in-row
// index is positional and assumed stable across fetches.
type DocumentRef struct {
	RowIndex int    `json:"rowIndex"`
	DocIndex int    `json:"docIndex"`
	Label    string `json:"label"`
}

// CompositeKey identifies one cached document across storage tiers.
func (r DocumentRef) CompositeKey(spreadsheetID string) string {
	return CompositeKey(spreadsheetID, r.RowIndex, r.DocIndex)
}

// CompositeKey builds the cache key for a document payload.
func CompositeKey(spreadsheetID string, rowIndex, docIndex int) string {
	return fmt.Sprintf("%s_%d_%d", spreadsheetID, rowIndex, docIndex)
}

// SecureDocResult is the upstream verification endpoint response.
type SecureDocResult struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
