package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"github.com/thaistayandfly/travel-itinerary/internal/render"
	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

// PrintoutService renders the grouped itinerary as a printable PDF, the
// server-side counterpart of the original print button.
type PrintoutService struct {
	RequestID string
}

// Build produces the summary PDF and a download filename.
func (s PrintoutService) Build(view render.ViewData) ([]byte, string, error) {
	utils.LogEvent(s.RequestID, "printout", "build",
		fmt.Sprintf("client=%s groups=%d", view.Session.ClientCode, len(view.Groups)))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Travel Itinerary", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRAVEL ITINERARY")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Trip for : "+view.Session.ClientCode)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Generated: "+utils.FormatDateTime(utils.NowUTC()))
	if days, ok := tripLength(view); ok {
		pdf.Ln(7)
		pdf.Cell(0, 7, fmt.Sprintf("Duration : %d days", days))
	}
	pdf.Ln(12)

	for _, group := range view.Groups {
		pdf.SetFont("Helvetica", "B", 13)
		header := group.Title
		if group.Location != "" {
			header = fmt.Sprintf("%s - %s", group.Title, group.Location)
		}
		pdf.MultiCell(0, 7, header, "", "", false)

		pdf.SetFont("Helvetica", "", 11)
		for _, item := range group.Items {
			for _, line := range itemLines(item) {
				pdf.MultiCell(0, 6, "  "+line, "", "", false)
			}
		}
		pdf.Ln(4)
	}

	if len(view.CostSummary) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Cost Summary")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, total := range view.CostSummary {
			pdf.Cell(0, 6, fmt.Sprintf("%s %s", total.Currency, utils.FormatMoney(total.Total)))
			pdf.Ln(6)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ITINERARY_%s.pdf", safeFilenamePart(view.Session.ClientCode))
	return buf.Bytes(), filename, nil
}

func itemLines(item render.Item) []string {
	row := item.Row
	switch item.Kind {
	case render.ItemHotel:
		return []string{fmt.Sprintf("Hotel: %s (%s), check-in %s, check-out %s",
			orDash(row.HotelAirline), orDash(item.From),
			orDash(strings.TrimSpace(row.StartDate+" "+row.CheckIn)),
			orDash(strings.TrimSpace(row.FinishDate+" "+row.CheckOut)))}
	case render.ItemFlight:
		if item.Flight == nil {
			break
		}
		var lines []string
		for i, seg := range item.Flight.Segments {
			label := "Flight"
			if item.Flight.Connecting {
				label = fmt.Sprintf("Flight leg %d", i+1)
			}
			lines = append(lines, fmt.Sprintf("%s: %s -> %s, dep %s, arr %s",
				label, orDash(seg.From), orDash(seg.To), orDash(seg.Departure), orDash(seg.Arrival)))
			if i == 0 && item.Flight.Connecting {
				lines = append(lines, fmt.Sprintf("Layover at %s (%s)",
					item.Flight.LayoverAirport, item.Flight.LayoverLabel))
			}
		}
		return lines
	}
	return []string{fmt.Sprintf("%s: %s -> %s",
		capitalize(item.Kind), orDash(item.From), orDash(item.To))}
}

func tripLength(view render.ViewData) (int, bool) {
	if len(view.Groups) == 0 || len(view.Groups[0].Items) == 0 {
		return 0, false
	}
	first := view.Groups[0].Items[0].Row
	lastGroup := view.Groups[len(view.Groups)-1]
	last := lastGroup.Items[len(lastGroup.Items)-1].Row

	start, err := utils.ParseDate(first.StartDate)
	if err != nil {
		return 0, false
	}
	finish, err := utils.ParseDate(last.FinishDate)
	if err != nil {
		return 0, false
	}
	days := int(finish.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 0, false
	}
	return days, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "TRIP"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, s)
}
