package source

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ResultsSelector locates the status table on the timetable page.
const ResultsSelector = "table#results"

var (
	stationCodeRe = regexp.MustCompile(`\(([A-Z]{3})\)\s*$`)
	scheduledRe   = regexp.MustCompile(`\b(Dp|Ar)\b[.:]?\s*(\d{1,2}:\d{2}(?:\s*[APap][Mm]?)?)?`)
)

// TimetableParser reads the HTML train status page. Rows are listed in
// route order, one station per row after the header.
type TimetableParser struct {
	// Selector overrides ResultsSelector.
	Selector string
}

func (p TimetableParser) Parse(payload []byte, trainID string) ([]Record, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, noData("empty timetable page for train %s", trainID)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, noData("timetable page for train %s: %v", trainID, err)
	}

	sel := p.Selector
	if sel == "" {
		sel = ResultsSelector
	}
	container := doc.Find(sel).First()
	if container.Length() == 0 {
		return nil, noData("results container %q missing for train %s", sel, trainID)
	}

	var records []Record
	container.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 || row.Find("th").Length() > 0 {
			return // header
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		rec := parseStationCell(cells.Eq(0).Text())
		if rec.Name == "" && rec.Code == "" {
			return
		}
		rec.Marker, rec.Scheduled = parseScheduledCell(cells.Eq(1).Text())
		if cells.Length() > 2 {
			rec.Actual = collapseSpace(cells.Eq(2).Text())
		}
		if run, ok := row.Attr("data-run"); ok {
			rec.RunID = strings.TrimSpace(run)
		}
		records = append(records, rec)
	})
	if len(records) == 0 {
		return nil, noData("no station rows for train %s", trainID)
	}
	return records, nil
}

// parseStationCell splits "Gallup, NM (GLP)" into name and code.
func parseStationCell(text string) Record {
	text = collapseSpace(text)
	var rec Record
	if m := stationCodeRe.FindStringSubmatchIndex(text); m != nil {
		rec.Code = text[m[2]:m[3]]
		text = strings.TrimSpace(text[:m[0]])
	}
	rec.Name = text
	return rec
}

// parseScheduledCell extracts the time that follows a "Dp" or "Ar" marker.
func parseScheduledCell(text string) (marker, scheduled string) {
	text = collapseSpace(text)
	m := scheduledRe.FindStringSubmatch(text)
	if m == nil {
		return "", ""
	}
	return m[1], strings.TrimSpace(m[2])
}
