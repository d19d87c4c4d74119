package match

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseableDate marks an addedAt value in none of the accepted formats.
// The matcher excludes such documents instead of defaulting them to recent.
var ErrUnparseableDate = fmt.Errorf("unparseable addedAt value")

// isoLayouts are tried in order for string timestamps. Zoneless layouts are
// interpreted as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02", // date only, midnight UTC
}

// longFormPattern matches the localized export format, e.g.
// "1 de agosto de 2025, 1:15:37 p.m. UTC-5".
var longFormPattern = regexp.MustCompile(
	`(?i)^(\d{1,2}) de ([a-záéíóúü]+) de (\d{4}), (\d{1,2}):(\d{2}):(\d{2}) ([ap])\.\s?m\. UTC([+-]\d{1,2})$`)

var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// ParseAddedAt normalizes a posting's addedAt field to a UTC instant.
// Accepted representations, in priority order:
//
//  1. time.Time — converted to UTC.
//  2. ISO-8601 string, optionally with a literal Z or numeric offset;
//     zoneless values are assumed UTC and date-only values midnight UTC.
//  3. Long-form Spanish string "<d> de <mes> de <yyyy>, <h>:<mm>:<ss>
//     <a./p.m.> UTC<±offset>" — 12-hour clock converted to 24-hour, the
//     explicit offset applied, then normalized to UTC.
//
// Anything else returns ErrUnparseableDate.
func ParseAddedAt(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseAddedAtString(v)
	default:
		return time.Time{}, ErrUnparseableDate
	}
}

func parseAddedAtString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrUnparseableDate
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return parseLongFormSpanish(s)
}

func parseLongFormSpanish(s string) (time.Time, error) {
	m := longFormPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, ErrUnparseableDate
	}

	month, ok := spanishMonths[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, ErrUnparseableDate
	}

	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])
	offsetHours, _ := strconv.Atoi(m[8])

	if hour > 12 || minute > 59 || second > 59 {
		return time.Time{}, ErrUnparseableDate
	}

	// 12-hour clock → 24-hour
	switch strings.ToLower(m[7]) {
	case "p":
		if hour != 12 {
			hour += 12
		}
	case "a":
		if hour == 12 {
			hour = 0
		}
	}

	zone := time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
	t := time.Date(year, month, day, hour, minute, second, 0, zone)
	return t.UTC(), nil
}
