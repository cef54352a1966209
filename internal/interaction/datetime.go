package interaction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	isoDate = "2006-01-02"
	isoTime = "15:04"
)

// Day-first layouts, tried in order after ordinal suffixes, commas and
// slashes have been cleaned out of the input.
var dateLayouts = []string{
	"2006-1-2",
	"2-Jan-2006",
	"2-January-2006",
	"2-1-2006",
	"2-1-06",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"January 2 2006",
}

var (
	ordinalRe     = regexp.MustCompile(`(\d+)(st|nd|rd|th)\b`)
	embeddedDayRe = regexp.MustCompile(`(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{4})`)

	clock12MinRe = regexp.MustCompile(`\b(1[0-2]|0?[1-9]):([0-5]\d)\s*(am|pm)\b`)
	clock12Re    = regexp.MustCompile(`\b(1[0-2]|0?[1-9])\s*(am|pm)\b`)
	clock24Re    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	decimalSepRe = regexp.MustCompile(`(\d)\.(\d)`)
)

// NormalizeDate converts a raw date into ISO YYYY-MM-DD. Values that cannot be
// read as a calendar date count as absent so the record never holds a
// free-form date.
func NormalizeDate(v Value) (string, bool) {
	s, ok := NormalizeScalar(v)
	if !ok {
		return "", false
	}
	t, err := parseDate(s)
	if err != nil {
		return "", false
	}
	return t.Format(isoDate), true
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	s := strings.ToLower(strings.TrimSpace(raw))
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.Join(strings.Fields(s), " ")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	if m := embeddedDayRe.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("2 Jan 2006", m[1]+" "+m[2]+" "+m[3]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// NormalizeTime converts a raw clock time into 24h HH:MM.
func NormalizeTime(v Value) (string, bool) {
	s, ok := NormalizeScalar(v)
	if !ok {
		return "", false
	}
	hh, mm, err := parseClock(s)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hh, mm), true
}

func parseClock(raw string) (int, int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = decimalSepRe.ReplaceAllString(s, "$1:$2")
	s = strings.ReplaceAll(s, ".", "")

	if m := clock12MinRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return to24(h, m[3]), mm, nil
	}
	if m := clock12Re.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		return to24(h, m[2]), 0, nil
	}
	if m := clock24Re.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return h, mm, nil
	}
	return 0, 0, fmt.Errorf("unrecognised time %q", raw)
}

func to24(h int, ampm string) int {
	switch {
	case ampm == "pm" && h != 12:
		return h + 12
	case ampm == "am" && h == 12:
		return 0
	}
	return h
}

func validISODate(s string) bool {
	_, err := time.Parse(isoDate, s)
	return err == nil
}

func validISOTime(s string) bool {
	_, err := time.Parse(isoTime, s)
	return err == nil
}
