package match_test

import (
	"errors"
	"testing"
	"time"

	"jobmate/match-service/internal/match"
)

// ── Native time values ─────────────────────────────────────────────────────

func TestParseAddedAt_NativeTimeNormalizedToUTC(t *testing.T) {
	lima := time.FixedZone("UTC-5", -5*3600)
	in := time.Date(2025, time.August, 1, 13, 15, 37, 0, lima)

	got, err := match.ParseAddedAt(in)
	if err != nil {
		t.Fatalf("ParseAddedAt(time.Time) unexpected error: %v", err)
	}
	want := time.Date(2025, time.August, 1, 18, 15, 37, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseAddedAt = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("ParseAddedAt location = %v, want UTC", got.Location())
	}
}

// ── ISO-8601 strings ───────────────────────────────────────────────────────

func TestParseAddedAt_ISOStrings(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-08-01T13:15:37Z", time.Date(2025, 8, 1, 13, 15, 37, 0, time.UTC)},
		{"2025-08-01T13:15:37+02:00", time.Date(2025, 8, 1, 11, 15, 37, 0, time.UTC)},
		{"2025-08-01T13:15:37", time.Date(2025, 8, 1, 13, 15, 37, 0, time.UTC)}, // zoneless → UTC
		{"2025-08-01T13:15:37.123456Z", time.Date(2025, 8, 1, 13, 15, 37, 123456000, time.UTC)},
		{"2025-08-01", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)}, // date only → midnight UTC
	}
	for _, c := range cases {
		got, err := match.ParseAddedAt(c.in)
		if err != nil {
			t.Errorf("ParseAddedAt(%q) unexpected error: %v", c.in, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("ParseAddedAt(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

// ── Long-form Spanish strings ──────────────────────────────────────────────

func TestParseAddedAt_SpanishLongForm(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		// p.m. with negative offset
		{"1 de agosto de 2025, 1:15:37 p.m. UTC-5", time.Date(2025, 8, 1, 18, 15, 37, 0, time.UTC)},
		// a.m. midnight edge: 12 a.m. is hour 0
		{"1 de agosto de 2025, 12:05:00 a.m. UTC+2", time.Date(2025, 7, 31, 22, 5, 0, 0, time.UTC)},
		// p.m. noon edge: 12 p.m. stays 12
		{"15 de enero de 2024, 12:30:00 p.m. UTC-5", time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC)},
		// plain morning hour
		{"3 de diciembre de 2025, 9:00:01 a.m. UTC-3", time.Date(2025, 12, 3, 12, 0, 1, 0, time.UTC)},
	}
	for _, c := range cases {
		got, err := match.ParseAddedAt(c.in)
		if err != nil {
			t.Errorf("ParseAddedAt(%q) unexpected error: %v", c.in, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("ParseAddedAt(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

// ── Unparseable values ─────────────────────────────────────────────────────

func TestParseAddedAt_Unparseable(t *testing.T) {
	cases := []any{
		"not a date",
		"",
		"1 de frimario de 2025, 1:15:37 p.m. UTC-5", // unknown month
		"32 de agosto de 2025",                      // truncated long form
		42,
		nil,
		[]string{"2025-08-01"},
	}
	for _, in := range cases {
		_, err := match.ParseAddedAt(in)
		if !errors.Is(err, match.ErrUnparseableDate) {
			t.Errorf("ParseAddedAt(%v) error = %v, want ErrUnparseableDate", in, err)
		}
	}
}
