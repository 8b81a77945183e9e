package domain

import (
	"strings"
	"testing"
)

func TestEncodeReadableID(t *testing.T) {
	cases := []struct {
		name string
		year int
		n    int64
		want string
	}{
		{"first-of-year", 2026, 1, "WM-26-AAA00001"},
		{"last-of-first-block", 2026, 99999, "WM-26-AAA99999"},
		{"rolls-letters", 2026, 100000, "WM-26-AAB00001"},
		{"second-block", 2026, 100001, "WM-26-AAB00002"},
		{"century-wraps-year", 1999, 1, "WM-99-AAA00001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeReadableID(tc.year, tc.n)
			if err != nil {
				t.Fatalf("EncodeReadableID(%d, %d): %v", tc.year, tc.n, err)
			}
			if got != tc.want {
				t.Fatalf("EncodeReadableID(%d, %d) = %q, want %q", tc.year, tc.n, got, tc.want)
			}
		})
	}
}

func TestEncodeReadableIDRange(t *testing.T) {
	if _, err := EncodeReadableID(2026, 0); err == nil {
		t.Fatal("expected error for sequence 0")
	}
	if _, err := EncodeReadableID(2026, readableMaxSeq+1); err == nil {
		t.Fatal("expected error for sequence past capacity")
	}
	if _, err := EncodeReadableID(2026, readableMaxSeq); err != nil {
		t.Fatalf("last sequence should encode: %v", err)
	}
}

func TestDecodeReadableIDRoundTrip(t *testing.T) {
	for _, n := range []int64{1, 2, 99999, 100000, 2812317, readableMaxSeq} {
		id, err := EncodeReadableID(2026, n)
		if err != nil {
			t.Fatalf("encode %d: %v", n, err)
		}
		year, got, err := DecodeReadableID(id)
		if err != nil {
			t.Fatalf("decode %q: %v", id, err)
		}
		if year != 26 || got != n {
			t.Fatalf("decode %q = (%d, %d), want (26, %d)", id, year, got, n)
		}
	}
}

func TestDecodeReadableIDMalformed(t *testing.T) {
	cases := []string{
		"",
		"WM-26",
		"XX-26-AAA00001",
		"WM-2026-AAA00001",
		"WM-26-AAA0001",
		"WM-26-aaa00001",
		"WM-26-AAA00000",
		"WM-26-AAAxxxxx",
	}
	for _, id := range cases {
		if _, _, err := DecodeReadableID(id); err == nil {
			t.Fatalf("expected decode error for %q", id)
		}
		if _, _, err := DecodeReadableID(id); err != nil && !strings.Contains(err.Error(), "readable id") {
			t.Fatalf("unexpected error text for %q: %v", id, err)
		}
	}
}

func TestNextReadableID(t *testing.T) {
	got, err := NextReadableID("", 2026)
	if err != nil || got != "WM-26-AAA00001" {
		t.Fatalf("NextReadableID(empty) = %q, %v", got, err)
	}
	got, err = NextReadableID("WM-26-ABC12345", 2026)
	if err != nil || got != "WM-26-ABC12346" {
		t.Fatalf("NextReadableID(same year) = %q, %v", got, err)
	}
	got, err = NextReadableID("WM-25-ZZZ99999", 2026)
	if err != nil || got != "WM-26-AAA00001" {
		t.Fatalf("NextReadableID(year rollover) = %q, %v", got, err)
	}
	if _, err := NextReadableID("not-an-id", 2026); err == nil {
		t.Fatal("expected error for malformed latest id")
	}
}
