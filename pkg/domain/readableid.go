package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Readable ids are human-facing, year-scoped sequential identifiers of the
// form WM-26-AAA00001: a fixed prefix, a two-digit year, then an 8-character
// suffix encoding a counter as three bijective base-26 letters and five
// digits in 00001..99999. The first id of a new year is WM-yy-AAA00001.
const (
	readableIDPrefix = "WM"
	readableDigitMax = 99999
	readableMaxSeq   = 26 * 26 * 26 * readableDigitMax
)

// EncodeReadableID renders the n-th id (1-based) issued in the given year.
func EncodeReadableID(year int, n int64) (string, error) {
	if n < 1 || n > readableMaxSeq {
		return "", fmt.Errorf("readable id sequence %d out of range", n)
	}
	idx := (n - 1) / readableDigitMax
	digits := (n-1)%readableDigitMax + 1
	letters := []byte{
		byte('A' + idx/676),
		byte('A' + (idx/26)%26),
		byte('A' + idx%26),
	}
	return fmt.Sprintf("%s-%02d-%s%05d", readableIDPrefix, year%100, letters, digits), nil
}

// DecodeReadableID parses an id back into its two-digit year and sequence
// number.
func DecodeReadableID(id string) (year int, n int64, err error) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 || parts[0] != readableIDPrefix {
		return 0, 0, fmt.Errorf("malformed readable id %q", id)
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("malformed readable id year in %q", id)
	}
	suffix := parts[2]
	if len(suffix) != 8 {
		return 0, 0, fmt.Errorf("malformed readable id suffix in %q", id)
	}
	var idx int64
	for i := 0; i < 3; i++ {
		c := suffix[i]
		if c < 'A' || c > 'Z' {
			return 0, 0, fmt.Errorf("malformed readable id letters in %q", id)
		}
		idx = idx*26 + int64(c-'A')
	}
	digits, err := strconv.ParseInt(suffix[3:], 10, 64)
	if err != nil || digits < 1 || digits > readableDigitMax {
		return 0, 0, fmt.Errorf("malformed readable id digits in %q", id)
	}
	return year, idx*readableDigitMax + digits, nil
}

// NextReadableID increments the sequence encoded in the latest issued id. A
// latest id from a previous year, or no latest id at all, restarts the
// year's sequence at 1. Allocation against live state goes through the
// store's per-year fetch-and-add counter instead; this decoding path seeds
// that counter from pre-counter data and backs the display helpers.
func NextReadableID(latest string, year int) (string, error) {
	seq := int64(1)
	if latest != "" {
		latestYear, n, err := DecodeReadableID(latest)
		if err != nil {
			return "", err
		}
		if latestYear == year%100 {
			seq = n + 1
		}
	}
	return EncodeReadableID(year, seq)
}
