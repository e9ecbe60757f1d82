package utils

import (
	"math"
	"strconv"
	"strings"
)

// CreateRankList returns 1-based ranks for count already ordered items.
// Ranks past math.MaxUint16 saturate, matching the uint16 wire field.
func CreateRankList(count int) []uint16 {
	if count <= 0 {
		return []uint16{}
	}
	ranks := make([]uint16, count)
	for i := range ranks {
		if i+1 >= math.MaxUint16 {
			ranks[i] = math.MaxUint16
			continue
		}
		ranks[i] = uint16(i + 1)
	}
	return ranks
}

// FormatWithCommas formats an integer with comma separators
func FormatWithCommas(n int) string {
	if n < 0 {
		return "-" + FormatWithCommas(-n)
	}
	str := strconv.Itoa(n)
	if len(str) <= 3 {
		return str
	}

	var sb strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(char)
	}
	return sb.String()
}
