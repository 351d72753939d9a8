package postgres

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount columns are NUMERIC(12,2) in baht; domain amounts are int64 satang.
// Conversion happens only at this boundary.

func numericStringToSatang(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric string")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}

	return int64(math.Round(f * 100)), nil
}

func satangToNumericString(satang int64) string {
	sign := ""
	if satang < 0 {
		sign = "-"
		satang = -satang
	}

	whole := satang / 100
	frac := satang % 100

	return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
}
