package spark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/de-tools/spark-advisor/pkg/models/domain"
)

// NormalizeMemory rewrites a JVM memory size into whole megabytes ("4g" -> "4096m").
//
// Megabyte values are only canonicalized ("512mb" -> "512m"), so normalizing an
// already normalized value returns it unchanged. Empty input stays empty.
// Values with any other unit, a fractional amount or no unit at all are
// returned verbatim together with ErrMalformedMemoryUnit.
func NormalizeMemory(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", nil
	}

	lower := strings.ToLower(v)
	digits := strings.TrimRight(lower, "abcdefghijklmnopqrstuvwxyz")
	unit := lower[len(digits):]

	amount, err := strconv.Atoi(digits)
	if err != nil || amount < 0 {
		return value, fmt.Errorf("%w: %q", domain.ErrMalformedMemoryUnit, value)
	}

	switch unit {
	case "g", "gb":
		return strconv.Itoa(amount*1024) + "m", nil
	case "m", "mb":
		return strconv.Itoa(amount) + "m", nil
	default:
		return value, fmt.Errorf("%w: %q", domain.ErrMalformedMemoryUnit, value)
	}
}

func megabytes(mb int) string {
	return strconv.Itoa(mb) + "m"
}
