package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind declares the type a captured value is converted to.
type Kind int

const (
	// KindInt converts the capture to int64.
	KindInt Kind = iota
	// KindFloat converts the capture to float64. The token "inf" yields +Inf.
	KindFloat
	// KindFlag records that the pattern occurred at all.
	KindFlag
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindFlag:
		return "flag"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// convert turns a captured string into the value stored for kind.
func convert(kind Kind, key, s string) (any, error) {
	switch kind {
	case KindInt:
		return parseInt(key, s)
	case KindFloat:
		return parseFloat(key, s)
	case KindFlag:
		return true, nil
	}
	return nil, fmt.Errorf("%s: unknown kind %v", key, kind)
}

func parseInt(key, s string) (int64, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %q", key, ErrMalformedNumeric, s)
	}
	return i, nil
}

func parseFloat(key, s string) (float64, error) {
	if strings.EqualFold(s, "inf") {
		return math.Inf(1), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %q", key, ErrMalformedNumeric, s)
	}
	return f, nil
}
