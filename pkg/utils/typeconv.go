package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// None is how a missing value is rendered in emitted events.
const None = "None"

// ConvertToString converts a scanned driver value to a nullable string.
func ConvertToString(val interface{}) (*string, error) {
	switch v := val.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	case []byte:
		s := string(v)
		return &s, nil
	case time.Time:
		s := FormatTimestamp(v)
		return &s, nil
	default:
		s := fmt.Sprintf("%v", v)
		return &s, nil
	}
}

// ConvertToInt64 converts a scanned driver value to a nullable int64.
func ConvertToInt64(val interface{}) (*int64, error) {
	var n int64
	switch v := val.(type) {
	case nil:
		return nil, nil
	case int64:
		n = v
	case int32:
		n = int64(v)
	case int:
		n = int64(v)
	case float64:
		n = int64(v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, err
		}
		n = parsed
	case []byte:
		return ConvertToInt64(string(v))
	default:
		return nil, fmt.Errorf("cannot convert %T to int64", val)
	}
	return &n, nil
}

// ConvertToDecimal converts a scanned driver value to a fixed-precision decimal.
// PostgreSQL numeric arrives as string, SQL Server decimal as []byte.
func ConvertToDecimal(val interface{}) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	switch v := val.(type) {
	case nil:
		return nil, nil
	case string:
		if _, _, err := d.SetString(strings.TrimSpace(v)); err != nil {
			return nil, err
		}
	case []byte:
		return ConvertToDecimal(string(v))
	case int64:
		d.SetInt64(v)
	case float64:
		if _, err := d.SetFloat64(v); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("cannot convert %T to decimal", val)
	}
	return d, nil
}

// ConvertDateTime converts a scanned driver value to a time.
func ConvertDateTime(val interface{}) (time.Time, error) {
	switch v := val.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		formats := []string{
			time.RFC3339Nano,
			"2006-01-02 15:04:05.999999999-07:00",
			"2006-01-02 15:04:05.999999999-07",
			"2006-01-02 15:04:05",
			"2006-01-02",
		}
		for _, f := range formats {
			if t, err := time.Parse(f, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unable to parse datetime: %s", v)
	case []byte:
		return ConvertDateTime(string(v))
	case int64:
		return time.Unix(v, 0), nil
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to datetime", val)
	}
}

// FormatTimestamp renders t like a timezone-aware Python datetime:
// "2006-01-02 15:04:05+00:00", with microseconds only when non-zero.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return None
	}
	if t.Nanosecond()/1000 != 0 {
		return t.Format("2006-01-02 15:04:05.000000-07:00")
	}
	return t.Format("2006-01-02 15:04:05-07:00")
}

func RenderString(s *string) string {
	if s == nil {
		return None
	}
	return *s
}

func RenderInt(n *int64) string {
	if n == nil {
		return None
	}
	return strconv.FormatInt(*n, 10)
}

func RenderDecimal(d *apd.Decimal) string {
	if d == nil {
		return None
	}
	return d.String()
}
