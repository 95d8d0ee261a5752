package connector

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erp/syncengine/internal/domain/integration"
)

// stringField returns the field as a trimmed string, or "" when absent
func stringField(rec integration.LocalRecord, key string) string {
	v, ok := rec.Fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// requireString returns the field or a contained error naming it
func requireString(rec integration.LocalRecord, key string) (string, error) {
	s := stringField(rec, key)
	if s == "" {
		return "", integration.NewContainedError(rec.ID, "missing required field "+key, nil)
	}
	return s, nil
}

// firstString returns the first non-empty field among keys
func firstString(rec integration.LocalRecord, keys ...string) string {
	for _, k := range keys {
		if s := stringField(rec, k); s != "" {
			return s
		}
	}
	return ""
}

// decimalField parses a numeric field. ok is false when the field is absent.
func decimalField(rec integration.LocalRecord, key string) (d decimal.Decimal, ok bool, err error) {
	v, present := rec.Fields[key]
	if !present || v == nil {
		return decimal.Zero, false, nil
	}

	switch val := v.(type) {
	case decimal.Decimal:
		return val, true, nil
	case float64:
		return decimal.NewFromFloat(val), true, nil
	case float32:
		return decimal.NewFromFloat32(val), true, nil
	case int:
		return decimal.NewFromInt(int64(val)), true, nil
	case int32:
		return decimal.NewFromInt32(val), true, nil
	case int64:
		return decimal.NewFromInt(val), true, nil
	case json.Number:
		d, err = decimal.NewFromString(val.String())
	case string:
		if strings.TrimSpace(val) == "" {
			return decimal.Zero, false, nil
		}
		d, err = decimal.NewFromString(strings.TrimSpace(val))
	default:
		d, err = decimal.NewFromString(fmt.Sprint(val))
	}
	if err != nil {
		return decimal.Zero, true, integration.NewContainedError(rec.ID, "field "+key+" is not a number", err)
	}
	return d, true, nil
}

// requireDecimal parses a mandatory numeric field
func requireDecimal(rec integration.LocalRecord, key string) (decimal.Decimal, error) {
	d, ok, err := decimalField(rec, key)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, integration.NewContainedError(rec.ID, "missing required field "+key, nil)
	}
	return d, nil
}

// requireNonNegative parses a mandatory amount that must be zero or more
func requireNonNegative(rec integration.LocalRecord, key string) (decimal.Decimal, error) {
	d, err := requireDecimal(rec, key)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, integration.NewContainedError(rec.ID, "field "+key+" must not be negative", nil)
	}
	return d, nil
}
