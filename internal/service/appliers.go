package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Payload readers shared by the change appliers. Each accepts a list of
// accepted key aliases (snake_case and camelCase) and reports whether the key
// was present at all, so absent fields are left untouched on update.

func readString(payload map[string]json.RawMessage, keys ...string) (*string, bool, error) {
	for _, key := range keys {
		if raw, ok := payload[key]; ok {
			var val string
			if err := json.Unmarshal(raw, &val); err != nil {
				return nil, false, err
			}
			val = strings.TrimSpace(val)
			return &val, true, nil
		}
	}
	return nil, false, nil
}

func readBool(payload map[string]json.RawMessage, keys ...string) (bool, bool, error) {
	for _, key := range keys {
		if raw, ok := payload[key]; ok {
			var val bool
			if err := json.Unmarshal(raw, &val); err != nil {
				return false, false, err
			}
			return val, true, nil
		}
	}
	return false, false, nil
}

// readDecimal accepts both JSON numbers and numeric strings so clients can
// avoid float rounding on amounts.
func readDecimal(payload map[string]json.RawMessage, keys ...string) (decimal.Decimal, bool, error) {
	for _, key := range keys {
		if raw, ok := payload[key]; ok {
			var val decimal.Decimal
			if err := json.Unmarshal(raw, &val); err != nil {
				return decimal.Zero, false, err
			}
			return val, true, nil
		}
	}
	return decimal.Zero, false, nil
}

func readDate(payload map[string]json.RawMessage, keys ...string) (time.Time, bool, error) {
	str, ok, err := readString(payload, keys...)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	ts, err := time.Parse("2006-01-02", *str)
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, true, nil
}

func marshalSnapshot(logger *zap.Logger, entity string, value interface{}) []byte {
	snapshot, err := json.Marshal(value)
	if err != nil {
		logger.Warn("failed to marshal entity snapshot", zap.String("entity", entity), zap.Error(err))
		return []byte("{}")
	}
	return snapshot
}

func decodePayload(raw []byte) (map[string]json.RawMessage, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
