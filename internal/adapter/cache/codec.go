package cache

import (
	"encoding/json"
	"fmt"
)

// encodeValue stores strings and byte slices as-is and everything else as
// JSON, so both backends return the same text from Get.
func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal value: %w", err)
		}
		return data, nil
	}
}
