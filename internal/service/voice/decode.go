package voice

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Keys the extraction service must not set; identity and audit fields come
// from the session and the target reference.
var protectedKeys = []string{"uuid", "farmUuid", "createdBy", "updatedBy", "createdAt", "updatedAt"}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006",
}

var timeType = reflect.TypeOf(time.Time{})

// decodeData copies the loosely typed field set of a proposed operation into
// out, matching json field names. Numbers given as strings and dates given
// as text are converted.
func decodeData(data map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook:       stringToTimeHook,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(sanitize(data))
}

func sanitize(data map[string]interface{}) map[string]interface{} {
	clean := make(map[string]interface{}, len(data))
	for k, v := range data {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		clean[k] = v
	}
	for _, k := range protectedKeys {
		delete(clean, k)
	}
	return clean
}

func stringToTimeHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != timeType {
		return data, nil
	}
	return parseDate(data.(string))
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
