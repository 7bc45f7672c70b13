package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// EncodeQuery turns a filter struct into query parameters using its JSON
// field names. Fields omitted by omitempty are not sent.
func EncodeQuery(filters any) url.Values {
	values := url.Values{}
	if filters == nil {
		return values
	}

	data, err := json.Marshal(filters)
	if err != nil {
		return values
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return values
	}

	for k, field := range fields {
		switch v := field.(type) {
		case nil:
		case string:
			values.Set(k, v)
		case float64:
			values.Set(k, strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			values.Set(k, strconv.FormatBool(v))
		case []any:
			for _, item := range v {
				values.Add(k, fmt.Sprint(item))
			}
		default:
			values.Set(k, fmt.Sprint(v))
		}
	}
	return values
}
