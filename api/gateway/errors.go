package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fastygo/rozklad/api/transport"
	"github.com/fastygo/rozklad/domain"
)

const maxRawDetail = 512

// decodeError turns a failure response into an HTTPError. The detail is a string, a
// list of validation items, or anything else rendered verbatim.
func decodeError(method, path string, status int, body []byte) *domain.HTTPError {
	hErr := &domain.HTTPError{Method: method, Path: path, Status: status}

	var parsed transport.ErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Detail) == 0 {
		hErr.Detail = truncate(strings.TrimSpace(string(body)))
		return hErr
	}

	detail := bytes.TrimSpace(parsed.Detail)
	switch {
	case len(detail) > 0 && detail[0] == '"':
		_ = json.Unmarshal(detail, &hErr.Detail)
	case len(detail) > 0 && detail[0] == '[':
		var items []transport.ValidationItem
		if err := json.Unmarshal(detail, &items); err != nil {
			hErr.Detail = truncate(string(detail))
			return hErr
		}
		for _, item := range items {
			hErr.Fields = append(hErr.Fields, domain.FieldError{Field: fieldName(item.Loc), Message: item.Msg})
		}
	default:
		hErr.Detail = truncate(string(detail))
	}
	return hErr
}

// fieldName joins a location path, dropping the leading request part (body, query...).
func fieldName(loc []interface{}) string {
	parts := make([]string, 0, len(loc))
	for i, p := range loc {
		s := fmt.Sprint(p)
		if i == 0 && len(loc) > 1 {
			switch s {
			case "body", "query", "path", "header", "cookie":
				continue
			}
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}

// truncate cuts s to at most maxRawDetail bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxRawDetail {
		return s
	}
	cut := maxRawDetail
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
