package folio

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidCursor = errors.New("folio: invalid cursor")

// EncodeCursor packs values into an opaque URL safe token.
func EncodeCursor(values ...any) string {
	encoded, err := json.Marshal(values)
	if err != nil {
		// Only reachable with unmarshalable values such as channels.
		panic(fmt.Sprintf("folio: cursor values are not JSON encodable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(encoded)
}

func DecodeCursor(token string) ([]any, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return values, nil
}

// OffsetTokens generates tokens that carry a page's offset and page size.
func OffsetTokens(pageSize int) TokenGenerator {
	pageSize = max(pageSize, 1)
	return func(page int) (string, bool) {
		if page < 1 {
			return "", false
		}
		return EncodeCursor((page-1)*pageSize, pageSize), true
	}
}

// DecodeOffsetToken reads a token made by OffsetTokens.
func DecodeOffsetToken(token string) (offset int, pageSize int, err error) {
	values, err := DecodeCursor(token)
	if err != nil {
		return 0, 0, err
	}
	if len(values) != 2 {
		return 0, 0, fmt.Errorf("%w: expected 2 values, got %d", ErrInvalidCursor, len(values))
	}
	offset, ok := wholeNumber(values[0], 0)
	if !ok {
		return 0, 0, fmt.Errorf("%w: bad offset %v", ErrInvalidCursor, values[0])
	}
	pageSize, ok = wholeNumber(values[1], 1)
	if !ok {
		return 0, 0, fmt.Errorf("%w: bad page size %v", ErrInvalidCursor, values[1])
	}
	return offset, pageSize, nil
}

// wholeNumber converts a decoded JSON number to an int no smaller than least.
func wholeNumber(value any, least int) (int, bool) {
	number, ok := value.(float64)
	if !ok || number != math.Trunc(number) || number < float64(least) || number >= math.MaxInt {
		return 0, false
	}
	return int(number), true
}
