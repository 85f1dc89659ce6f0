// Package encoding provides JSON codec types for binary payloads that
// travel as encoded strings, like audio clips inside API response
// bodies.
package encoding

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Base64Data is a byte slice that serializes to and from standard
// base64 in JSON. A JSON null leaves the slice nil.
type Base64Data []byte

// MarshalJSON implements json.Marshaler.
func (b Base64Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(b))
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Base64Data) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("base64 data: %w", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("base64 data: %w", err)
	}
	*b = decoded
	return nil
}

// String returns the base64 string form.
func (b Base64Data) String() string {
	return base64.StdEncoding.EncodeToString(b)
}
