package rpc

import "encoding/json"

// marshalIndent renders v as pretty-printed JSON for inclusion in a tool
// result's text content.
func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
