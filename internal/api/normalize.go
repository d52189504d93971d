package api

import (
	"bytes"
	"encoding/json"
)

// normalizeList collapses the backend's list shapes to one canonical array.
// Endpoints variously return a bare array, a {"data": [...]} envelope or a
// paginated {"items": [...], "total": n} envelope; the ambiguity is
// isolated here.
func normalizeList(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	if trimmed[0] == '[' {
		return json.RawMessage(trimmed), nil
	}

	var env struct {
		Data  json.RawMessage `json:"data"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	if present(env.Data) {
		return env.Data, nil
	}
	if present(env.Items) {
		return env.Items, nil
	}
	return json.RawMessage("[]"), nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
