package handlers

import (
	"bytes"
	"encoding/json"
)

// memberRef is a user reference in a request body. Clients send either the
// bare id or a user stub such as {"id": "...", "username": "..."}.
type memberRef struct {
	ID string `json:"id" validate:"required"`
}

func (m *memberRef) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		return json.Unmarshal(b, &m.ID)
	}
	var stub struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &stub); err != nil {
		return err
	}
	m.ID = stub.ID
	return nil
}

func refIDs(refs []memberRef) []string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}

// withRequesterFirst moves the requester to the front of ids, adding it when
// absent.
func withRequesterFirst(requester string, ids []string) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, requester)
	for _, id := range ids {
		if id != requester {
			out = append(out, id)
		}
	}
	return out
}
