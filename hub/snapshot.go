package hub

import (
	"sort"

	"github.com/tidwall/sjson"
)

// Snapshot returns the current state as a JSON document:
//
//	{"users":["alice","bob","carol"],"pairs":[{"a":"alice","b":"bob"}]}
//
// Each pairing is listed once, with a < b.
func (h *Hub) Snapshot() ([]byte, error) {
	h.mu.Lock()
	names := h.namesLocked()

	pairs := make([][2]string, 0, len(h.pairs)/2)
	for a, b := range h.pairs {
		if a < b {
			pairs = append(pairs, [2]string{a, b})
		}
	}
	h.mu.Unlock()

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i][0] < pairs[j][0]
	})

	doc, err := sjson.SetBytes([]byte("{}"), "users", names)
	if err != nil {
		return nil, err
	}

	doc, err = sjson.SetRawBytes(doc, "pairs", []byte("[]"))
	if err != nil {
		return nil, err
	}

	for _, p := range pairs {
		doc, err = sjson.SetBytes(doc, "pairs.-1", map[string]string{"a": p[0], "b": p[1]})
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}
