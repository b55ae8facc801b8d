package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Key computes the deterministic fingerprint identifying an extraction
// request. The fingerprint is the SHA-256 digest of the canonical JSON
// serialization of the request: map keys in sorted order, the column list
// sorted, and nil and empty column lists both rendered as null. Reordering
// the requested columns therefore yields the same key, while any change to
// content, prompt, model or the column set yields a different one.
func Key(content, prompt, model string, columns []string) string {
	var cols any
	if len(columns) > 0 {
		sorted := append([]string(nil), columns...)
		sort.Strings(sorted)
		cols = sorted
	}

	// encoding/json serializes map keys in sorted order, which makes the
	// payload canonical.
	payload, _ := json.Marshal(map[string]any{
		"content": content,
		"prompt":  prompt,
		"model":   model,
		"columns": cols,
	})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
