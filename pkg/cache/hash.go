package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a "<kind>:<sha256>" key from a stage prefix (dataset,
// layout, scene) and the values that distinguish the entry. The parts are
// JSON-encoded before hashing so structs like LayoutKeyOpts key stably.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", kind, hex.EncodeToString(sum[:]))
}

// Hash fingerprints artifact content with SHA-256. The pipeline uses it to
// chain stages: the graph hash keys layouts, the scene hash keys rendered
// outputs.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
