package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"shopstream.app/sync/internal/model"
)

// DeliveryKey derives the deterministic deduplication key for one logical
// event. It is a pure function of immutable entity attributes: identical
// inputs produce byte-identical keys on any process at any time, so a retried
// or re-triggered send is deduplicated by the ingestion API instead of
// landing twice.
//
// The sha256 digest is formatted 8-4-4-4-12 so it is accepted anywhere a
// UUID-shaped message ID is expected.
func DeliveryKey(entityType model.EntityType, entityID, eventName string) string {
	material := fmt.Sprintf("%s:%s:%s", entityType, entityID, eventName)
	sum := sha256.Sum256([]byte(material))
	h := hex.EncodeToString(sum[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[:8], h[8:12], h[12:16], h[16:20], h[20:32])
}
