package idhash

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

// ComputeRunID computes a deterministic run_id.
// Formula: base58(SHA256(dataset_hash|now)), now formatted as RFC3339Nano in UTC.
// Identical data priced at the same instant yields the same run_id.
func ComputeRunID(datasetHash string, now time.Time) string {
	data := fmt.Sprintf("%s|%s", datasetHash, now.UTC().Format(time.RFC3339Nano))
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
