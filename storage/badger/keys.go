package badger

import (
	"fmt"

	"github.com/fleetkit/knowledge/core"
)

// Key prefixes for different data types
const (
	documentPrefix       = "docrec"
	documentTenantPrefix = "docten"
	chunkPrefix          = "chkrec"
	chunkDocumentPrefix  = "chkdoc"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentPrefix, id))
}

// makeDocumentTenantKey generates a composite key for the tenant index.
// Format: prefix:tenantID:documentID
func makeDocumentTenantKey(tenantID, documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentTenantPrefix, tenantID, documentID))
}

// makePartialDocumentTenantKey generates a partial key for tenant listings.
// Format: prefix:tenantID:
func makePartialDocumentTenantKey(tenantID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentTenantPrefix, tenantID))
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ChunkID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkDocumentKey generates a composite key for the document index.
// Format: prefix:documentID:chunkID
func makeChunkDocumentKey(documentID string, chunkID core.ChunkID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", chunkDocumentPrefix, documentID, chunkID))
}

// makePartialChunkDocumentKey generates a partial key for document chunk queries.
// Format: prefix:documentID:
func makePartialChunkDocumentKey(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkDocumentPrefix, documentID))
}
