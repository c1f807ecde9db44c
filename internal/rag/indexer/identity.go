package indexer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/anvikal/askapi/internal/domain/docModel"
)

// StableID derives the cross-run identity component of a document: the
// operationId when the document carries one, otherwise the first 12 hex
// chars of a sha1 over the content. Equal content yields the same stable
// id across independent builds, which is what makes cache keys portable.
func StableID(doc docModel.Document) string {
	if opID := doc.OperationID(); opID != "" {
		return opID
	}
	sum := sha1.Sum([]byte(doc.Content))
	return hex.EncodeToString(sum[:])[:12]
}

// BaseID combines kind, stable id and the document's ordinal in the build
// sequence. The ordinal disambiguates documents sharing a natural key
// (e.g. several parameters of one operation) but is not identity-
// preserving across runs; callers relying on cross-run identity use the
// stable component only.
func BaseID(doc docModel.Document, ordinal int) string {
	return fmt.Sprintf("%s::%s::%d", doc.Kind, StableID(doc), ordinal)
}

// ChildID addresses one derived representation of a document.
func ChildID(baseID string, kind docModel.RepKind) string {
	return fmt.Sprintf("%s:%s", baseID, kind)
}
