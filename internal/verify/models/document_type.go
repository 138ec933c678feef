package models

import "strings"

// DocumentType enumerates the identity documents the flow can capture.
type DocumentType string

const (
	DocDriversLicense        DocumentType = "DRIVERS_LICENSE"
	DocPassport              DocumentType = "PASSPORT"
	DocNationalID            DocumentType = "NATIONAL_ID"
	DocResidencePermit       DocumentType = "RESIDENCE_PERMIT"
	DocPermanentResidentCard DocumentType = "PERMANENT_RESIDENT_CARD"
	DocVoterID               DocumentType = "VOTER_ID"
	DocOther                 DocumentType = "OTHER"
)

// AllDocumentTypes lists every known document type in display order.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocDriversLicense,
		DocPassport,
		DocNationalID,
		DocResidencePermit,
		DocPermanentResidentCard,
		DocVoterID,
		DocOther,
	}
}

// ParseDocumentType maps a raw string onto the enumeration.
// It reports false for anything outside the known set.
func ParseDocumentType(raw string) (DocumentType, bool) {
	candidate := DocumentType(strings.ToUpper(strings.TrimSpace(raw)))
	for _, dt := range AllDocumentTypes() {
		if dt == candidate {
			return dt, true
		}
	}
	return "", false
}

// FilterDocumentTypes intersects raw values with the known enumeration,
// silently dropping unknowns and duplicates. Order follows the input.
// An empty result means no restriction could be derived from the input.
func FilterDocumentTypes(raw []string) []DocumentType {
	var out []DocumentType
	seen := make(map[DocumentType]bool, len(raw))
	for _, r := range raw {
		dt, ok := ParseDocumentType(r)
		if !ok || seen[dt] {
			continue
		}
		seen[dt] = true
		out = append(out, dt)
	}
	return out
}
