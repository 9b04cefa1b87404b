package validationrequest

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payload carries the kind-specific attributes of a request. It is a
// closed sum: one payload type per Kind, dispatched through the kind
// registry rather than reflection.
type Payload interface {
	isPayload()
}

type AdditionalDocumentPayload struct {
	DocumentRequestType string `json:"document_request_type"`
	Reason              string `json:"reason,omitempty"`
}

type ReplacementDocumentPayload struct {
	OldDocumentID uuid.UUID  `json:"old_document_id"`
	NewDocumentID *uuid.UUID `json:"new_document_id,omitempty"`
}

type RedLineBoundaryChangePayload struct {
	OriginalGeoJSON json.RawMessage `json:"original_geojson,omitempty"`
	NewGeoJSON      json.RawMessage `json:"new_geojson"`
	Reason          string          `json:"reason,omitempty"`
}

type DescriptionChangePayload struct {
	ProposedDescription string `json:"proposed_description"`
}

type FeeChangePayload struct {
	Reason      string          `json:"reason,omitempty"`
	ProposedFee decimal.Decimal `json:"proposed_fee"`
}

type OtherChangePayload struct {
	Summary    string `json:"summary"`
	Suggestion string `json:"suggestion,omitempty"`
}

type OwnershipCertificatePayload struct {
	CertificateType string `json:"certificate_type,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

func (AdditionalDocumentPayload) isPayload()    {}
func (ReplacementDocumentPayload) isPayload()   {}
func (RedLineBoundaryChangePayload) isPayload() {}
func (DescriptionChangePayload) isPayload()     {}
func (FeeChangePayload) isPayload()             {}
func (OtherChangePayload) isPayload()           {}
func (OwnershipCertificatePayload) isPayload()  {}

func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func UnmarshalPayload(kind Kind, data []byte) (Payload, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}
	switch kind {
	case KindAdditionalDocument:
		var p AdditionalDocumentPayload
		return p, json.Unmarshal(data, &p)
	case KindReplacementDocument:
		var p ReplacementDocumentPayload
		return p, json.Unmarshal(data, &p)
	case KindRedLineBoundaryChange:
		var p RedLineBoundaryChangePayload
		return p, json.Unmarshal(data, &p)
	case KindDescriptionChange:
		var p DescriptionChangePayload
		return p, json.Unmarshal(data, &p)
	case KindFeeChange:
		var p FeeChangePayload
		return p, json.Unmarshal(data, &p)
	case KindOtherChange:
		var p OtherChangePayload
		return p, json.Unmarshal(data, &p)
	case KindOwnershipCertificate:
		var p OwnershipCertificatePayload
		return p, json.Unmarshal(data, &p)
	}
	return nil, fmt.Errorf("unknown validation request kind: %s", kind)
}
