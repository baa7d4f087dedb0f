package model

import "fmt"

// ClaimType classifies the kind of service a claim bills for.
type ClaimType string

const (
	ClaimTypeMedical      ClaimType = "medical"
	ClaimTypeDental       ClaimType = "dental"
	ClaimTypeVision       ClaimType = "vision"
	ClaimTypePrescription ClaimType = "prescription"
	ClaimTypeLaboratory   ClaimType = "laboratory"
	ClaimTypeRadiology    ClaimType = "radiology"
	ClaimTypeSurgery      ClaimType = "surgery"
	ClaimTypeEmergency    ClaimType = "emergency"
	ClaimTypePreventive   ClaimType = "preventive"
)

// AllClaimTypes lists the supported claim types in canonical order.
var AllClaimTypes = []ClaimType{
	ClaimTypeMedical, ClaimTypeDental, ClaimTypeVision, ClaimTypePrescription,
	ClaimTypeLaboratory, ClaimTypeRadiology, ClaimTypeSurgery,
	ClaimTypeEmergency, ClaimTypePreventive,
}

// ParseClaimType returns the ClaimType for s, or an error for unknown values.
func ParseClaimType(s string) (ClaimType, error) {
	for _, t := range AllClaimTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "claim_type", Reason: fmt.Sprintf("unknown claim type %q", s)}
}

func (t ClaimType) Valid() bool {
	_, err := ParseClaimType(string(t))
	return err == nil
}

// UnmarshalJSON rejects unrecognized claim types at the decode boundary.
func (t *ClaimType) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return err
	}
	parsed, err := ParseClaimType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ClaimStatus tracks where a claim sits in the adjudication lifecycle.
type ClaimStatus string

const (
	ClaimStatusSubmitted   ClaimStatus = "submitted"
	ClaimStatusUnderReview ClaimStatus = "under_review"
	ClaimStatusApproved    ClaimStatus = "approved"
	ClaimStatusDenied      ClaimStatus = "denied"
	ClaimStatusPaid        ClaimStatus = "paid"
	ClaimStatusAppealed    ClaimStatus = "appealed"
	ClaimStatusClosed      ClaimStatus = "closed"
)

var AllClaimStatuses = []ClaimStatus{
	ClaimStatusSubmitted, ClaimStatusUnderReview, ClaimStatusApproved,
	ClaimStatusDenied, ClaimStatusPaid, ClaimStatusAppealed, ClaimStatusClosed,
}

func ParseClaimStatus(s string) (ClaimStatus, error) {
	for _, st := range AllClaimStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", &ValidationError{Field: "claim_status", Reason: fmt.Sprintf("unknown claim status %q", s)}
}

func (s ClaimStatus) Valid() bool {
	_, err := ParseClaimStatus(string(s))
	return err == nil
}

func (s *ClaimStatus) UnmarshalJSON(b []byte) error {
	raw, err := unquote(b)
	if err != nil {
		return err
	}
	parsed, err := ParseClaimStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ProviderType classifies healthcare providers.
type ProviderType string

const (
	ProviderPhysician          ProviderType = "physician"
	ProviderHospital           ProviderType = "hospital"
	ProviderClinic             ProviderType = "clinic"
	ProviderLaboratory         ProviderType = "laboratory"
	ProviderPharmacy           ProviderType = "pharmacy"
	ProviderSpecialist         ProviderType = "specialist"
	ProviderNursePractitioner  ProviderType = "nurse_practitioner"
	ProviderPhysicianAssistant ProviderType = "physician_assistant"
)

var AllProviderTypes = []ProviderType{
	ProviderPhysician, ProviderHospital, ProviderClinic, ProviderLaboratory,
	ProviderPharmacy, ProviderSpecialist, ProviderNursePractitioner,
	ProviderPhysicianAssistant,
}

func ParseProviderType(s string) (ProviderType, error) {
	for _, t := range AllProviderTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown provider type %q", s)}
}

func (t ProviderType) Valid() bool {
	_, err := ParseProviderType(string(t))
	return err == nil
}

func (t *ProviderType) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return err
	}
	parsed, err := ParseProviderType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Gender is the single-letter administrative gender code carried on claims.
type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderOther   Gender = "O"
	GenderUnknown Gender = "U"
)

var AllGenders = []Gender{GenderMale, GenderFemale, GenderOther, GenderUnknown}

func ParseGender(s string) (Gender, error) {
	for _, g := range AllGenders {
		if string(g) == s {
			return g, nil
		}
	}
	return "", &ValidationError{Field: "gender", Reason: fmt.Sprintf("gender must be one of M, F, O, U; got %q", s)}
}

func (g Gender) Valid() bool {
	_, err := ParseGender(string(g))
	return err == nil
}

func (g *Gender) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return err
	}
	parsed, err := ParseGender(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// unquote strips the surrounding quotes from a JSON string token.
func unquote(b []byte) (string, error) {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return "", fmt.Errorf("expected JSON string, got %s", b)
	}
	return string(b[1 : len(b)-1]), nil
}
