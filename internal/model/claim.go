package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// moneyTolerance is the reconciliation tolerance for derived money totals.
// Totals within 0.01 currency units of the line sum are considered consistent.
var moneyTolerance = decimal.New(1, -2)

// HighValueThreshold marks claims whose billed total warrants extra review.
var HighValueThreshold = decimal.NewFromInt(10000)

// DiagnosisCode is an ICD-10 diagnosis code attached to a claim line.
type DiagnosisCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Primary     bool   `json:"primary"`
	Severity    string `json:"severity,omitempty"`
}

func (d *DiagnosisCode) Validate() error {
	if d.Code == "" {
		return invalidf("code", "diagnosis code is required")
	}
	if d.Description == "" {
		return invalidf("description", "diagnosis description is required")
	}
	return nil
}

// ProcedureCode is a CPT/HCPCS procedure code with billed units.
type ProcedureCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Modifier    string `json:"modifier,omitempty"`
	Units       int    `json:"units"`
}

// NewProcedureCode fills defaults (units 1) and validates.
func NewProcedureCode(p ProcedureCode) (ProcedureCode, error) {
	if p.Units == 0 {
		p.Units = 1
	}
	if err := p.Validate(); err != nil {
		return ProcedureCode{}, err
	}
	return p, nil
}

func (p *ProcedureCode) Validate() error {
	if p.Code == "" {
		return invalidf("code", "procedure code is required")
	}
	if p.Description == "" {
		return invalidf("description", "procedure description is required")
	}
	if p.Units < 1 {
		return invalidf("units", "units must be >= 1, got %d", p.Units)
	}
	return nil
}

// ClaimLine is a single billable service within a claim.
type ClaimLine struct {
	LineID              string           `json:"line_id"`
	ProcedureCode       ProcedureCode    `json:"procedure_code"`
	DiagnosisCodes      []DiagnosisCode  `json:"diagnosis_codes"`
	ServiceDate         time.Time        `json:"service_date"`
	BilledAmount        decimal.Decimal  `json:"billed_amount"`
	AllowedAmount       *decimal.Decimal `json:"allowed_amount,omitempty"`
	PaidAmount          *decimal.Decimal `json:"paid_amount,omitempty"`
	PlaceOfService      string           `json:"place_of_service"`
	RenderingProviderID string           `json:"rendering_provider_id"`
}

// NewClaimLine generates a line id when absent, defaults procedure units,
// and validates the line.
func NewClaimLine(line ClaimLine) (ClaimLine, error) {
	if line.LineID == "" {
		line.LineID = uuid.NewString()
	}
	if line.ProcedureCode.Units == 0 {
		line.ProcedureCode.Units = 1
	}
	if err := line.Validate(); err != nil {
		return ClaimLine{}, err
	}
	return line, nil
}

func (l *ClaimLine) Validate() error {
	if l.LineID == "" {
		return invalidf("line_id", "line id is required")
	}
	if err := l.ProcedureCode.Validate(); err != nil {
		return err
	}
	for i := range l.DiagnosisCodes {
		if err := l.DiagnosisCodes[i].Validate(); err != nil {
			return err
		}
	}
	if l.ServiceDate.IsZero() {
		return invalidf("service_date", "service date is required")
	}
	if l.BilledAmount.IsNegative() {
		return invalidf("billed_amount", "amount cannot be negative: %s", l.BilledAmount)
	}
	if l.AllowedAmount != nil && l.AllowedAmount.IsNegative() {
		return invalidf("allowed_amount", "amount cannot be negative: %s", l.AllowedAmount)
	}
	if l.PaidAmount != nil && l.PaidAmount.IsNegative() {
		return invalidf("paid_amount", "amount cannot be negative: %s", l.PaidAmount)
	}
	if l.PlaceOfService == "" {
		return invalidf("place_of_service", "place of service is required")
	}
	if l.RenderingProviderID == "" {
		return invalidf("rendering_provider_id", "rendering provider id is required")
	}
	return nil
}

// Provider is the billing or rendering healthcare provider.
type Provider struct {
	ProviderID string            `json:"provider_id"`
	Name       string            `json:"name"`
	Type       ProviderType      `json:"type"`
	NPI        string            `json:"npi"`
	TaxID      string            `json:"tax_id,omitempty"`
	Address    map[string]string `json:"address"`
	Phone      string            `json:"phone,omitempty"`
	Specialty  string            `json:"specialty,omitempty"`
}

func (p *Provider) Validate() error {
	if p.ProviderID == "" {
		return invalidf("provider_id", "provider id is required")
	}
	if p.Name == "" {
		return invalidf("name", "provider name is required")
	}
	if !p.Type.Valid() {
		return invalidf("type", "unknown provider type %q", p.Type)
	}
	if p.NPI == "" {
		return invalidf("npi", "national provider identifier is required")
	}
	return nil
}

// Patient identifies the insured member a claim was filed for.
type Patient struct {
	PatientID   string            `json:"patient_id"`
	MemberID    string            `json:"member_id"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	DateOfBirth time.Time         `json:"date_of_birth"`
	Gender      Gender            `json:"gender"`
	Address     map[string]string `json:"address"`
	Phone       string            `json:"phone,omitempty"`
}

// NewPatient validates the patient record, rejecting unrecognized gender codes.
func NewPatient(p Patient) (Patient, error) {
	if err := p.Validate(); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (p *Patient) Validate() error {
	if p.PatientID == "" {
		return invalidf("patient_id", "patient id is required")
	}
	if p.MemberID == "" {
		return invalidf("member_id", "member id is required")
	}
	if p.FirstName == "" || p.LastName == "" {
		return invalidf("name", "patient first and last name are required")
	}
	if p.DateOfBirth.IsZero() {
		return invalidf("date_of_birth", "date of birth is required")
	}
	if !p.Gender.Valid() {
		return invalidf("gender", "gender must be one of M, F, O, U; got %q", p.Gender)
	}
	return nil
}

// Insurance is the coverage a claim is billed against.
type Insurance struct {
	InsuranceID       string     `json:"insurance_id"`
	PayerName         string     `json:"payer_name"`
	PayerID           string     `json:"payer_id"`
	GroupNumber       string     `json:"group_number"`
	SubscriberNumber  string     `json:"subscriber_number"`
	PlanType          string     `json:"plan_type"`
	CoverageStartDate time.Time  `json:"coverage_start_date"`
	CoverageEndDate   *time.Time `json:"coverage_end_date,omitempty"`
}

func (i *Insurance) Validate() error {
	if i.InsuranceID == "" {
		return invalidf("insurance_id", "insurance id is required")
	}
	if i.PayerName == "" || i.PayerID == "" {
		return invalidf("payer", "payer name and payer id are required")
	}
	if i.GroupNumber == "" {
		return invalidf("group_number", "group number is required")
	}
	if i.SubscriberNumber == "" {
		return invalidf("subscriber_number", "subscriber number is required")
	}
	if i.PlanType == "" {
		return invalidf("plan_type", "plan type is required")
	}
	if i.CoverageStartDate.IsZero() {
		return invalidf("coverage_start_date", "coverage start date is required")
	}
	return nil
}

// MedicalClaim is the aggregate root: one claim with its parties, lines,
// and money totals. Totals must reconcile against the lines within
// moneyTolerance; CalculateTotals is the sanctioned way to restore
// consistency after line edits.
type MedicalClaim struct {
	ClaimID     string      `json:"claim_id"`
	ClaimNumber string      `json:"claim_number"`
	ClaimType   ClaimType   `json:"claim_type"`
	ClaimStatus ClaimStatus `json:"claim_status"`

	Patient   Patient   `json:"patient"`
	Insurance Insurance `json:"insurance"`
	Provider  Provider  `json:"provider"`

	ClaimLines            []ClaimLine      `json:"claim_lines"`
	TotalBilledAmount     decimal.Decimal  `json:"total_billed_amount"`
	TotalAllowedAmount    *decimal.Decimal `json:"total_allowed_amount,omitempty"`
	TotalPaidAmount       *decimal.Decimal `json:"total_paid_amount,omitempty"`
	PatientResponsibility *decimal.Decimal `json:"patient_responsibility,omitempty"`

	DateOfService      time.Time  `json:"date_of_service"`
	ClaimReceivedDate  time.Time  `json:"claim_received_date"`
	ClaimProcessedDate *time.Time `json:"claim_processed_date,omitempty"`

	Notes       string         `json:"notes,omitempty"`
	Attachments []string       `json:"attachments"`
	Metadata    map[string]any `json:"metadata"`
}

// NewMedicalClaim fills generated defaults (claim id, submitted status,
// received timestamp) and validates every invariant before the claim is
// considered usable.
func NewMedicalClaim(c MedicalClaim) (*MedicalClaim, error) {
	if c.ClaimID == "" {
		c.ClaimID = uuid.NewString()
	}
	if c.ClaimStatus == "" {
		c.ClaimStatus = ClaimStatusSubmitted
	}
	if c.ClaimReceivedDate.IsZero() {
		c.ClaimReceivedDate = time.Now().UTC()
	}
	for i := range c.ClaimLines {
		if c.ClaimLines[i].LineID == "" {
			c.ClaimLines[i].LineID = uuid.NewString()
		}
		if c.ClaimLines[i].ProcedureCode.Units == 0 {
			c.ClaimLines[i].ProcedureCode.Units = 1
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every claim invariant: non-empty lines, valid nested
// records, non-negative totals, and the billed total reconciling against
// the line sum within moneyTolerance.
func (c *MedicalClaim) Validate() error {
	if c.ClaimNumber == "" {
		return invalidf("claim_number", "claim number is required")
	}
	if !c.ClaimType.Valid() {
		return invalidf("claim_type", "unknown claim type %q", c.ClaimType)
	}
	if !c.ClaimStatus.Valid() {
		return invalidf("claim_status", "unknown claim status %q", c.ClaimStatus)
	}
	if err := c.Patient.Validate(); err != nil {
		return err
	}
	if err := c.Insurance.Validate(); err != nil {
		return err
	}
	if err := c.Provider.Validate(); err != nil {
		return err
	}
	if len(c.ClaimLines) == 0 {
		return invalidf("claim_lines", "claim must have at least one line item")
	}
	for i := range c.ClaimLines {
		if err := c.ClaimLines[i].Validate(); err != nil {
			return err
		}
	}
	for _, amt := range []struct {
		field string
		v     *decimal.Decimal
	}{
		{"total_allowed_amount", c.TotalAllowedAmount},
		{"total_paid_amount", c.TotalPaidAmount},
		{"patient_responsibility", c.PatientResponsibility},
	} {
		if amt.v != nil && amt.v.IsNegative() {
			return invalidf(amt.field, "total amount cannot be negative: %s", amt.v)
		}
	}
	if c.TotalBilledAmount.IsNegative() {
		return invalidf("total_billed_amount", "total amount cannot be negative: %s", c.TotalBilledAmount)
	}
	if c.DateOfService.IsZero() {
		return invalidf("date_of_service", "date of service is required")
	}

	lineSum := c.lineBilledSum()
	if c.TotalBilledAmount.Sub(lineSum).Abs().GreaterThan(moneyTolerance) {
		return invalidf("total_billed_amount",
			"total %s does not match line sum %s", c.TotalBilledAmount, lineSum)
	}
	return nil
}

// CalculateTotals recomputes the claim's money totals from its lines.
// It never fails and is idempotent on an already-consistent claim.
//
// Allowed and paid totals are only computed when at least one line
// carries the amount; lines without it contribute zero to the sum. That
// can understate totals when some lines legitimately lack allowed/paid
// data (TODO: revisit if adjudication feeds ever send sparse amounts).
func (c *MedicalClaim) CalculateTotals() {
	c.TotalBilledAmount = c.lineBilledSum()

	var anyAllowed, anyPaid bool
	allowed, paid := decimal.Zero, decimal.Zero
	for i := range c.ClaimLines {
		if a := c.ClaimLines[i].AllowedAmount; a != nil {
			anyAllowed = true
			allowed = allowed.Add(*a)
		}
		if p := c.ClaimLines[i].PaidAmount; p != nil {
			anyPaid = true
			paid = paid.Add(*p)
		}
	}
	if anyAllowed {
		c.TotalAllowedAmount = &allowed
	}
	if anyPaid {
		c.TotalPaidAmount = &paid
	}
	if c.TotalAllowedAmount != nil && c.TotalPaidAmount != nil {
		pr := c.TotalAllowedAmount.Sub(*c.TotalPaidAmount)
		c.PatientResponsibility = &pr
	}
}

func (c *MedicalClaim) lineBilledSum() decimal.Decimal {
	sum := decimal.Zero
	for i := range c.ClaimLines {
		sum = sum.Add(c.ClaimLines[i].BilledAmount)
	}
	return sum
}

// ClaimAgeDays returns the whole days elapsed between now and the
// claim's received timestamp.
func (c *MedicalClaim) ClaimAgeDays(now time.Time) int {
	return int(now.Sub(c.ClaimReceivedDate).Hours() / 24)
}

// IsHighValue reports whether the billed total exceeds HighValueThreshold.
func (c *MedicalClaim) IsHighValue() bool {
	return c.TotalBilledAmount.GreaterThan(HighValueThreshold)
}

func (c *MedicalClaim) HasAttachments() bool {
	return len(c.Attachments) > 0
}
