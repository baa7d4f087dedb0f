package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ---------- helpers ----------

func asValidationError(err error, target **ValidationError) bool {
	return errors.As(err, target)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func makePatient() Patient {
	return Patient{
		PatientID:   "PAT001",
		MemberID:    "MEM001",
		FirstName:   "John",
		LastName:    "Doe",
		DateOfBirth: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      GenderMale,
		Address:     map[string]string{"street": "123 Main St", "city": "Anytown", "state": "CA", "zip": "12345"},
	}
}

func makeProvider() Provider {
	return Provider{
		ProviderID: "PROV001",
		Name:       "Dr. Smith",
		Type:       ProviderPhysician,
		NPI:        "1234567890",
		Address:    map[string]string{"street": "456 Medical Dr", "city": "Anytown", "state": "CA", "zip": "12345"},
	}
}

func makeInsurance() Insurance {
	return Insurance{
		InsuranceID:       "INS001",
		PayerName:         "Health Insurance Co",
		PayerID:           "PAYER001",
		GroupNumber:       "GRP001",
		SubscriberNumber:  "SUB001",
		PlanType:          "PPO",
		CoverageStartDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func makeLine(t *testing.T, billed string, opts ...func(*ClaimLine)) ClaimLine {
	t.Helper()
	l := ClaimLine{
		LineID: "LINE001",
		ProcedureCode: ProcedureCode{
			Code:        "99213",
			Description: "Office visit, established patient",
			Units:       1,
		},
		DiagnosisCodes: []DiagnosisCode{
			{Code: "Z00.00", Description: "General adult medical examination", Primary: true},
		},
		ServiceDate:         time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC),
		BilledAmount:        dec(t, billed),
		PlaceOfService:      "11",
		RenderingProviderID: "PROV001",
	}
	for _, o := range opts {
		o(&l)
	}
	return l
}

func makeClaim(t *testing.T, opts ...func(*MedicalClaim)) MedicalClaim {
	t.Helper()
	c := MedicalClaim{
		ClaimNumber:       "CLM001",
		ClaimType:         ClaimTypeMedical,
		Patient:           makePatient(),
		Insurance:         makeInsurance(),
		Provider:          makeProvider(),
		ClaimLines:        []ClaimLine{makeLine(t, "150.00")},
		TotalBilledAmount: dec(t, "150.00"),
		DateOfService:     time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// ---------- construction ----------

func TestNewMedicalClaim(t *testing.T) {
	t.Run("valid_claim_constructs", func(t *testing.T) {
		c, err := NewMedicalClaim(makeClaim(t))
		if err != nil {
			t.Fatalf("NewMedicalClaim: %v", err)
		}
		if c.ClaimID == "" {
			t.Error("expected generated claim id")
		}
		if c.ClaimStatus != ClaimStatusSubmitted {
			t.Errorf("expected default status submitted, got %q", c.ClaimStatus)
		}
		if c.ClaimReceivedDate.IsZero() {
			t.Error("expected received date to default to now")
		}
	})

	t.Run("empty_claim_lines_rejected", func(t *testing.T) {
		_, err := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.ClaimLines = nil
			c.TotalBilledAmount = decimal.Zero
		}))
		var verr *ValidationError
		if !asValidationError(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Field != "claim_lines" {
			t.Errorf("expected claim_lines field, got %q", verr.Field)
		}
	})

	t.Run("total_mismatch_rejected", func(t *testing.T) {
		_, err := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.TotalBilledAmount = dec(t, "999.99")
		}))
		var verr *ValidationError
		if !asValidationError(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Field != "total_billed_amount" {
			t.Errorf("expected total_billed_amount field, got %q", verr.Field)
		}
	})

	t.Run("total_within_tolerance_accepted", func(t *testing.T) {
		_, err := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.TotalBilledAmount = dec(t, "150.01")
		}))
		if err != nil {
			t.Fatalf("0.01 drift should be within tolerance: %v", err)
		}
	})

	t.Run("total_just_over_tolerance_rejected", func(t *testing.T) {
		_, err := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.TotalBilledAmount = dec(t, "150.02")
		}))
		if err == nil {
			t.Fatal("expected error for 0.02 drift")
		}
	})

	t.Run("negative_total_rejected", func(t *testing.T) {
		_, err := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.TotalAllowedAmount = decPtr(t, "-1.00")
		}))
		if err == nil {
			t.Fatal("expected error for negative allowed total")
		}
	})

	t.Run("negative_line_amount_rejected", func(t *testing.T) {
		_, err := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.ClaimLines = []ClaimLine{makeLine(t, "-150.00")}
			c.TotalBilledAmount = dec(t, "-150.00")
		}))
		if err == nil {
			t.Fatal("expected error for negative billed amount")
		}
	})

	t.Run("generates_line_ids", func(t *testing.T) {
		c, err := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.ClaimLines[0].LineID = ""
		}))
		if err != nil {
			t.Fatalf("NewMedicalClaim: %v", err)
		}
		if c.ClaimLines[0].LineID == "" {
			t.Error("expected generated line id")
		}
	})
}

func TestNewPatient_Gender(t *testing.T) {
	t.Run("gender_X_rejected", func(t *testing.T) {
		p := makePatient()
		p.Gender = "X"
		_, err := NewPatient(p)
		var verr *ValidationError
		if !asValidationError(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Field != "gender" {
			t.Errorf("expected gender field, got %q", verr.Field)
		}
	})

	t.Run("gender_M_accepted", func(t *testing.T) {
		p := makePatient()
		p.Gender = GenderMale
		if _, err := NewPatient(p); err != nil {
			t.Fatalf("NewPatient: %v", err)
		}
	})
}

func TestNewProcedureCode(t *testing.T) {
	t.Run("defaults_units_to_one", func(t *testing.T) {
		p, err := NewProcedureCode(ProcedureCode{Code: "99213", Description: "Office visit"})
		if err != nil {
			t.Fatalf("NewProcedureCode: %v", err)
		}
		if p.Units != 1 {
			t.Errorf("expected units 1, got %d", p.Units)
		}
	})

	t.Run("missing_code_rejected", func(t *testing.T) {
		if _, err := NewProcedureCode(ProcedureCode{Description: "Office visit"}); err == nil {
			t.Fatal("expected error for missing code")
		}
	})
}

// ---------- CalculateTotals ----------

func TestCalculateTotals(t *testing.T) {
	t.Run("recomputes_billed_after_line_edit", func(t *testing.T) {
		c, err := NewMedicalClaim(makeClaim(t))
		if err != nil {
			t.Fatalf("NewMedicalClaim: %v", err)
		}

		c.ClaimLines[0].BilledAmount = dec(t, "200.00")
		c.CalculateTotals()

		if !c.TotalBilledAmount.Equal(dec(t, "200.00")) {
			t.Errorf("expected total 200.00, got %s", c.TotalBilledAmount)
		}
		if c.PatientResponsibility != nil {
			t.Errorf("patient responsibility should stay unset, got %s", c.PatientResponsibility)
		}
		if err := c.Validate(); err != nil {
			t.Errorf("claim should validate after CalculateTotals: %v", err)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		c, err := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.ClaimLines = []ClaimLine{
				makeLine(t, "100.00", func(l *ClaimLine) {
					l.AllowedAmount = decPtr(t, "80.00")
					l.PaidAmount = decPtr(t, "60.00")
				}),
				makeLine(t, "50.00"),
			}
			c.TotalBilledAmount = dec(t, "150.00")
		}))
		if err != nil {
			t.Fatalf("NewMedicalClaim: %v", err)
		}

		c.CalculateTotals()
		first := *c
		firstAllowed := c.TotalAllowedAmount.String()
		firstPaid := c.TotalPaidAmount.String()
		firstPR := c.PatientResponsibility.String()

		c.CalculateTotals()
		if !c.TotalBilledAmount.Equal(first.TotalBilledAmount) {
			t.Errorf("billed changed on second run: %s vs %s", c.TotalBilledAmount, first.TotalBilledAmount)
		}
		if c.TotalAllowedAmount.String() != firstAllowed ||
			c.TotalPaidAmount.String() != firstPaid ||
			c.PatientResponsibility.String() != firstPR {
			t.Error("totals changed on second CalculateTotals run")
		}
	})

	t.Run("partial_allowed_sums_missing_as_zero", func(t *testing.T) {
		c, err := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.ClaimLines = []ClaimLine{
				makeLine(t, "100.00", func(l *ClaimLine) { l.AllowedAmount = decPtr(t, "80.00") }),
				makeLine(t, "50.00"), // no allowed amount
			}
			c.TotalBilledAmount = dec(t, "150.00")
		}))
		if err != nil {
			t.Fatalf("NewMedicalClaim: %v", err)
		}

		c.CalculateTotals()
		if c.TotalAllowedAmount == nil || !c.TotalAllowedAmount.Equal(dec(t, "80.00")) {
			t.Errorf("expected allowed total 80.00, got %v", c.TotalAllowedAmount)
		}
		if c.TotalPaidAmount != nil {
			t.Errorf("paid total should stay unset, got %s", c.TotalPaidAmount)
		}
	})

	t.Run("responsibility_is_allowed_minus_paid", func(t *testing.T) {
		c, err := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.ClaimLines = []ClaimLine{
				makeLine(t, "150.00", func(l *ClaimLine) {
					l.AllowedAmount = decPtr(t, "120.00")
					l.PaidAmount = decPtr(t, "100.00")
				}),
			}
		}))
		if err != nil {
			t.Fatalf("NewMedicalClaim: %v", err)
		}

		c.CalculateTotals()
		if c.PatientResponsibility == nil || !c.PatientResponsibility.Equal(dec(t, "20.00")) {
			t.Errorf("expected responsibility 20.00, got %v", c.PatientResponsibility)
		}
	})
}

// ---------- derived values ----------

func TestDerivedValues(t *testing.T) {
	now := time.Date(2023, 8, 15, 12, 0, 0, 0, time.UTC)

	t.Run("claim_age_days", func(t *testing.T) {
		c, _ := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.ClaimReceivedDate = time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)
		}))
		if got := c.ClaimAgeDays(now); got != 14 {
			t.Errorf("expected 14 days, got %d", got)
		}
	})

	t.Run("high_value_above_threshold", func(t *testing.T) {
		c, _ := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.ClaimLines = []ClaimLine{makeLine(t, "10000.01")}
			c.TotalBilledAmount = dec(t, "10000.01")
		}))
		if !c.IsHighValue() {
			t.Error("10000.01 should be high value")
		}
	})

	t.Run("exactly_threshold_not_high_value", func(t *testing.T) {
		c, _ := NewMedicalClaim(makeClaim(t, func(c *MedicalClaim) {
			c.ClaimLines = []ClaimLine{makeLine(t, "10000.00")}
			c.TotalBilledAmount = dec(t, "10000.00")
		}))
		if c.IsHighValue() {
			t.Error("exactly 10000 should not be high value")
		}
	})

	t.Run("has_attachments", func(t *testing.T) {
		c, _ := NewMedicalClaim(makeClaim(t))
		if c.HasAttachments() {
			t.Error("no attachments expected")
		}
		c.Attachments = []string{"ATT001"}
		if !c.HasAttachments() {
			t.Error("expected attachments")
		}
	})
}
