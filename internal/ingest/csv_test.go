package ingest

import (
	"strings"
	"testing"
)

func TestParseCSVMapsColumns(t *testing.T) {
	input := strings.Join([]string{
		"id,description,benefit,annual_savings,term_years,resource_type",
		`rec-1,"Purchase Azure Compute Savings Plan for 3 years","Save on compute",5000,3,virtualMachines`,
		`rec-2,"Buy Reserved VM Instance for 3 years",,10000,3,virtualMachines`,
	}, "\n")

	result, err := ParseCSV("src-1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}
	if len(result.RowErrors) != 0 {
		t.Fatalf("rowErrors = %v", result.RowErrors)
	}

	rec := result.Records[0]
	if rec.ID != "rec-1" || rec.SourceRef != "src-1" {
		t.Fatalf("record identity = (%s, %s)", rec.ID, rec.SourceRef)
	}
	if rec.AnnualSavings.String() != "5000" {
		t.Fatalf("annualSavings = %s", rec.AnnualSavings)
	}
	if rec.TermYears == nil || *rec.TermYears != 3 {
		t.Fatalf("termYears = %v", rec.TermYears)
	}
	if rec.ResourceType != "virtualMachines" {
		t.Fatalf("resourceType = %s", rec.ResourceType)
	}
}

func TestParseCSVAcceptsHeaderAliases(t *testing.T) {
	input := strings.Join([]string{
		"ID,Recommendation,Benefits,AnnualSavings,Term,ResourceType",
		`rec-1,"Reserved capacity for SQL","Lower rate",1200.50,1,sqlDatabases`,
	}, "\n")

	result, err := ParseCSV("src-1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}
	rec := result.Records[0]
	if rec.Description != "Reserved capacity for SQL" || rec.Benefit != "Lower rate" {
		t.Fatalf("text = (%q, %q)", rec.Description, rec.Benefit)
	}
	if rec.AnnualSavings.String() != "1200.5" {
		t.Fatalf("annualSavings = %s", rec.AnnualSavings)
	}
	if rec.TermYears == nil || *rec.TermYears != 1 {
		t.Fatalf("termYears = %v", rec.TermYears)
	}
}

func TestParseCSVDegradesMalformedCells(t *testing.T) {
	input := strings.Join([]string{
		"id,description,annual_savings,term_years",
		`rec-1,"Reserved instance",not-a-number,five`,
		`rec-2,"Savings plan",-100,2`,
	}, "\n")

	result, err := ParseCSV("src-1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}
	for _, rec := range result.Records {
		if !rec.AnnualSavings.IsZero() {
			t.Errorf("record %s annualSavings = %s, want 0", rec.ID, rec.AnnualSavings)
		}
		if rec.TermYears != nil {
			t.Errorf("record %s termYears = %d, want nil", rec.ID, *rec.TermYears)
		}
	}
}

func TestParseCSVReportsRowsWithoutID(t *testing.T) {
	input := strings.Join([]string{
		"id,description",
		`,"no id here"`,
		`rec-1,"Reserved instance"`,
	}, "\n")

	result, err := ParseCSV("src-1", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}
	if len(result.RowErrors) != 1 {
		t.Fatalf("rowErrors = %d, want 1", len(result.RowErrors))
	}
	if result.RowErrors[0].Line != 2 || result.RowErrors[0].Reason != "missing id" {
		t.Fatalf("rowError = %+v", result.RowErrors[0])
	}
}

func TestParseCSVRejectsMissingIDColumn(t *testing.T) {
	input := "description,annual_savings\n\"text\",100\n"
	if _, err := ParseCSV("src-1", strings.NewReader(input)); err == nil {
		t.Fatal("expected error for missing id column")
	}
}

func TestParseCSVRejectsEmptyInput(t *testing.T) {
	if _, err := ParseCSV("src-1", strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}
