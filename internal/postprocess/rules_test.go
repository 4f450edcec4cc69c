package postprocess

import (
	"math"
	"testing"

	"github.com/docfields/fieldextract-worker/internal/extract"
)

func TestCleanAndValidatePhone(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		kept  bool
	}{
		{"domestic 8 prefix", "8 (495) 123-45-67", "+74951234567", true},
		{"country code 7", "79031234567", "+79031234567", true},
		{"already canonical", "+79031234567", "+79031234567", true},
		{"bare ten digits", "9031234567", "+79031234567", true},
		{"too short dropped", "123-45-67", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleaned := CleanAndValidate(map[string]any{extract.FieldPhone: tc.input})
			got, present := cleaned[extract.FieldPhone]
			if present != tc.kept {
				t.Fatalf("kept = %v, want %v (got %v)", present, tc.kept, got)
			}
			if tc.kept && got != tc.want {
				t.Errorf("phone = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCleanAndValidateFIO(t *testing.T) {
	cleaned := CleanAndValidate(map[string]any{extract.FieldFIO: "иВАНОВ иван 123 иванович"})

	if got := cleaned[extract.FieldFIO]; got != "Иванов Иван Иванович" {
		t.Errorf("fio = %v, want capitalized words without digits", got)
	}

	cleaned = CleanAndValidate(map[string]any{extract.FieldFIO: "Иванов"})
	if _, present := cleaned[extract.FieldFIO]; present {
		t.Error("single-word name should be dropped")
	}
}

func TestCleanAndValidateDate(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		kept  bool
	}{
		{"iso passes through", "2024-03-15", "2024-03-15", true},
		{"dotted converted", "15.03.2024", "2024-03-15", true},
		{"short year", "15.03.24", "2024-03-15", true},
		{"impossible iso dropped", "2024-02-31", "", false},
		{"garbage dropped", "вчера", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleaned := CleanAndValidate(map[string]any{extract.FieldDate: tc.input})
			got, present := cleaned[extract.FieldDate]
			if present != tc.kept {
				t.Fatalf("kept = %v, want %v (got %v)", present, tc.kept, got)
			}
			if tc.kept && got != tc.want {
				t.Errorf("date = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCleanAndValidateSum(t *testing.T) {
	testCases := []struct {
		name  string
		input any
		want  float64
		kept  bool
	}{
		{"float", 50000.5, 50000.5, true},
		{"int", 1200, 1200, true},
		{"grouped string", "50 000,50", 50000.5, true},
		{"zero dropped", 0.0, 0, false},
		{"negative dropped", -15.0, 0, false},
		{"garbage dropped", "много", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleaned := CleanAndValidate(map[string]any{extract.FieldSum: tc.input})
			got, present := cleaned[extract.FieldSum]
			if present != tc.kept {
				t.Fatalf("kept = %v, want %v (got %v)", present, tc.kept, got)
			}
			if tc.kept {
				if math.Abs(got.(float64)-tc.want) > 1e-9 {
					t.Errorf("sum = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestCleanAndValidateEmailAndINN(t *testing.T) {
	cleaned := CleanAndValidate(map[string]any{
		extract.FieldEmail: "Ivan.Petrov@Example.RU",
		extract.FieldINN:   "ИНН 7707083893",
	})

	if got := cleaned[extract.FieldEmail]; got != "ivan.petrov@example.ru" {
		t.Errorf("email = %v, want lowered", got)
	}
	if got := cleaned[extract.FieldINN]; got != "7707083893" {
		t.Errorf("inn = %v, want digits only", got)
	}

	cleaned = CleanAndValidate(map[string]any{
		extract.FieldEmail: "not an email",
		extract.FieldINN:   "12345",
	})
	if _, present := cleaned[extract.FieldEmail]; present {
		t.Error("invalid email should be dropped")
	}
	if _, present := cleaned[extract.FieldINN]; present {
		t.Error("invalid inn should be dropped")
	}
}

func TestExtractMissingFields(t *testing.T) {
	raw := "Зарегистрирован: г. Москва, ул. Ленина, д. 5. Договор № 78/2024"

	result := ExtractMissingFields(map[string]any{}, raw)

	if got := result[extract.FieldAddress]; got != "г. Москва, ул. Ленина, д. 5. Договор № 78/2024" {
		t.Errorf("address = %v", got)
	}
	if got := result[extract.FieldContractNumber]; got != "78/2024" {
		t.Errorf("contract_number = %v, want 78/2024", got)
	}
}

func TestExtractMissingFieldsKeepsExisting(t *testing.T) {
	fields := map[string]any{
		extract.FieldAddress:        "уже найден",
		extract.FieldContractNumber: "1",
	}
	raw := "Адрес: другой адрес. Договор № 999"

	result := ExtractMissingFields(fields, raw)

	if got := result[extract.FieldAddress]; got != "уже найден" {
		t.Errorf("address overwritten: %v", got)
	}
	if got := result[extract.FieldContractNumber]; got != "1" {
		t.Errorf("contract_number overwritten: %v", got)
	}
}

func TestApplyBusinessRules(t *testing.T) {
	t.Run("commercial document from inn and account", func(t *testing.T) {
		fields := map[string]any{
			extract.FieldINN:     "7707083893",
			extract.FieldAccount: "40702810123456789012",
			extract.FieldDocType: extract.DocTypeUnknown,
		}
		result := ApplyBusinessRules(fields)
		if got := result[extract.FieldDocType]; got != "коммерческий_документ" {
			t.Errorf("doc_type = %v, want коммерческий_документ", got)
		}
	})

	t.Run("classifier verdict is kept", func(t *testing.T) {
		fields := map[string]any{
			extract.FieldINN:     "7707083893",
			extract.FieldAccount: "40702810123456789012",
			extract.FieldDocType: "счет",
		}
		result := ApplyBusinessRules(fields)
		if got := result[extract.FieldDocType]; got != "счет" {
			t.Errorf("doc_type = %v, want счет", got)
		}
	})

	t.Run("currency attached above threshold", func(t *testing.T) {
		result := ApplyBusinessRules(map[string]any{extract.FieldSum: 50000.0})
		if got := result["currency"]; got != "RUB" {
			t.Errorf("currency = %v, want RUB", got)
		}
		if got := result["sum_formatted"]; got != "50,000.00 ₽" {
			t.Errorf("sum_formatted = %v, want 50,000.00 ₽", got)
		}
	})

	t.Run("small sums formatted without currency", func(t *testing.T) {
		result := ApplyBusinessRules(map[string]any{extract.FieldSum: 500.0})
		if _, present := result["currency"]; present {
			t.Error("currency should not be attached for sums at or below 1000")
		}
		if got := result["sum_formatted"]; got != "500.00 ₽" {
			t.Errorf("sum_formatted = %v, want 500.00 ₽", got)
		}
	})

	t.Run("doc type alias folding", func(t *testing.T) {
		result := ApplyBusinessRules(map[string]any{extract.FieldDocType: "контракт"})
		if got := result[extract.FieldDocType]; got != "договор" {
			t.Errorf("doc_type = %v, want договор", got)
		}
	})
}

func TestProcessEndToEnd(t *testing.T) {
	fields := map[string]any{
		extract.FieldFIO:   "иванов иван",
		extract.FieldDate:  "15.03.2024",
		extract.FieldSum:   5000.0,
		extract.FieldPhone: "8 (903) 123-45-67",
		extract.FieldEmail: "Ivan@Example.RU",
	}

	result := Process(fields, "")

	if got := result[extract.FieldFIO]; got != "Иванов Иван" {
		t.Errorf("fio = %v", got)
	}
	if got := result[extract.FieldDate]; got != "2024-03-15" {
		t.Errorf("date = %v", got)
	}
	if got := result[extract.FieldPhone]; got != "+79031234567" {
		t.Errorf("phone = %v", got)
	}
	if got := result[extract.FieldEmail]; got != "ivan@example.ru" {
		t.Errorf("email = %v", got)
	}

	// All five important fields present: base 0.7 plus the count term
	// capped at 0.3 gives the maximum score.
	if got := result["extraction_confidence"]; got != 1.0 {
		t.Errorf("extraction_confidence = %v, want 1.0", got)
	}

	// Input map is not mutated.
	if fields[extract.FieldPhone] != "8 (903) 123-45-67" {
		t.Error("input map was mutated")
	}
}

func TestProcessEmptyFields(t *testing.T) {
	result := Process(map[string]any{}, "")

	if got := result["extraction_confidence"]; got != 0.0 {
		t.Errorf("extraction_confidence = %v, want 0", got)
	}
	if got := result["fields_extracted"]; got != 0 {
		t.Errorf("fields_extracted = %v, want 0", got)
	}
}

func TestCountExtractedSkipsInternalKeys(t *testing.T) {
	fields := map[string]any{
		"fio":      "Иванов Иван",
		"_debug":   "trace",
		"empty":    "",
		"zero":     0.0,
		"flag_off": false,
		"sum":      100.0,
	}

	if got := countExtracted(fields); got != 2 {
		t.Errorf("countExtracted = %d, want 2", got)
	}
}

func TestFormatAmount(t *testing.T) {
	testCases := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999, "999.00"},
		{1000, "1,000.00"},
		{50000.5, "50,000.50"},
		{1234567.89, "1,234,567.89"},
		{-1234, "-1,234.00"},
	}

	for _, tc := range testCases {
		if got := formatAmount(tc.in); got != tc.want {
			t.Errorf("formatAmount(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
