package extract

import (
	"reflect"
	"testing"
)

func TestRegexFallbackSingularAndPlural(t *testing.T) {
	raw := "Аванс 10 000 руб перечислен Ивановым Иваном, итого к оплате 50 000 руб"

	result := RegexFallback(raw)

	sums, ok := result[KeySums].([]float64)
	if !ok || len(sums) != 2 {
		t.Fatalf("sums = %v, want two amounts", result[KeySums])
	}

	// Singular sum is the maximum, not the first hit: partial amounts are
	// quoted before the total on real documents.
	if got := result[FieldSum]; got != 50000.0 {
		t.Errorf("sum = %v, want 50000", got)
	}
}

func TestRegexFallbackDates(t *testing.T) {
	raw := "подписан 15.03.2024, вступает в силу 01.04.2024"

	result := RegexFallback(raw)

	dates, ok := result[KeyDates].([]string)
	if !ok {
		t.Fatalf("dates missing: %v", result)
	}
	want := []string{"2024-03-15", "2024-04-01"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("dates = %v, want %v", dates, want)
	}
	if got := result[FieldDate]; got != "2024-03-15" {
		t.Errorf("date = %v, want first match", got)
	}
}

func TestRegexFallbackContacts(t *testing.T) {
	raw := "Контакты: +7 (903) 123-45-67, ivan.petrov@example.ru, ИНН 7707083893"

	result := RegexFallback(raw)

	if got := result[FieldPhone]; got != "+79031234567" {
		t.Errorf("phone = %v, want +79031234567", got)
	}
	if got := result[FieldEmail]; got != "ivan.petrov@example.ru" {
		t.Errorf("email = %v, want lowered address", got)
	}
	if got := result[FieldINN]; got != "7707083893" {
		t.Errorf("inn = %v, want 7707083893", got)
	}
}

func TestRegexFallbackContractAndAccount(t *testing.T) {
	raw := "Договор № 78/2024 счет 40702810123456789012"

	result := RegexFallback(raw)

	if got := result[FieldContractNumber]; got != "78/2024" {
		t.Errorf("contract_number = %v, want 78/2024", got)
	}
	if got := result[FieldAccount]; got != "40702810123456789012" {
		t.Errorf("account = %v, want the 20-digit number", got)
	}
}

func TestRegexFallbackAbsentKeys(t *testing.T) {
	result := RegexFallback("текст без реквизитов")

	for _, key := range []string{FieldDate, FieldSum, FieldFIO, FieldPhone, FieldEmail, FieldINN, FieldAccount} {
		if _, present := result[key]; present {
			t.Errorf("key %q should be absent, got %v", key, result[key])
		}
	}

	if len(RegexFallback("")) != 0 {
		t.Error("empty text should yield an empty map")
	}
}

func TestRegexFallbackFIO(t *testing.T) {
	raw := "Исполнитель Сидоров Андрей Петрович принял работу"

	result := RegexFallback(raw)

	fios, ok := result[KeyFIOs].([]string)
	if !ok || len(fios) == 0 {
		t.Fatalf("fios missing: %v", result)
	}
	if got := result[FieldFIO]; got != "Исполнитель Сидоров Андрей" {
		// The pattern grabs the first run of capitalized Cyrillic words,
		// label word included; the postprocessing stage cleans this up.
		t.Errorf("fio = %v", got)
	}
}
