package extract

import (
	"math"
	"testing"
)

func TestNormalizeDate(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"dotted DMY", "15.03.2024", "2024-03-15", true},
		{"slashed DMY", "15/03/2024", "2024-03-15", true},
		{"dashed DMY", "15-03-2024", "2024-03-15", true},
		{"YMD", "2024/03/15", "2024-03-15", true},
		{"text month", "5 марта 2024", "2024-03-05", true},
		{"text month case insensitive", "5 Марта 2024", "2024-03-05", true},
		{"embedded in sentence", "составлен 15.03.2024 года", "2024-03-15", true},
		{"impossible calendar date", "31.02.2024", "", false},
		{"day zero", "0.03.2024", "", false},
		{"month out of range", "15.13.2024", "", false},
		{"unknown month name", "5 мартобря 2024", "", false},
		{"no date at all", "просто текст", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeDate(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v (got %q)", ok, tc.ok, got)
			}
			if got != tc.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeSum(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"plain digits", "50000", 50000, true},
		{"space grouping", "50 000 руб", 50000, true},
		{"nbsp grouping", "1 250 000", 1250000, true},
		{"decimal comma", "50 000,50 руб", 50000.50, true},
		{"decimal dot", "99.99", 99.99, true},
		{"ruble sign", "1 500 ₽", 1500, true},
		{"no digits", "руб", 0, false},
		{"empty", "", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeSum(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v (got %v)", ok, tc.ok, got)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("NormalizeSum(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeFIO(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"three words", "Иванов Иван Иванович", "Иванов Иван Иванович", true},
		{"two words", "Петров Пётр", "Петров Пётр", true},
		{"with label noise", "Клиент: Петров Пётр", "Петров Пётр", true},
		{"lowercase rejected", "иванов иван", "", false},
		{"single word rejected", "Иванов", "", false},
		{"latin rejected", "Ivanov Ivan", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeFIO(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v (got %q)", ok, tc.ok, got)
			}
			if got != tc.want {
				t.Errorf("NormalizeFIO(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeAccount(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"exact 20 digits", "40702810123456789012", "40702810123456789012", true},
		{"grouped with spaces", "4070 2810 1234 5678 9012", "40702810123456789012", true},
		{"19 digits", "4070281012345678901", "", false},
		{"21 digits", "407028101234567890123", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeAccount(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v (got %q)", ok, tc.ok, got)
			}
			if got != tc.want {
				t.Errorf("NormalizeAccount(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeContractNumber(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"numero sign", "№ 45", "45", true},
		{"slash form", "№ 78/2024", "78/2024", true},
		{"dash form", "123-45", "123-45", true},
		{"bare number", "2024", "2024", true},
		{"no digits", "без номера", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeContractNumber(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v (got %q)", ok, tc.ok, got)
			}
			if got != tc.want {
				t.Errorf("NormalizeContractNumber(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"formatted mobile", "+7 (903) 123-45-67", "+79031234567", true},
		{"domestic prefix", "8 495 123 45 67", "84951234567", true},
		{"bare ten digits", "9031234567", "9031234567", true},
		{"too short", "123-45-67", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizePhone(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v (got %q)", ok, tc.ok, got)
			}
			if got != tc.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"simple", "ivan@example.com", "ivan@example.com", true},
		{"lowercased", "Ivan.Petrov@Example.RU", "ivan.petrov@example.ru", true},
		{"embedded", "почта: ivan@mail.ru, тел.", "ivan@mail.ru", true},
		{"no tld", "ivan@localhost", "", false},
		{"not an email", "просто текст", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeEmail(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v (got %q)", ok, tc.ok, got)
			}
			if got != tc.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeINN(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"legal entity 10 digits", "7707083893", "7707083893", true},
		{"individual 12 digits", "770708389312", "770708389312", true},
		{"with label noise", "ИНН 7707083893", "7707083893", true},
		{"11 digits", "77070838931", "", false},
		{"too short", "12345", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeINN(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v (got %q)", ok, tc.ok, got)
			}
			if got != tc.want {
				t.Errorf("NormalizeINN(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
