/**
 * Field normalizers - free text to canonical values
 *
 * Every normalizer is a pure function returning (value, ok). Failures never
 * propagate; a value that does not normalize is simply absent from the
 * result. All patterns are RE2, so matching stays linear-time even on
 * messy OCR text.
 *
 * Note on \b: RE2 word boundaries are ASCII-only, so Cyrillic patterns
 * avoid them; digit patterns keep them.
 */

package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	dateDMYPattern  = regexp.MustCompile(`\b(\d{1,2})[.\-/](\d{1,2})[.\-/](\d{4})\b`)
	dateYMDPattern  = regexp.MustCompile(`\b(\d{4})[.\-/](\d{1,2})[.\-/](\d{1,2})\b`)
	dateTextPattern = regexp.MustCompile(`(?i)(\d{1,2})\s+(января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря)\s+(\d{4})`)

	sumPattern = regexp.MustCompile(`(\d{1,3}(?:[\s\x{00A0}]\d{3})*(?:[.,]\d{1,2})?)\s*(?:руб|рублей|р\.|₽)?`)

	fioPattern          = regexp.MustCompile(`([А-ЯЁ][а-яё]+)\s+([А-ЯЁ][а-яё]+)(?:\s+([А-ЯЁ][а-яё]+))?`)
	cyrillicWordPattern = regexp.MustCompile(`^[А-ЯЁа-яё]+$`)

	phonePattern    = regexp.MustCompile(`(?:\+7|8|7)?[\s\-]?\(?\d{3}\)?[\s\-]?\d{3}[\s\-]?\d{2}[\s\-]?\d{2}`)
	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	innPattern      = regexp.MustCompile(`\b\d{10}\b|\b\d{12}\b`)
	accountPattern  = regexp.MustCompile(`\b\d{20}\b`)
	contractPattern = regexp.MustCompile(`№?\s*(\d+[\-/]?\d*)`)

	groupingSepPattern = regexp.MustCompile(`[\s\x{00A0}]`)
	nonDigitPattern    = regexp.MustCompile(`\D`)
	nonPhonePattern    = regexp.MustCompile(`[^\d+]`)
)

// russianMonths maps genitive month names to month numbers for the
// "DD месяц YYYY" date form.
var russianMonths = map[string]time.Month{
	"января": time.January, "февраля": time.February, "марта": time.March,
	"апреля": time.April, "мая": time.May, "июня": time.June,
	"июля": time.July, "августа": time.August, "сентября": time.September,
	"октября": time.October, "ноября": time.November, "декабря": time.December,
}

// validDate checks the calendar validity of a Y/M/D triple. time.Date
// normalizes overflow (Feb 31 becomes Mar 3), so a round-trip comparison
// catches impossible dates.
func validDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDate converts a date string to ISO YYYY-MM-DD. Formats are tried
// in order: DD.MM.YYYY, YYYY.MM.DD, then "DD <month name> YYYY"; the first
// that matches and names a real calendar date wins.
func NormalizeDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}

	if m := dateDMYPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if t, ok := validDate(year, month, day); ok {
			return t.Format("2006-01-02"), true
		}
	}

	if m := dateYMDPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if t, ok := validDate(year, month, day); ok {
			return t.Format("2006-01-02"), true
		}
	}

	if m := dateTextPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if month, known := russianMonths[strings.ToLower(m[2])]; known {
			if t, ok := validDate(year, int(month), day); ok {
				return t.Format("2006-01-02"), true
			}
		}
	}

	return "", false
}

// NormalizeSum parses a grouped-digit amount ("50 000,50 руб") into a
// float. Grouping separators (space or NBSP) are stripped and a decimal
// comma becomes a dot.
func NormalizeSum(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}

	m := sumPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	number := groupingSepPattern.ReplaceAllString(m[1], "")
	number = strings.ReplaceAll(number, ",", ".")

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// NormalizeFIO extracts a two-or-three word Cyrillic full name. The primary
// pattern wants consecutive capitalized words; when it misses, a looser
// heuristic collects up to three capitalized all-Cyrillic words, accepting
// two or more.
func NormalizeFIO(s string) (string, bool) {
	if s == "" {
		return "", false
	}

	if m := fioPattern.FindStringSubmatch(s); m != nil {
		parts := make([]string, 0, 3)
		for _, part := range m[1:] {
			if part != "" {
				parts = append(parts, part)
			}
		}
		return strings.Join(parts, " "), true
	}

	var words []string
	for _, word := range strings.Fields(s) {
		runes := []rune(word)
		if len(runes) == 0 || !unicode.IsUpper(runes[0]) || !cyrillicWordPattern.MatchString(word) {
			continue
		}
		words = append(words, word)
		if len(words) == 3 {
			break
		}
	}

	if len(words) >= 2 {
		return strings.Join(words, " "), true
	}

	return "", false
}

// NormalizeAccount strips non-digits and accepts exactly 20 digits, the
// fixed length of a Russian bank account number.
func NormalizeAccount(s string) (string, bool) {
	digits := nonDigitPattern.ReplaceAllString(s, "")
	if len(digits) != 20 {
		return "", false
	}
	return digits, true
}

// NormalizeContractNumber extracts the numeric token of a contract number,
// tolerating an optional № prefix and -/ separators.
func NormalizeContractNumber(s string) (string, bool) {
	m := contractPattern.FindStringSubmatch(s)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// NormalizePhone reduces a phone match to digits (keeping a leading +) and
// requires at least 10 of them. Canonical +7 formatting happens in the
// postprocessing stage, not here.
func NormalizePhone(s string) (string, bool) {
	cleaned := nonPhonePattern.ReplaceAllString(s, "")
	digits := strings.TrimPrefix(cleaned, "+")
	if len(digits) < 10 {
		return "", false
	}
	return cleaned, true
}

// NormalizeEmail validates an email-shaped string and lower-cases it.
func NormalizeEmail(s string) (string, bool) {
	m := emailPattern.FindString(s)
	if m == "" {
		return "", false
	}
	return strings.ToLower(m), true
}

// NormalizeINN strips non-digits and accepts the two legal INN lengths.
func NormalizeINN(s string) (string, bool) {
	digits := nonDigitPattern.ReplaceAllString(s, "")
	if len(digits) != 10 && len(digits) != 12 {
		return "", false
	}
	return digits, true
}
