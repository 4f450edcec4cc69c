/**
 * Rules-based postprocessing - cleanup, gap filling and business rules
 *
 * Runs after the extraction engine on its flat field map. Three stages:
 * validate and canonicalize each field, recover address and contract
 * numbers from raw text when the spatial pass missed them, then apply
 * business rules and attach extraction metadata.
 */

package postprocess

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/docfields/fieldextract-worker/internal/extract"
)

var (
	strictEmailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	isoDatePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	nonDigitPattern    = regexp.MustCompile(`\D`)
	nonPhonePattern    = regexp.MustCompile(`[^\d+]`)
	nonAmountPattern   = regexp.MustCompile(`[^\d.,]`)
)

// addressKeywords anchor free-form address extraction; the captured value
// runs to the end of the comma-separated clause.
var addressKeywords = []string{"адрес", "проживает", "зарегистрирован", "местонахождение"}

var addressPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(addressKeywords))
	for i, kw := range addressKeywords {
		patterns[i] = regexp.MustCompile(`(?i)` + kw + `[:\s]+([^,\n]+(?:,[^,\n]+)*)`)
	}
	return patterns
}()

var contractNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`№\s*(\d+(?:[-/]\d+)*)`),
	regexp.MustCompile(`(?i)номер[:\s]+(\d+(?:[-/]\d+)*)`),
	regexp.MustCompile(`(?i)договор[:\s]+№?\s*(\d+(?:[-/]\d+)*)`),
}

// docTypeAliases folds classifier output and noisy variants into canonical
// document types.
var docTypeAliases = []struct {
	canonical string
	variants  []string
}{
	{"договор", []string{"договор", "контракт", "соглашение"}},
	{"счет", []string{"счет", "счёт", "invoice", "фактура"}},
	{"заявление", []string{"заявление", "заявка", "обращение"}},
	{"справка", []string{"справка", "выписка", "подтверждение"}},
}

// importantFields drive the base term of the extraction confidence score.
var importantFields = []string{
	extract.FieldFIO, extract.FieldDate, extract.FieldSum,
	extract.FieldPhone, extract.FieldEmail,
}

// Process runs the full postprocessing chain over extracted fields.
// The input map is not mutated.
func Process(fields map[string]any, rawText string) map[string]any {
	result := CleanAndValidate(fields)
	result = ExtractMissingFields(result, rawText)
	result = ApplyBusinessRules(result)
	return result
}

// CleanAndValidate re-validates each field value and canonicalizes its
// form. Values that fail validation are dropped rather than kept raw.
func CleanAndValidate(fields map[string]any) map[string]any {
	cleaned := make(map[string]any, len(fields))

	for field, value := range fields {
		if value == nil || value == "" {
			continue
		}

		switch field {
		case extract.FieldFIO:
			if s, ok := value.(string); ok {
				if fio, valid := cleanFIO(s); valid {
					cleaned[field] = fio
				}
			}
		case extract.FieldPhone:
			if s, ok := value.(string); ok {
				if phone, valid := canonicalPhone(s); valid {
					cleaned[field] = phone
				}
			}
		case extract.FieldEmail:
			if s, ok := value.(string); ok && strictEmailPattern.MatchString(s) {
				cleaned[field] = strings.ToLower(s)
			}
		case extract.FieldINN:
			if s, ok := value.(string); ok {
				digits := nonDigitPattern.ReplaceAllString(s, "")
				if len(digits) == 10 || len(digits) == 12 {
					cleaned[field] = digits
				}
			}
		case extract.FieldDate:
			if s, ok := value.(string); ok {
				if date, valid := canonicalDate(s); valid {
					cleaned[field] = date
				}
			}
		case extract.FieldSum:
			if amount, valid := canonicalSum(value); valid {
				cleaned[field] = amount
			}
		default:
			cleaned[field] = value
		}
	}

	return cleaned
}

// ExtractMissingFields recovers address and contract_number from the raw
// text when the extraction pass left them absent.
func ExtractMissingFields(fields map[string]any, rawText string) map[string]any {
	result := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		result[k] = v
	}

	if _, ok := result[extract.FieldAddress]; !ok {
		for _, pattern := range addressPatterns {
			if m := pattern.FindStringSubmatch(rawText); m != nil {
				result[extract.FieldAddress] = strings.TrimSpace(m[1])
				break
			}
		}
	}

	if _, ok := result[extract.FieldContractNumber]; !ok {
		for _, pattern := range contractNumberPatterns {
			if m := pattern.FindStringSubmatch(rawText); m != nil {
				result[extract.FieldContractNumber] = m[1]
				break
			}
		}
	}

	return result
}

// ApplyBusinessRules derives fields from field combinations and attaches
// extraction metadata (confidence score, field count).
func ApplyBusinessRules(fields map[string]any) map[string]any {
	result := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		result[k] = v
	}

	// INN together with a bank account marks a commercial document when
	// the classifier had nothing better.
	if hasValue(result, extract.FieldINN) && hasValue(result, extract.FieldAccount) {
		if dt, ok := result[extract.FieldDocType].(string); !ok || dt == "" || dt == extract.DocTypeUnknown {
			result[extract.FieldDocType] = "коммерческий_документ"
		}
	}

	if sum, ok := result[extract.FieldSum].(float64); ok {
		if sum > 1000 {
			result["currency"] = "RUB"
		}
		result["sum_formatted"] = formatAmount(sum) + " ₽"
	}

	if dt, ok := result[extract.FieldDocType].(string); ok {
		lower := strings.ToLower(dt)
		for _, alias := range docTypeAliases {
			matched := false
			for _, variant := range alias.variants {
				if strings.Contains(lower, variant) {
					matched = true
					break
				}
			}
			if matched {
				result[extract.FieldDocType] = alias.canonical
				break
			}
		}
	}

	result["extraction_confidence"] = extractionConfidence(result)
	result["fields_extracted"] = countExtracted(result)

	return result
}

// cleanFIO keeps alphabetic words, capitalizes each, and requires at least
// a surname and a given name.
func cleanFIO(s string) (string, bool) {
	var words []string
	for _, word := range strings.Fields(s) {
		if !isAlpha(word) {
			continue
		}
		words = append(words, capitalize(word))
	}
	if len(words) < 2 {
		return "", false
	}
	return strings.Join(words, " "), true
}

// canonicalPhone reduces a phone to +7XXXXXXXXXX form. Russian numbers
// start with 8 or 7 domestically; bare 10-digit numbers get the +7 prefix.
func canonicalPhone(s string) (string, bool) {
	phone := nonPhonePattern.ReplaceAllString(s, "")
	if len(strings.TrimPrefix(phone, "+")) < 10 {
		return "", false
	}
	switch {
	case strings.HasPrefix(phone, "8"):
		phone = "+7" + phone[1:]
	case strings.HasPrefix(phone, "7"):
		phone = "+" + phone
	case !strings.HasPrefix(phone, "+"):
		phone = "+7" + phone
	}
	return phone, true
}

// canonicalDate accepts ISO dates as-is and converts a handful of common
// alternate formats.
func canonicalDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if isoDatePattern.MatchString(s) {
		if _, err := time.Parse("2006-01-02", s); err == nil {
			return s, true
		}
		return "", false
	}

	formats := []string{
		"02.01.2006", "02/01/2006", "02-01-2006",
		"02.01.06", "02/01/06", "06-01-02",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// canonicalSum accepts numeric or numeric-string sums and requires a
// positive amount.
func canonicalSum(value any) (float64, bool) {
	var amount float64
	switch v := value.(type) {
	case float64:
		amount = v
	case int:
		amount = float64(v)
	case string:
		cleaned := nonAmountPattern.ReplaceAllString(v, "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		amount = parsed
	default:
		return 0, false
	}
	if amount <= 0 {
		return 0, false
	}
	return amount, true
}

// extractionConfidence scores how complete the extraction looks: up to 0.7
// from the five important fields, up to 0.3 from overall field count.
func extractionConfidence(fields map[string]any) float64 {
	found := 0
	for _, field := range importantFields {
		if hasValue(fields, field) {
			found++
		}
	}

	total := countExtracted(fields)

	confidence := float64(found) / float64(len(importantFields)) * 0.7
	confidence += minFloat(float64(total)/10.0, 0.3)
	return minFloat(confidence, 1.0)
}

// countExtracted counts fields carrying a non-empty value. Keys with a
// leading underscore are internal markers and excluded.
func countExtracted(fields map[string]any) int {
	count := 0
	for key, value := range fields {
		if strings.HasPrefix(key, "_") {
			continue
		}
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
		case float64:
			if v == 0 {
				continue
			}
		case int:
			if v == 0 {
				continue
			}
		case bool:
			if !v {
				continue
			}
		}
		count++
	}
	return count
}

func hasValue(fields map[string]any, key string) bool {
	v, ok := fields[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}

// formatAmount renders an amount with comma thousands grouping and two
// decimals ("50,000.00").
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s[:dot], s[dot:]

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
