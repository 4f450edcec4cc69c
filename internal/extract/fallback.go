/**
 * Regex fallback - full-text scan for fields the spatial pass missed
 *
 * Runs every field pattern over the joined raw text, normalizes each hit,
 * and reports both the full lists (plural keys) and a representative
 * singular per field. Singulars take the first valid match, except sum,
 * which takes the maximum: documents quote partial amounts and the total
 * is the one that matters.
 */

package extract

// Plural list keys produced by RegexFallback.
const (
	KeyDates           = "dates"
	KeySums            = "sums"
	KeyFIOs            = "fios"
	KeyPhones          = "phones"
	KeyEmails          = "emails"
	KeyINNs            = "inns"
	KeyContractNumbers = "contract_numbers"
	KeyAccounts        = "accounts"
)

// RegexFallback scans rawText with all field patterns. The result maps
// plural keys to []string (or []float64 for sums) and singular field names
// to representative values. Keys with no matches are absent.
func RegexFallback(rawText string) map[string]any {
	result := make(map[string]any)
	if rawText == "" {
		return result
	}

	var dates []string
	for _, m := range dateDMYPattern.FindAllString(rawText, -1) {
		if v, ok := NormalizeDate(m); ok {
			dates = append(dates, v)
		}
	}
	for _, m := range dateYMDPattern.FindAllString(rawText, -1) {
		if v, ok := NormalizeDate(m); ok {
			dates = append(dates, v)
		}
	}
	for _, m := range dateTextPattern.FindAllString(rawText, -1) {
		if v, ok := NormalizeDate(m); ok {
			dates = append(dates, v)
		}
	}
	if len(dates) > 0 {
		result[KeyDates] = dates
		result[FieldDate] = dates[0]
	}

	var sums []float64
	for _, m := range sumPattern.FindAllString(rawText, -1) {
		if v, ok := NormalizeSum(m); ok {
			sums = append(sums, v)
		}
	}
	if len(sums) > 0 {
		maxSum := sums[0]
		for _, v := range sums[1:] {
			if v > maxSum {
				maxSum = v
			}
		}
		result[KeySums] = sums
		result[FieldSum] = maxSum
	}

	var fios []string
	for _, m := range fioPattern.FindAllString(rawText, -1) {
		if v, ok := NormalizeFIO(m); ok {
			fios = append(fios, v)
		}
	}
	if len(fios) > 0 {
		result[KeyFIOs] = fios
		result[FieldFIO] = fios[0]
	}

	var phones []string
	for _, m := range phonePattern.FindAllString(rawText, -1) {
		if v, ok := NormalizePhone(m); ok {
			phones = append(phones, v)
		}
	}
	if len(phones) > 0 {
		result[KeyPhones] = phones
		result[FieldPhone] = phones[0]
	}

	var emails []string
	for _, m := range emailPattern.FindAllString(rawText, -1) {
		if v, ok := NormalizeEmail(m); ok {
			emails = append(emails, v)
		}
	}
	if len(emails) > 0 {
		result[KeyEmails] = emails
		result[FieldEmail] = emails[0]
	}

	var inns []string
	for _, m := range innPattern.FindAllString(rawText, -1) {
		if v, ok := NormalizeINN(m); ok {
			inns = append(inns, v)
		}
	}
	if len(inns) > 0 {
		result[KeyINNs] = inns
		result[FieldINN] = inns[0]
	}

	var contracts []string
	for _, m := range contractPattern.FindAllStringSubmatch(rawText, -1) {
		if m[1] != "" {
			contracts = append(contracts, m[1])
		}
	}
	if len(contracts) > 0 {
		result[KeyContractNumbers] = contracts
		result[FieldContractNumber] = contracts[0]
	}

	var accounts []string
	for _, m := range accountPattern.FindAllString(rawText, -1) {
		if v, ok := NormalizeAccount(m); ok {
			accounts = append(accounts, v)
		}
	}
	if len(accounts) > 0 {
		result[KeyAccounts] = accounts
		result[FieldAccount] = accounts[0]
	}

	return result
}
