/**
 * Document type classifier - keyword scoring over raw text
 *
 * Each known type carries a keyword list; the score is the count of
 * keywords present in the lowercased raw text, plus bonuses from already
 * extracted fields. Ties resolve to the earlier table entry, so the table
 * order is part of the contract.
 */

package extract

import "strings"

// DocTypeUnknown is reported when no keyword or bonus scores at all.
const DocTypeUnknown = "unknown"

type docTypeEntry struct {
	name     string
	keywords []string
}

// docTypeTable fixes both the keyword sets and the tie-break order.
// The акт entry carries only full phrases: the bare word is a substring
// of контракт and would misfire on contracts.
var docTypeTable = []docTypeEntry{
	{"договор", []string{"договор", "контракт", "соглашение"}},
	{"счет", []string{"счет на оплату", "счёт", "invoice"}},
	{"акт", []string{"акт выполненных работ", "акт оказанных услуг", "акт приема-передачи"}},
	{"заявление", []string{"заявление", "заявка", "обращение"}},
	{"доверенность", []string{"доверенность", "доверяю", "уполномочиваю"}},
	{"паспорт", []string{"паспорт", "удостоверение личности"}},
	{"справка", []string{"справка", "выписка", "подтверждение"}},
	{"квитанция", []string{"квитанция", "чек", "оплата"}},
	{"накладная", []string{"накладная", "товарная накладная", "торг-12"}},
}

// DetectDocType classifies raw text into one of the known document types.
// fields is the extraction result so far; certain field combinations add
// score bonuses (INN plus a bank account suggests an invoice, a contract
// number suggests a contract). Strict comparison keeps earlier table
// entries on ties.
func DetectDocType(rawText string, fields map[string]any) string {
	lower := strings.ToLower(rawText)

	bonus := make(map[string]int)
	if _, hasINN := fields[FieldINN]; hasINN {
		if _, hasAccount := fields[FieldAccount]; hasAccount {
			bonus["счет"] += 2
		}
	}
	if _, ok := fields[FieldContractNumber]; ok {
		bonus["договор"]++
	}
	if _, ok := fields[FieldPassport]; ok {
		bonus["паспорт"] += 3
	}

	best := DocTypeUnknown
	bestScore := 0
	for _, entry := range docTypeTable {
		score := bonus[entry.name]
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = entry.name
			bestScore = score
		}
	}

	return best
}
