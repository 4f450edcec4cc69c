/**
 * Label matcher - the authoritative extraction path
 *
 * Finds a fragment acting as a field label (e.g. "Дата:") and picks the
 * nearest plausible value fragment by a distance score with positional
 * bias. Results from this path are never overwritten by the regex
 * fallback for the same field.
 */

package extract

import (
	"sort"
	"strings"

	"github.com/docfields/fieldextract-worker/internal/ocr"
)

// Field names form a fixed closed set. Absence of a field in the result is
// expressed as key-not-present, never as an empty value.
const (
	FieldFIO            = "fio"
	FieldDate           = "date"
	FieldSum            = "sum"
	FieldContractNumber = "contract_number"
	FieldAccount        = "account"
	FieldPhone          = "phone"
	FieldEmail          = "email"
	FieldINN            = "inn"
	FieldAddress        = "address"
	FieldPassport       = "passport"
	FieldDocType        = "doc_type"
)

// FieldLabels maps a field name to candidate label strings found on Russian
// business documents. Order only affects which label is reported for a
// match; every label is tried for every field.
var FieldLabels = map[string][]string{
	FieldFIO: {
		"ФИО", "Фамилия", "Имя", "Отчество",
		"Ф.И.О.", "Ф.И.О", "ФИО:", "Фамилия Имя Отчество",
		"Заявитель", "Клиент", "Плательщик", "Получатель",
		"От кого", "Кому", "Гражданин", "Гражданка",
	},
	FieldDate: {
		"Дата", "Дата:", "Дата документа", "Дата выдачи",
		"Дата заполнения", "Дата подписания", "Дата составления",
		"от", "От", "Число", "Когда",
	},
	FieldSum: {
		"Сумма", "Итого", "К оплате", "Всего", "Итог",
		"Сумма:", "Итого:", "Всего к оплате", "Сумма платежа",
		"Сумма договора", "Стоимость", "Цена", "Размер",
	},
	FieldContractNumber: {
		"№ договора", "Номер договора", "№", "Номер",
		"Договор №", "Договор", "Контракт №", "Соглашение №",
		"Счет №", "Счёт №", "Заявка №",
	},
	FieldAccount: {
		"Счет", "Счёт", "Расчетный счет", "Р/с", "Р/счет",
		"Банковский счет", "Лицевой счет", "Л/с", "Номер счета",
	},
	FieldPhone: {
		"Телефон", "Тел.", "Тел:", "Телефон:", "Моб.",
		"Мобильный", "Контактный телефон", "Тел. для связи",
	},
	FieldEmail: {
		"Email", "E-mail", "Электронная почта", "Эл. почта",
		"Почта", "E-mail:", "Email:", "@",
	},
	FieldINN: {
		"ИНН", "ИНН:", "ИНН/КПП", "Инн",
	},
	FieldAddress: {
		"Адрес", "Адрес:", "Адрес регистрации", "Адрес проживания",
		"Место жительства", "Проживает", "Зарегистрирован",
	},
}

// LabelMatch is a successful label-to-value association.
type LabelMatch struct {
	Label    string       // lexicon entry that matched
	Value    string       // text of the chosen value fragment
	Fragment ocr.Fragment // the value fragment itself
}

// normalizeLabel lower-cases and strips colons and surrounding whitespace,
// tolerating OCR punctuation noise around labels.
func normalizeLabel(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), ":", ""))
}

// FindByLabel scans fragments in input order for a label hit, then picks
// the best value fragment within maxDistance of it.
//
// A fragment is a label hit when its normalized text and a normalized
// candidate label contain each other either way - the bidirectional
// substring test is deliberately loose to tolerate OCR noise.
//
// Candidates are scored by priority = distance, multiplied by 0.5 when
// right of the label (if preferRight), by 0.5 when below it (if
// preferBelow), and by 0.3 when on the same line. Multipliers compound.
// The lowest score wins; exact ties keep the earlier fragment.
func FindByLabel(fragments []ocr.Fragment, labels []string, maxDistance float64, preferRight, preferBelow bool) (LabelMatch, bool) {
	normalized := make([]string, len(labels))
	for i, label := range labels {
		normalized[i] = normalizeLabel(label)
	}

	for i, item := range fragments {
		itemText := normalizeLabel(item.Text)
		if itemText == "" {
			continue
		}

		labelIdx := -1
		for j, norm := range normalized {
			if norm == "" {
				continue
			}
			if strings.Contains(itemText, norm) || strings.Contains(norm, itemText) {
				labelIdx = j
				break
			}
		}
		if labelIdx < 0 {
			continue
		}

		type scored struct {
			priority float64
			fragment ocr.Fragment
		}
		var candidates []scored

		for k, other := range fragments {
			if k == i {
				continue
			}

			distance := Distance(item, other)
			if distance > maxDistance {
				continue
			}

			priority := distance
			if preferRight && IsRightOf(item, other, 0) {
				priority *= rightOfMultiplier
			}
			if preferBelow && IsBelowOf(item, other, 0) {
				priority *= belowOfMultiplier
			}
			if IsSameLine(item, other, SameLineThreshold) {
				priority *= sameLineMultiplier
			}

			candidates = append(candidates, scored{priority, other})
		}

		if len(candidates) == 0 {
			continue
		}

		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].priority < candidates[b].priority
		})

		return LabelMatch{
			Label:    labels[labelIdx],
			Value:    candidates[0].fragment.Text,
			Fragment: candidates[0].fragment,
		}, true
	}

	return LabelMatch{}, false
}
