// Package validate holds the per-cell predicates that separate genuine
// service-tariff rows from the look-alikes that show up in supplier sheets:
// place names, phone numbers, national IDs, monetary values, boilerplate.
// The checks short-circuit in a fixed order; reordering them changes which
// rule fires first and therefore the rejection messages downstream.
package validate

import (
	"strings"

	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
	"github.com/consolidador-t25/tarifas-cli/internal/refdata"
	"github.com/consolidador-t25/tarifas-cli/internal/sheet"
)

const maxCodeLen = 15

// ServiceCode validates a raw code cell against the strict ruleset and
// returns the cleaned alphanumeric code on success. rowContext is the full
// row the cell came from; it disambiguates transfer-route rows.
func ServiceCode(raw string, rowContext sheet.Row) (string, bool) {
	token, ok := normalize.CleanCodeToken(raw)
	if !ok {
		return "", false
	}

	cleaned := normalize.Alphanumeric(token)
	if cleaned == "" || len(cleaned) > maxCodeLen {
		return "", false
	}

	norm := normalize.Text(token)

	if refdata.Cities[norm] || refdata.Departments[norm] {
		return "", false
	}

	for _, kw := range refdata.InvalidCodeKeywords {
		if strings.Contains(norm, kw) {
			return "", false
		}
	}

	for _, p := range refdata.InvalidCodePatterns {
		if p.MatchString(norm) {
			return "", false
		}
	}

	digits := normalize.DigitsOnly(cleaned)

	// 7+ digit numerics are IDs, phones or money, not CUPS codes.
	if len(digits) >= 7 {
		return "", false
	}

	if IsColombianMobile(token) {
		return "", false
	}

	// A fully numeric 8-12 char token looks like a national ID.
	if digits == cleaned && len(cleaned) >= 8 && len(cleaned) <= 12 {
		return "", false
	}

	if refdata.NullMarkers[norm] {
		return "", false
	}

	if digits == cleaned && len(cleaned) < 4 {
		return "", false
	}

	if IsTransferRow(rowContext) {
		return "", false
	}

	return cleaned, true
}

// IsColombianMobile reports whether the token is a 10-digit Colombian
// mobile number (digit-cleaned, known three-digit prefix).
func IsColombianMobile(s string) bool {
	digits := normalize.DigitsOnly(s)
	return len(digits) == 10 && refdata.MobilePrefixes[digits[:3]]
}

// Tariff validates a raw tariff cell. An absent tariff is acceptable; a
// phone-shaped value is not; an 8-12 digit numeric is rejected only when
// the same row carries a department name, which marks a department-code
// column misread as tariff rather than a genuinely large amount.
func Tariff(cell sheet.Cell, rowContext sheet.Row) bool {
	if cell.Empty() {
		return true
	}

	raw := cell.String()
	if IsColombianMobile(raw) {
		return false
	}

	digits := normalize.DigitsOnly(raw)
	if digits == strings.TrimSpace(raw) && len(digits) >= 8 && len(digits) <= 12 {
		for _, c := range rowContext {
			if refdata.IsDepartment(c.String()) {
				return false
			}
		}
	}

	return true
}

// IsTransferRow reports whether any of the first 4 cells exactly equals a
// known city name. Transfer/ambulance-leg tables list origin and destination
// cities in early columns and otherwise look like stray service rows.
func IsTransferRow(row sheet.Row) bool {
	for i, c := range row {
		if i >= 4 {
			break
		}
		token, ok := normalize.CleanCodeToken(c.String())
		if !ok {
			continue
		}
		if refdata.Cities[normalize.Text(token)] {
			return true
		}
	}
	return false
}

// IsSiteDataRow reports whether a row belongs to the facility/site block
// rather than the services table. A row qualifies when it carries at least
// two site-shaped signals, or a location token without any code/CUPS token.
func IsSiteDataRow(row sheet.Row) bool {
	signals := 0
	hasPlace := false
	hasCode := false

	for _, c := range row {
		t := normalize.Text(c.String())
		if t == "" {
			continue
		}
		if strings.Contains(t, "HABILITACION") {
			signals++
		}
		if strings.Contains(t, "SEDE") {
			signals++
		}
		if refdata.Departments[t] {
			signals++
			hasPlace = true
		}
		if refdata.Cities[t] {
			signals++
			hasPlace = true
		}
		if refdata.IsAddress(t) {
			signals++
		}
		if strings.Contains(t, "CUPS") || strings.Contains(t, "CODIGO CUPS") {
			hasCode = true
		}
	}

	if signals >= 2 {
		return true
	}
	return hasPlace && !hasCode
}
