package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/consolidador-t25/tarifas-cli/internal/model"
	"github.com/consolidador-t25/tarifas-cli/internal/normalize"
	"github.com/consolidador-t25/tarifas-cli/internal/refdata"
	"github.com/consolidador-t25/tarifas-cli/internal/sheet"
	"github.com/consolidador-t25/tarifas-cli/internal/validate"
)

// registration codes are 5-12 digits before normalization.
const (
	minRegistrationDigits = 5
	maxRegistrationDigits = 12
)

// DefaultSite is the fallback attached when a sheet has no recognizable
// site block, so service rows are never silently dropped.
func DefaultSite() model.Site {
	return model.Site{RegistrationCode: "0000000000", SiteNumber: "1"}
}

// registrationDigits digit-cleans a cell and reports whether it is shaped
// like a facility registration code.
func registrationDigits(raw string) (string, bool) {
	token, ok := normalize.CleanCodeToken(raw)
	if !ok {
		return "", false
	}
	digits := normalize.DigitsOnly(token)
	if len(digits) < minRegistrationDigits || len(digits) > maxRegistrationDigits {
		return "", false
	}
	return digits, true
}

// locateSiteColumns finds the registration-code and site-number columns
// within a site-section header row. When no explicit site column exists the
// column to the right of the registration code is assumed.
func locateSiteColumns(header sheet.Row) (idxReg, idxSite int) {
	idxReg, idxSite = -1, -1
	for j, c := range header {
		t := normalize.Text(c.String())
		if t == "" {
			continue
		}
		// "HABIITACION" is a recurring supplier typo.
		if idxReg < 0 && (strings.Contains(t, "HABILITACION") || strings.Contains(t, "HABIITACION")) {
			idxReg = j
		}
		if idxSite < 0 && (strings.Contains(t, "NUMERO DE SEDE") || strings.Contains(t, "N SEDE") ||
			strings.Contains(t, "N° SEDE") || strings.Contains(t, "NO SEDE") || t == "SEDE") {
			idxSite = j
		}
	}
	if idxSite < 0 && idxReg >= 0 {
		idxSite = idxReg + 1
	}
	return idxReg, idxSite
}

// extractSiteBlock scans rows starting at start for site data, stopping at
// the next site or services header, at a first cell that is neither place
// nor address, or at maxSites. Only rows that read as site data contribute
// a registration code. Returns the sites and the index of the first row
// not consumed.
func extractSiteBlock(grid [][]sheet.Cell, start, idxReg, idxSite, maxSites int) ([]model.Site, int) {
	var sites []model.Site
	k := start

	for k < len(grid) && len(sites) < maxSites {
		row := grid[k]
		if sheet.Blank(row) {
			k++
			continue
		}

		if IsSiteSectionHeader(row) || IsServicesHeader(row) {
			break
		}

		if validate.IsSiteDataRow(row) && idxReg >= 0 && idxReg < len(row) {
			if digits, ok := registrationDigits(row[idxReg].String()); ok {
				siteNum := strconv.Itoa(len(sites) + 1)
				if idxSite >= 0 && idxSite < len(row) && !row[idxSite].Empty() {
					siteNum = row[idxSite].String()
				}
				sites = append(sites, model.Site{RegistrationCode: digits, SiteNumber: siteNum})
				k++
				continue
			}
		}

		// A non-site, non-address, non-place first cell ends the block.
		if first := strings.TrimSpace(row[0].String()); first != "" {
			if !refdata.IsPlaceName(first) && !refdata.IsAddress(first) {
				break
			}
		}

		k++
	}

	return sites, k
}

// NormalizeRegistrationCode renders a facility registration code and site
// ordinal in the canonical "<10-digit-code>-<2-digit-site>" form. A site
// value that duplicates the code digits, or runs past 5 digits, is a
// copy/paste artifact and defaults to site 1.
func NormalizeRegistrationCode(code, site string) string {
	token, _ := normalize.CleanCodeToken(code)
	digits := normalize.DigitsOnly(token)
	if digits == "" {
		return ""
	}

	siteNum := 1
	if site != "" {
		siteToken, _ := normalize.CleanCodeToken(site)
		siteDigits := normalize.DigitsOnly(siteToken)
		switch {
		case siteDigits == "", siteDigits == digits, len(siteDigits) > 5:
			siteNum = 1
		default:
			if n, err := strconv.Atoi(siteDigits); err == nil && n > 0 {
				siteNum = n
			}
		}
	}

	if len(digits) < 10 {
		digits = strings.Repeat("0", 10-len(digits)) + digits
	}
	return fmt.Sprintf("%s-%02d", digits, siteNum)
}
