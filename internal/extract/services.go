package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// serviceSectionStart marks lines that open the billable-items section.
var serviceSectionStart = []*regexp.Regexp{
	regexp.MustCompile(`(?i)description`),
	regexp.MustCompile(`(?i)item`),
	regexp.MustCompile(`(?i)service`),
	regexp.MustCompile(`(?i)product`),
	regexp.MustCompile(`(?i)work\s+performed`),
}

// serviceSectionEnd marks lines that close it.
var serviceSectionEnd = []*regexp.Regexp{
	regexp.MustCompile(`(?i)subtotal`),
	regexp.MustCompile(`(?i)total`),
	regexp.MustCompile(`(?i)balance`),
	regexp.MustCompile(`(?i)amount\s+due`),
	regexp.MustCompile(`(?i)payment\s+terms`),
	regexp.MustCompile(`(?i)thank\s+you`),
}

// servicePricePatterns in priority order: currency-prefixed,
// currency-suffixed, bare decimal.
var servicePricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[£$€]\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`(\d+(?:\.\d{2})?)\s*[£$€]`),
	regexp.MustCompile(`(\d+(?:\.\d{2})?)`),
}

// serviceExcludePatterns reject descriptions that are really addresses,
// contact details, or financial headers.
var serviceExcludePatterns = []*regexp.Regexp{
	// Address fragments
	regexp.MustCompile(`(?i)\b\d+\s+[A-Za-z\s]+(?:road|street|avenue|lane|way)\b`),
	regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d{1,2}[A-Z]?\s?\d[A-Z]{2}\b`),
	regexp.MustCompile(`(?i)\bLondon\b`),
	// Contact information
	regexp.MustCompile(`\b07\d{9}\b`),
	regexp.MustCompile(`\b\d{5}\s?\d{6}\b`),
	regexp.MustCompile(`\S+@\S+\.\S+`),
	// Common non-service text
	regexp.MustCompile(`(?i)invoice\s+\d+`),
	regexp.MustCompile(`(?i)date`),
	regexp.MustCompile(`(?i)number`),
	regexp.MustCompile(`(?i)payment`),
	regexp.MustCompile(`(?i)due`),
	regexp.MustCompile(`(?i)total`),
	regexp.MustCompile(`(?i)amount`),
	regexp.MustCompile(`(?i)utr`),
	regexp.MustCompile(`(?i)account`),
	regexp.MustCompile(`(?i)bank`),
	regexp.MustCompile(`(?i)sort`),
	regexp.MustCompile(`(?i)code`),
	regexp.MustCompile(`(?i)iban`),
	regexp.MustCompile(`(?i)swift`),
}

// servicePositivePatterns recognize lines that look like real services:
// music/event vocabulary, known venue names, or a date-plus-event prefix.
var servicePositivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:gig|performance|recording|session|piano|quartet|trio|music|band|choir|concert|event|solo)\b`),
	regexp.MustCompile(`(?i)\b(?:park chinois|sky garden|quaglinos|wardour|peninsula|maison|estelle)\b`),
	regexp.MustCompile(`(?i)\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\s+.*(?:gig|performance|piano|quartet|trio|band|choir)`),
}

var (
	currencyAmountRE = regexp.MustCompile(`[£$€]\s*\d+(?:\.\d{2})?`)
	invoiceOnlyRE    = regexp.MustCompile(`(?i)^INVOICE\s+\d+$`)
	totalsLineRE     = regexp.MustCompile(`(?i)total|subtotal|balance|amount\s+due`)

	yearPriceRE     = regexp.MustCompile(`^\d{4}$`)
	smallDecimalRE  = regexp.MustCompile(`^\d{1,2}\.\d{2}$`)
	twoDigitPriceRE = regexp.MustCompile(`^\d{2}\.\d{2}$`)
	anyDecimalRE    = regexp.MustCompile(`\d{1,2}\.\d{2}`)
	dateFragmentRE  = regexp.MustCompile(`\d{2}\.\d{2}(?:\.\d{2})?`)
	dottedDateRE    = regexp.MustCompile(`\d{2}[.-]\d{2}[.-]\d{2}`)
	slashedDateRE   = regexp.MustCompile(`\d{2}/\d{2}/\d{2}`)
	leadingDottedRE = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}`)
	leadingDashedRE = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}\s*-`)
)

// Bounds of the plausible price range, in currency units. Prices outside are
// discarded during extraction, never stored.
const (
	minServicePrice = 10
	maxServicePrice = 2000
)

// ExtractServices returns the invoice's billable line items in document
// order, deduplicated by name. Pass 1 walks the tracked service section;
// pass 2 runs only when pass 1 finds nothing and requires a positive service
// pattern unconditionally, which keeps address and contact lines from being
// misread as services when no section headers exist.
func (e *Extractor) ExtractServices(text string) []Service {
	lines := splitLines(text)
	seen := make(map[string]bool)
	var services []Service

	inSection := false
	for i, line := range lines {
		if !inSection {
			for _, ind := range serviceSectionStart {
				if ind.MatchString(line) {
					inSection = true
					break
				}
			}
			// The header line itself holds no item.
			if inSection {
				continue
			}
		}
		if !inSection {
			continue
		}

		for _, ind := range serviceSectionEnd {
			if ind.MatchString(line) {
				inSection = false
				break
			}
		}
		if !inSection {
			continue
		}

		price, start := findServicePrice(line)
		if price == "" {
			continue
		}

		desc := strings.TrimSpace(line[:start])
		if desc == "" && i > 0 {
			desc = lines[i-1]
		}
		desc = strings.TrimSpace(currencyAmountRE.ReplaceAllString(desc, ""))

		if !e.validServiceDesc(desc, price) {
			continue
		}
		if desc == "" || seen[desc] {
			continue
		}
		if v, err := strconv.ParseFloat(price, 64); err == nil && v >= minServicePrice && v <= maxServicePrice {
			services = append(services, Service{Name: desc, Price: "£" + price})
			seen[desc] = true
		}
	}

	if len(services) == 0 {
		services = e.extractServicesFallback(lines, seen)
	}

	return services
}

// extractServicesFallback scans every line regardless of section state.
// Section membership is unavailable as justification here, so a positive
// service-pattern match is mandatory, and total-like lines are rejected
// outright.
func (e *Extractor) extractServicesFallback(lines []string, seen map[string]bool) []Service {
	var services []Service

	for _, line := range lines {
		price, _ := findServicePrice(line)
		if price == "" {
			continue
		}

		desc := strings.TrimSpace(currencyAmountRE.ReplaceAllString(line, ""))

		if matchesAny(serviceExcludePatterns, desc) {
			continue
		}
		if invoiceOnlyRE.MatchString(desc) {
			continue
		}
		if len(desc) < 5 || len(strings.Fields(desc)) > 10 {
			continue
		}
		if yearPriceRE.MatchString(price) {
			continue
		}
		if e.containsOwnerDetails(desc) {
			continue
		}
		if !matchesAny(servicePositivePatterns, desc) {
			continue
		}
		if desc == "" || len(desc) <= 3 || seen[desc] {
			continue
		}
		if totalsLineRE.MatchString(desc) {
			continue
		}
		if v, err := strconv.ParseFloat(price, 64); err == nil && v >= minServicePrice && v <= maxServicePrice {
			services = append(services, Service{Name: desc, Price: "£" + price})
			seen[desc] = true
		}
	}

	return services
}

// findServicePrice returns the first price value on the line and the offset
// where the match begins, trying the price patterns in priority order.
func findServicePrice(line string) (string, int) {
	for _, re := range servicePricePatterns {
		if loc := re.FindStringSubmatchIndex(line); loc != nil {
			return line[loc[2]:loc[3]], loc[0]
		}
	}
	return "", 0
}

// validServiceDesc applies pass-1 rejection rules to a candidate description.
func (e *Extractor) validServiceDesc(desc, price string) bool {
	if matchesAny(serviceExcludePatterns, desc) {
		return false
	}
	if invoiceOnlyRE.MatchString(desc) {
		return false
	}
	if len(desc) < 5 || len(strings.Fields(desc)) > 10 {
		return false
	}
	if priceLooksLikeDate(price, desc) {
		return false
	}
	if e.containsOwnerDetails(desc) {
		return false
	}
	return true
}

// priceLooksLikeDate distinguishes genuine prices from date fragments such as
// DD.MM.YY that a bare-decimal pattern can misread as currency.
func priceLooksLikeDate(price, desc string) bool {
	if yearPriceRE.MatchString(price) {
		return true
	}
	if smallDecimalRE.MatchString(price) {
		if v, err := strconv.ParseFloat(price, 64); err == nil && v < 100 {
			return true
		}
		if anyDecimalRE.MatchString(desc) {
			return true
		}
	}
	if twoDigitPriceRE.MatchString(price) {
		if dateFragmentRE.MatchString(desc) {
			return true
		}
		if dottedDateRE.MatchString(desc) || slashedDateRE.MatchString(desc) {
			return true
		}
		if strings.HasPrefix(desc, price+".") {
			return true
		}
		if leadingDottedRE.MatchString(desc) {
			return true
		}
		if leadingDashedRE.MatchString(desc) {
			return true
		}
	}
	if strings.HasPrefix(desc, price) || strings.HasSuffix(desc, price) {
		return true
	}
	return false
}

func (e *Extractor) containsOwnerDetails(desc string) bool {
	lower := strings.ToLower(desc)
	for _, excl := range e.cfg.OwnerExcludes {
		if strings.Contains(lower, strings.ToLower(excl)) {
			return true
		}
	}
	return false
}
