package extract

import (
	"regexp"
	"strings"
)

// fieldPattern is one entry of an ordered pattern table. Tables are evaluated
// in sequence and the first pattern that matches anywhere in the text wins;
// there is no scoring across patterns.
type fieldPattern struct {
	re   *regexp.Regexp
	name string
}

// invoiceNumberPatterns runs from most to least specific: explicit
// "invoice number:" labels down to bare "#" prefixes. The captured value is
// only required to start with an alphanumeric; its content is not validated.
var invoiceNumberPatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)invoice\s*(?:#|number|num|no|no\.)\s*[:;]?\s*([A-Za-z0-9][\w\-./]+)`), "labelled_full"},
	{regexp.MustCompile(`(?i)(?:invoice|inv)(?:\s*#|\s+number|\s+num|\s+no|\s+no\.)?\s*[:;]?\s*([A-Za-z0-9][\w\-./]+)`), "labelled_spaced"},
	{regexp.MustCompile(`(?i)(?:invoice|inv)(?:\s*#|\s+number|\s+num|\s+no|\s+no\.)?[:;]?\s*([A-Za-z0-9][\w\-./]+)`), "labelled_tight"},
	{regexp.MustCompile(`(?i)(?:invoice|inv)[\s#:]*([A-Za-z0-9][\w\-./]+)`), "labelled_bare"},
	{regexp.MustCompile(`(?i)(?:#|number|num|no|no\.)[:;]?\s*([A-Za-z0-9][\w\-./]+)`), "hash_prefix"},
	{regexp.MustCompile(`(?i)invoice\s*(?:number|num|no|no\.)?[:;]?\s*([A-Za-z0-9][\w\-./]+)`), "invoice_loose"},
}

// ExtractInvoiceNumber returns the invoice number found in text, or Unknown.
func ExtractInvoiceNumber(text string) string {
	for _, p := range invoiceNumberPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return Unknown
}

// invoiceDatePatterns prefers dates anchored to "invoice/payment date" labels
// before falling back to the first bare date-like substring in the document.
// Numeric D/M/Y separators come before month-name formats at each tier.
var invoiceDatePatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)(?:invoice|payment)\s*date\s*[:;]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), "labelled_numeric"},
	{regexp.MustCompile(`(?i)date\s*(?:of\s*invoice|issued|created)?\s*[:;]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), "date_numeric"},
	{regexp.MustCompile(`(?i)dated?\s*[:;]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), "dated_numeric"},
	{regexp.MustCompile(`(?i)(?:invoice|payment)\s*date\s*[:;]?\s*(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{2,4})`), "labelled_month"},
	{regexp.MustCompile(`(?i)date\s*(?:of\s*invoice|issued|created)?\s*[:;]?\s*(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{2,4})`), "date_month"},
	{regexp.MustCompile(`(?i)dated?\s*[:;]?\s*(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{2,4})`), "dated_month"},
	{regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`), "bare_numeric"},
	{regexp.MustCompile(`(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{2,4})`), "bare_month"},
}

// ExtractInvoiceDate returns the raw matched date text, format-preserving
// (never normalized to ISO), or Unknown.
func ExtractInvoiceDate(text string) string {
	for _, p := range invoiceDatePatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return Unknown
}

// amountPattern pairs a pattern with the currency symbol to prepend when the
// captured value lacks one.
type amountPattern struct {
	re       *regexp.Regexp
	currency string
}

// invoiceAmountPatterns tries currency-labelled patterns (£/GBP, $/USD,
// €/EUR) before the unlabelled total pattern.
var invoiceAmountPatterns = []amountPattern{
	// British Pound
	{regexp.MustCompile(`(?i)(?:total|amount|sum|invoice\s*total)\s*(?:due|payable|:)?\s*(?:£|GBP)?\s*(£?\s*\d+\.\d{2})`), "£"},
	{regexp.MustCompile(`(?i)(?:£|GBP)\s*(\d+\.\d{2})`), "£"},
	{regexp.MustCompile(`(?:^|\n)(?:£|GBP)\s*(\d+\.\d{2})(?:\s|$)`), "£"},
	// US Dollar
	{regexp.MustCompile(`(?i)(?:total|amount|sum|invoice\s*total)\s*(?:due|payable|:)?\s*(?:\$|USD)?\s*(\$?\s*\d+\.\d{2})`), "$"},
	{regexp.MustCompile(`(?i)(?:\$|USD)\s*(\d+\.\d{2})`), "$"},
	{regexp.MustCompile(`(?:^|\n)(?:\$|USD)\s*(\d+\.\d{2})(?:\s|$)`), "$"},
	// Euro
	{regexp.MustCompile(`(?i)(?:total|amount|sum|invoice\s*total)\s*(?:due|payable|:)?\s*(?:€|EUR)?\s*(€?\s*\d+\.\d{2})`), "€"},
	{regexp.MustCompile(`(?i)(?:€|EUR)\s*(\d+\.\d{2})`), "€"},
	{regexp.MustCompile(`(?:^|\n)(?:€|EUR)\s*(\d+\.\d{2})(?:\s|$)`), "€"},
	// No currency symbol near the label; defaults to £
	{regexp.MustCompile(`(?i)(?:total|amount|sum|invoice\s*total)\s*(?:due|payable|:)?\s*(\d+\.\d{2})`), "£"},
}

var (
	totalKeywordRE = regexp.MustCompile(`(?i)total|amount|sum|due|payable`)
	bareAmountRE   = regexp.MustCompile(`(\d+\.\d{2})`)
)

// ExtractInvoiceAmount returns the invoice amount with its currency symbol
// prefix, or Unknown. Thousands-separator commas are stripped before
// matching. When only a bare number near a total/amount/due keyword is found
// (scanning lines bottom-up), the amount defaults to £.
func ExtractInvoiceAmount(text string) string {
	text = strings.ReplaceAll(text, ",", "")

	for _, p := range invoiceAmountPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount := strings.TrimSpace(m[1])
		if !strings.Contains(amount, p.currency) {
			amount = p.currency + amount
		}
		return amount
	}

	// Totals usually sit at the bottom of an invoice.
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if !totalKeywordRE.MatchString(lines[i]) {
			continue
		}
		if m := bareAmountRE.FindStringSubmatch(lines[i]); m != nil {
			return "£" + m[1]
		}
	}

	return Unknown
}
