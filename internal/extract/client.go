package extract

import (
	"regexp"
	"strings"
)

// ClientInfo is the resolved client identity for one invoice.
type ClientInfo struct {
	Name    string // empty when unresolved
	Address string // newline-joined lines; Unknown when unresolved
}

// clientIndicators mark the start of a client information section.
var clientIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bill\s+to`),
	regexp.MustCompile(`(?i)invoice\s+to`),
	regexp.MustCompile(`(?i)client\s*:`),
	regexp.MustCompile(`(?i)client\s*name`),
	regexp.MustCompile(`(?i)customer\s*:`),
	regexp.MustCompile(`(?i)recipient\s*:`),
	regexp.MustCompile(`(?i)billed\s+to`),
	regexp.MustCompile(`(?i)client\s+details`),
	regexp.MustCompile(`(?i)customer\s+details`),
}

// clientEndIndicators mark that the scan has moved past client info.
var clientEndIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)invoice\s+details`),
	regexp.MustCompile(`(?i)description`),
	regexp.MustCompile(`(?i)item`),
	regexp.MustCompile(`(?i)quantity`),
	regexp.MustCompile(`(?i)amount`),
	regexp.MustCompile(`(?i)price`),
	regexp.MustCompile(`(?i)total`),
	regexp.MustCompile(`(?i)payment\s+terms`),
	regexp.MustCompile(`(?i)due\s+date`),
	regexp.MustCompile(`(?i)service`),
}

// clientExcludePatterns reject lines that cannot be a client name.
var clientExcludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^invoice\b`),
	regexp.MustCompile(`(?i)^bill\s+to`),
	regexp.MustCompile(`(?i)^date`),
	regexp.MustCompile(`(?i)^number`),
	regexp.MustCompile(`(?i)^payment\s+terms`),
	regexp.MustCompile(`(?i)^due\s+date`),
	regexp.MustCompile(`(?i)^utr`),
	regexp.MustCompile(`(?i)^email`),
	regexp.MustCompile(`(?i)^phone`),
	regexp.MustCompile(`(?i)^tel`),
	regexp.MustCompile(`(?i)^fax`),
	regexp.MustCompile(`(?i)^vat`),
	regexp.MustCompile(`(?i)^tax`),
}

// addressPatterns recognize structurally address-like lines: UK street lines,
// UK postal codes, and common city names.
var addressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d+\s+[A-Za-z\s]+(?:street|st|road|rd|avenue|ave|lane|ln|drive|dr|way|place|pl|court|ct)\b`),
	regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d{1,2}[A-Z]?\s?\d[A-Z]{2}\b`),
	regexp.MustCompile(`(?i)\b(?:London|Manchester|Birmingham|Leeds|Glasgow|Edinburgh|Liverpool|Bristol|Sheffield|Newcastle|Nottingham|Cardiff|Belfast)\b`),
}

var (
	utrRE = regexp.MustCompile(`\b(?:UTR|utr)[\s:-]+(?:\d{9,10}|XXXXXXXXX|[0-9X]{9,10})\b`)
	// Labels whose trailing text is the client name ("Bill To: Acme Ltd").
	nameAfterLabelRE = regexp.MustCompile(`(?i)(?:bill|invoice|billed|client)\s+(?:to|name|:)\s*:?\s*(.*)`)
	embeddedDateRE   = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`)
	embeddedInvNoRE  = regexp.MustCompile(`(?i)invoice\s*(?:#|number|num|no|no\.)?[:;]?\s*\d+`)
	longDigitRunRE   = regexp.MustCompile(`\d{5,}`)
	// Address lines carrying any of these keywords are judged to be
	// mis-captured headers, not address content.
	addressRejectRE = regexp.MustCompile(`(?i)invoice|date|number|payment|due|total|amount|service|description|quantity|price|utr`)
)

// ExtractClientInfo resolves the client name and address from invoice text.
//
// Identity is resolved in priority order, first success wins: the known-entity
// roster, a labelled client section, a positional heuristic over the first 10
// lines, then the last-resort name overrides. The found name is cleaned of
// tax references, embedded dates and invoice-number phrases, and a separate
// refinement pass hunts for address lines when the section scan collected
// none.
func (e *Extractor) ExtractClientInfo(text string) ClientInfo {
	lines := splitLines(text)

	name := ""
	nameLine := -1
	var address []string

	// Stage 1: known-entity roster, exact word-boundary match.
	for _, kc := range e.cfg.KnownClients {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kc.Name) + `\b`)
		if !re.MatchString(text) {
			continue
		}
		name = kc.Name
		for i, line := range lines {
			if re.MatchString(line) {
				nameLine = i
				break
			}
		}
		break
	}

	// Stage 2: labelled client section.
	if name == "" {
		inSection := false
		for i, line := range lines {
			for _, ind := range clientIndicators {
				if ind.MatchString(line) {
					inSection = true
					nameLine = i
					if m := nameAfterLabelRE.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
						name = strings.TrimSpace(m[1])
					}
					break
				}
			}
			if !inSection {
				continue
			}

			ended := false
			for _, ind := range clientEndIndicators {
				if ind.MatchString(line) {
					ended = true
					break
				}
			}
			if ended {
				inSection = false
				continue
			}

			if matchesAny(clientExcludePatterns, line) {
				continue
			}

			if name == "" && line != "" {
				name = line
				nameLine = i
			} else if name != "" && line != "" && line != name {
				address = append(address, line)
			}
		}
	}

	// Stage 3: positional heuristic over the first 10 non-empty lines.
	if name == "" {
		limit := len(lines)
		if limit > 10 {
			limit = 10
		}
		for i := 0; i < limit; i++ {
			line := lines[i]
			if matchesAny(clientExcludePatterns, line) {
				continue
			}
			words := len(strings.Fields(line))
			if words > 2 && words < 8 && !longDigitRunRE.MatchString(line) {
				name = line
				nameLine = i
				for j := i + 1; j < i+4 && j < len(lines); j++ {
					if lines[j] != name {
						address = append(address, lines[j])
					}
				}
				break
			}
		}
	}

	// Stage 4: last-resort overrides.
	for _, ov := range e.cfg.NameOverrides {
		if name != "" {
			break
		}
		if !strings.Contains(text, ov.Match) {
			continue
		}
		name = ov.Name
		for i, line := range lines {
			if strings.Contains(line, ov.Match) {
				nameLine = i
				break
			}
		}
	}

	if name != "" {
		name = strings.TrimSpace(utrRE.ReplaceAllString(name, ""))
		name = strings.TrimSpace(embeddedDateRE.ReplaceAllString(name, ""))
		name = strings.TrimSpace(embeddedInvNoRE.ReplaceAllString(name, ""))
	}

	if name != "" && nameLine >= 0 && len(address) == 0 {
		address = e.findAddressLines(name, lines, nameLine)
	}

	for i, addr := range address {
		address[i] = strings.TrimSpace(utrRE.ReplaceAllString(addr, ""))
	}
	filtered := address[:0]
	for _, addr := range address {
		if addressRejectRE.MatchString(addr) {
			continue
		}
		filtered = append(filtered, addr)
	}
	address = filtered

	// Known clients with a stable address keep it even when the document
	// never prints one.
	if len(address) == 0 {
		for _, kc := range e.cfg.KnownClients {
			if kc.FallbackAddress != "" && strings.Contains(name, kc.Name) {
				address = []string{kc.FallbackAddress}
				break
			}
		}
	}

	info := ClientInfo{Name: name, Address: Unknown}
	if len(address) > 0 {
		info.Address = strings.Join(address, "\n")
	}
	return info
}

// findAddressLines searches for address candidates once a name is known but
// the section scan collected none: the roster's address hint first, then a
// ±10-line window around the name, then a single whole-document sweep.
func (e *Extractor) findAddressLines(name string, lines []string, nameLine int) []string {
	var address []string

	hinted := false
	for _, kc := range e.cfg.KnownClients {
		if kc.AddressHint == "" || !strings.Contains(name, kc.Name) {
			continue
		}
		hinted = true
		for i, line := range lines {
			if strings.Contains(line, kc.AddressHint) {
				address = append(address, line)
				if i+1 < len(lines) && len(lines[i+1]) < 30 {
					address = append(address, lines[i+1])
				}
				break
			}
		}
		break
	}

	if !hinted {
		start := nameLine - 10
		if start < 0 {
			start = 0
		}
		end := nameLine + 10
		if end > len(lines) {
			end = len(lines)
		}
		for i := start; i < end; i++ {
			if i == nameLine {
				continue
			}
			if matchesAny(addressPatterns, lines[i]) && len(lines[i]) < 100 {
				address = append(address, lines[i])
			}
		}
	}

	if len(address) == 0 {
		for i, line := range lines {
			if i == nameLine {
				continue
			}
			// First structurally address-like line only; taking more
			// invites false positives.
			if matchesAny(addressPatterns, line) && len(line) < 100 {
				address = append(address, line)
				break
			}
		}
	}

	return address
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
