// Package phone normalizes Brazilian phone numbers between the formats
// used by the customer store and the WhatsApp transport.
package phone

import "strings"

// CountryPrefix is the Brazilian country code carried by inbound
// WhatsApp addresses.
const CountryPrefix = "55"

// Clean strips every non-digit character and a single leading zero.
func Clean(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if strings.HasPrefix(clean, "0") {
		clean = clean[1:]
	}
	return clean
}

// WhatsappModel returns the 10-digit variant of an 11-digit number,
// dropping the extra ninth digit after the area code. Numbers that do
// not fit either shape have no model variant.
func WhatsappModel(clean string) string {
	switch {
	case len(clean) == 11 && strings.HasPrefix(clean, CountryPrefix):
		return clean[:4] + clean[5:]
	case len(clean) == 11:
		return clean[:3] + clean[4:]
	case len(clean) == 10:
		return clean
	}
	return ""
}

// Candidates returns the lookup keys tried, in order, when resolving an
// inbound address to a customer: the raw address, the cleaned digits,
// the digits with the country prefix stripped, and the whatsapp-model
// variant. Duplicates and empty forms are dropped.
func Candidates(raw string) []string {
	clean := Clean(raw)
	stripped := clean
	if strings.HasPrefix(clean, CountryPrefix) && len(clean) > len(CountryPrefix) {
		stripped = clean[len(CountryPrefix):]
	}

	seen := make(map[string]bool, 4)
	var out []string
	for _, c := range []string{raw, clean, stripped, WhatsappModel(stripped)} {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// ToJID converts a stored phone number to the WhatsApp transport
// address, prepending the country prefix when absent.
func ToJID(raw string) string {
	clean := Clean(raw)
	if !strings.HasPrefix(clean, CountryPrefix) {
		clean = CountryPrefix + clean
	}
	return clean + "@s.whatsapp.net"
}

// FromJID extracts the phone digits from a WhatsApp transport address.
func FromJID(jid string) string {
	return strings.TrimSuffix(jid, "@s.whatsapp.net")
}
