package probe

import (
	"regexp"
	"sort"
	"strings"
)

// addressPattern matches EVM addresses embedded anywhere in text: page
// content, request URLs, script bodies.
var addressPattern = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)

// ExtractAddresses collects every contract address found across the given
// texts, lowercased and deduplicated. The result is sorted so repeated scans
// of the same page compare equal.
func ExtractAddresses(texts ...string) []string {
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, m := range addressPattern.FindAllString(text, -1) {
			seen[strings.ToLower(m)] = struct{}{}
		}
	}

	addresses := make([]string, 0, len(seen))
	for addr := range seen {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)
	return addresses
}
