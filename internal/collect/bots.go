package collect

import "strings"

// Automation signatures. Matched traffic is acknowledged with success and
// discarded, so a crawler never learns it was filtered.
var botSignatures = []string{
	"bot",
	"crawler",
	"spider",
	"scraper",
	"facebookexternalhit",
	"whatsapp",
	"slurp",
	"duckduckgo",
}

func isBot(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, sig := range botSignatures {
		if strings.Contains(ua, sig) {
			return true
		}
	}
	return false
}
