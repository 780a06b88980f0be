package constants

import (
	"strings"
)

// Provider names the AI backend used for field enhancement.
type Provider string

const (
	ProviderNone   Provider = "none"
	ProviderOpenAI Provider = "openai"
	ProviderAzure  Provider = "azure"
	ProviderGemini Provider = "gemini"
)

var allProviders = []Provider{
	ProviderNone,
	ProviderOpenAI,
	ProviderAzure,
	ProviderGemini,
}

// ParseProvider maps a configured provider label to a Provider.
// Unknown or empty labels resolve to ProviderNone with ok=false.
func ParseProvider(input string) (Provider, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return ProviderNone, false
	}

	synonyms := map[string]Provider{
		"off":          ProviderNone,
		"disabled":     ProviderNone,
		"chatgpt":      ProviderOpenAI,
		"azure-openai": ProviderAzure,
		"azureopenai":  ProviderAzure,
		"google":       ProviderGemini,
	}
	if p, ok := synonyms[normalized]; ok {
		return p, true
	}

	for _, p := range allProviders {
		if normalized == string(p) {
			return p, true
		}
	}
	return ProviderNone, false
}
