package llm

import "strings"

// Maritaca serves the Sabiá family through an OpenAI-compatible API, so the
// adapter is the OpenAI provider pointed at the Maritaca endpoint with the
// published model aliases resolved.
const DefaultMaritacaBaseURL = "https://chat.maritaca.ai/api"

var maritacaModelAliases = map[string]string{
	"sabia-3-large":  "sabia-3",
	"sabia-3-medium": "sabia-3",
	"sabia-2-medium": "sabia-2-medium",
	"sabia-2-small":  "sabia-2-small",
}

func NewMaritacaProvider(name, apiKey, baseURL, model string) *OpenAIProvider {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = DefaultMaritacaBaseURL
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = "sabia-3"
	}
	if resolved, ok := maritacaModelAliases[strings.ToLower(m)]; ok {
		m = resolved
	}

	n := strings.TrimSpace(name)
	if n == "" {
		n = "maritaca"
	}

	return NewOpenAIProvider(n, apiKey, base, m)
}
