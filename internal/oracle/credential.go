package oracle

import (
	"fmt"
	"strings"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// keyPrefixes are the recognized credential prefixes per provider.
var keyPrefixes = map[string]string{
	ProviderOpenAI: "sk-",
	ProviderGemini: "AIza",
}

// keyEnvVars names the environment variable holding each provider's key.
var keyEnvVars = map[string]string{
	ProviderOpenAI: "OPENAI_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
}

// KeyEnvVar returns the environment variable for provider's API key.
func KeyEnvVar(provider string) string {
	return keyEnvVars[provider]
}

// KeyPrefix returns the prefix a valid key for provider starts with.
func KeyPrefix(provider string) string {
	return keyPrefixes[provider]
}

// ValidateAPIKey checks that key is present and carries the provider's
// recognized prefix. Failures wrap ErrConfiguration.
func ValidateAPIKey(provider, key string) error {
	prefix, ok := keyPrefixes[provider]
	if !ok {
		return fmt.Errorf("%w: unknown provider %q", ErrConfiguration, provider)
	}
	if key == "" {
		return fmt.Errorf("%w: %s가 설정되지 않았습니다. .env 파일을 확인해주세요", ErrConfiguration, keyEnvVars[provider])
	}
	if !strings.HasPrefix(key, prefix) {
		return fmt.Errorf("%w: 올바르지 않은 %s API 키 형식입니다", ErrConfiguration, provider)
	}
	return nil
}
