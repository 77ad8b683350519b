package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvCompletionProvider   = "FORMFILL_AGENT_PROVIDER_NAME"
	EnvCompletionBaseURL    = "FORMFILL_AGENT_BASE_URL"
	EnvCompletionAPIKey     = "FORMFILL_COMPLETION_API_KEY"
	EnvCompletionModel      = "FORMFILL_COMPLETION_MODEL"
	EnvCompletionDeployment = "FORMFILL_AGENT_DEPLOYMENT"
	EnvCompletionAPIVersion = "FORMFILL_AGENT_API_VERSION"
	EnvCompletionAuthType   = "FORMFILL_AGENT_AUTH_TYPE"
)

// DefaultAgentName names the completion agent when the config leaves it blank.
const DefaultAgentName = "formfill"

// providerOptions maps environment variables onto go-agents provider options.
var providerOptions = []struct{ env, key string }{
	{EnvCompletionAPIKey, "token"},
	{EnvCompletionDeployment, "deployment"},
	{EnvCompletionAPIVersion, "api_version"},
	{EnvCompletionAuthType, "auth_type"},
}

// FinalizeAgent prepares the completion agent used for field parsing,
// synthesis, feedback classification, and page transcription. It layers
// the config over go-agents defaults, applies FORMFILL_* overrides, and
// checks the provider can be reached with the model named.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults

	if c.Name == "" {
		c.Name = DefaultAgentName
	}
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}

	if v := os.Getenv(EnvCompletionProvider); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvCompletionBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvCompletionModel); v != "" {
		c.Model.Name = v
	}
	for _, opt := range providerOptions {
		if v := os.Getenv(opt.env); v != "" {
			c.Provider.Options[opt.key] = v
		}
	}

	return validateCompletion(c)
}

func validateCompletion(c *gaconfig.AgentConfig) error {
	if strings.TrimSpace(c.Provider.Name) == "" {
		return fmt.Errorf("provider name required (%s)", EnvCompletionProvider)
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		return fmt.Errorf("completion model name required (%s)", EnvCompletionModel)
	}

	if c.Provider.BaseURL != "" {
		u, err := url.Parse(c.Provider.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid provider base_url: %q", c.Provider.BaseURL)
		}
	}

	// Azure deployments are addressed by deployment name and API version.
	if c.Provider.Name == "azure" {
		for _, key := range []string{"deployment", "api_version"} {
			if v, _ := c.Provider.Options[key].(string); v == "" {
				return fmt.Errorf("azure provider requires %s option", key)
			}
		}
	}
	return nil
}
