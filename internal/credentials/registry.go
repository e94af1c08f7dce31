package credentials

import (
	"fmt"

	"github.com/bjpl/describe-it-sub001/internal/validation"
)

// Service describes one external service the gateway authenticates
// against: the ordered environment variables consulted as the
// lowest-priority credential source and the structural rule a usable
// credential must match.
type Service struct {
	ID      string
	EnvVars []string
	Rule    validation.CredentialRule
}

// registry is the static table of known services. Resolution for a service
// id outside this table is a programmer error.
var registry = []Service{
	{
		ID:      "openai",
		EnvVars: []string{"OPENAI_API_KEY"},
		Rule:    validation.CredentialRule{MinLength: 20, RequiredPrefix: "sk-"},
	},
	{
		ID:      "anthropic",
		EnvVars: []string{"ANTHROPIC_API_KEY"},
		Rule:    validation.CredentialRule{MinLength: 24, RequiredPrefix: "sk-ant-"},
	},
	{
		ID:      "pexels",
		EnvVars: []string{"PEXELS_API_KEY"},
		Rule:    validation.CredentialRule{MinLength: 30},
	},
	{
		ID:      "unsplash",
		EnvVars: []string{"UNSPLASH_ACCESS_KEY", "UNSPLASH_API_KEY"},
		Rule:    validation.CredentialRule{MinLength: 20},
	},
}

// ServiceIDs returns the ids of all registered services in registry order
func ServiceIDs() []string {
	ids := make([]string, 0, len(registry))
	for _, svc := range registry {
		ids = append(ids, svc.ID)
	}
	return ids
}

// lookupService returns the registry entry for a service id. Unknown ids
// are precondition violations, not runtime failures.
func lookupService(serviceID string) Service {
	for _, svc := range registry {
		if svc.ID == serviceID {
			return svc
		}
	}
	panic(fmt.Sprintf("credentials: unknown service id %q", serviceID))
}
