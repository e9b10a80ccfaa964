package narrativeingester

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface required for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the narrative-ingester component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "narrative-ingester",
		Factory:     NewComponent,
		Schema:      narrativeIngesterSchema,
		Type:        "processor",
		Protocol:    "nats",
		Domain:      "storycheck",
		Description: "Narrative ingestion and consistency checking",
		Version:     "0.1.0",
	})
}
