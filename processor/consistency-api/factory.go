package consistencyapi

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface required for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the consistency-api component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "consistency-api",
		Factory:     NewComponent,
		Schema:      consistencyAPISchema,
		Type:        "processor",
		Protocol:    "http",
		Domain:      "storycheck",
		Description: "HTTP endpoints for narrative consistency checks",
		Version:     "0.1.0",
	})
}
