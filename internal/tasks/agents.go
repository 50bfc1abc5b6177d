package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"spinefetch/internal/services"
)

// Agent is one record produced by the scraper.
type Agent struct {
	Name  string                       `json:"name"`
	Head  map[string]string            `json:"head"`
	Spine map[string]map[string]string `json:"spine"`
}

// LoadAgents reads the scraper output from path.
func LoadAgents(path string) ([]Agent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "tasks", "open agents", path, err)
	}
	defer f.Close()
	agents, err := DecodeAgents(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return agents, nil
}

// DecodeAgents decodes a JSON array of agent records.
func DecodeAgents(r io.Reader) ([]Agent, error) {
	var agents []Agent
	dec := json.NewDecoder(r)
	if err := dec.Decode(&agents); err != nil {
		return nil, services.Wrap(services.ErrValidation, "tasks", "decode agents", "", err)
	}
	for i, agent := range agents {
		if agent.Name == "" {
			return nil, services.Wrap(services.ErrValidation, "tasks", "decode agents",
				fmt.Sprintf("record %d has no name", i), nil)
		}
	}
	return agents, nil
}
