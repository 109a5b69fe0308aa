package usecases

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/ObisDevs/Salesboy-sub000/internal/entities"
	"gopkg.in/yaml.v3"
)

//go:embed tasks.yaml
var defaultCatalogYAML []byte

const fallbackAcknowledgment = "Got it! We're working on your request."

// TaskSpec describes one task type the assistant can carry out.
type TaskSpec struct {
	Type           entities.TaskType `yaml:"type"`
	Description    string            `yaml:"description"`
	Required       []string          `yaml:"required"`
	Optional       []string          `yaml:"optional"`
	Endpoint       string            `yaml:"endpoint"`
	Acknowledgment string            `yaml:"acknowledgment"`
}

type TaskCatalog struct {
	Tasks  []TaskSpec `yaml:"tasks"`
	byType map[entities.TaskType]TaskSpec
}

// LoadTaskCatalog parses a catalog and checks it covers every known task type.
func LoadTaskCatalog(data []byte) (*TaskCatalog, error) {
	var c TaskCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse task catalog: %w", err)
	}

	c.byType = make(map[entities.TaskType]TaskSpec, len(c.Tasks))
	for _, t := range c.Tasks {
		if !t.Type.Valid() {
			return nil, fmt.Errorf("task catalog: unknown task type %q", t.Type)
		}
		if !strings.HasPrefix(t.Endpoint, "/") {
			return nil, fmt.Errorf("task catalog: %s endpoint must be a path, got %q", t.Type, t.Endpoint)
		}
		if _, dup := c.byType[t.Type]; dup {
			return nil, fmt.Errorf("task catalog: duplicate task type %q", t.Type)
		}
		c.byType[t.Type] = t
	}
	for _, tt := range entities.TaskTypes {
		if _, ok := c.byType[tt]; !ok {
			return nil, fmt.Errorf("task catalog: missing task type %q", tt)
		}
	}
	return &c, nil
}

// DefaultTaskCatalog returns the embedded catalog.
func DefaultTaskCatalog() *TaskCatalog {
	c, err := LoadTaskCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *TaskCatalog) Get(t entities.TaskType) (TaskSpec, bool) {
	spec, ok := c.byType[t]
	return spec, ok
}

func (c *TaskCatalog) Endpoint(t entities.TaskType) string {
	return c.byType[t].Endpoint
}

func (c *TaskCatalog) Acknowledgment(t entities.TaskType) string {
	if spec, ok := c.byType[t]; ok && spec.Acknowledgment != "" {
		return spec.Acknowledgment
	}
	return fallbackAcknowledgment
}

// Describe renders the catalog for the classifier instruction.
func (c *TaskCatalog) Describe() string {
	var sb strings.Builder
	for _, t := range c.Tasks {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Type, t.Description)
		fmt.Fprintf(&sb, "    required: %s\n", strings.Join(t.Required, ", "))
		if len(t.Optional) > 0 {
			fmt.Fprintf(&sb, "    optional: %s\n", strings.Join(t.Optional, ", "))
		}
	}
	return sb.String()
}
