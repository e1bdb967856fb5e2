package tools

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hession/opsmate/internal/config"
	"github.com/hession/opsmate/internal/websearch"
)

// Registry is the name-keyed set of tools, fixed at construction.
// It is read-only afterwards and safe to share between pipeline runs.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry holding tools in the given order.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]Tool, len(tools)),
		order: make([]string, 0, len(tools)),
	}
	for _, tool := range tools {
		name := tool.Name()
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("tool %s already exists", name)
		}
		r.tools[name] = tool
		r.order = append(r.order, name)
	}
	return r, nil
}

// Get gets a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// List lists all tools in registration order
func (r *Registry) List() []Tool {
	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Names lists tool names in registration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	return len(r.order)
}

// ToolSchema function-calling schema of one tool
type ToolSchema struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema function schema
type FunctionSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ParameterSchema object schema of a tool's arguments
type ParameterSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// PropertySchema schema of one argument
type PropertySchema struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// GetSchemas returns every tool's schema in registration order
func (r *Registry) GetSchemas() []ToolSchema {
	schemas := make([]ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, SchemaOf(r.tools[name]))
	}
	return schemas
}

// SchemaOf builds the function-calling schema for a tool
func SchemaOf(tool Tool) ToolSchema {
	return ToolSchema{
		Type: "function",
		Function: FunctionSchema{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  buildParameterSchema(tool.Parameters()),
		},
	}
}

// buildParameterSchema builds parameter schema
func buildParameterSchema(params []ParameterDef) ParameterSchema {
	properties := make(map[string]PropertySchema, len(params))
	required := make([]string, 0)

	for _, param := range params {
		properties[param.Name] = PropertySchema{
			Type:        param.Type,
			Description: param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}

	return ParameterSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// NewDefaultRegistry creates the registry of built-in tools from config
func NewDefaultRegistry(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	timeout := time.Duration(cfg.Tools.TimeoutSeconds) * time.Second
	opts := HTTPOptions{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: cfg.Tools.UserAgent,
	}

	search := websearch.New(websearch.Options{
		Provider:  cfg.WebSearch.Provider,
		BaseURL:   cfg.WebSearch.BaseURL,
		APIKey:    cfg.WebSearch.APIKey,
		UserAgent: cfg.Tools.UserAgent,
		Timeout:   timeout,
	})

	return NewRegistry(
		NewWeatherTool(opts),
		NewGitHubTool(opts, cfg.Tools.GitHubToken),
		NewNewsTool(opts, NewsSettings{
			APIKey:   cfg.Tools.GNewsAPIKey,
			Country:  cfg.Tools.NewsCountry,
			Language: cfg.Tools.NewsLanguage,
		}),
		NewWikipediaTool(opts),
		NewStockTool(opts),
		NewWebSearchTool(search, cfg.WebSearch.DefaultLimit),
	)
}
