package models

import "encoding/json"

// PromptTemplate represents template metadata from the backend catalog.
type PromptTemplate struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// TemplatePlaceholder describes one placeholder a template expects.
type TemplatePlaceholder struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // string or data
	Source      string `json:"source"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// TemplateInfo represents full template details.
type TemplateInfo struct {
	Category     string                `json:"category"`
	Name         string                `json:"name"`
	Version      string                `json:"version"`
	Description  string                `json:"description"`
	Placeholders []TemplatePlaceholder `json:"placeholders"`
	Metadata     map[string]any        `json:"metadata"`
}

// RenderPromptRequest is the payload for prompt rendering.
type RenderPromptRequest struct {
	Category     string         `json:"category"`
	TemplateName string         `json:"template_name"`
	Symbol       string         `json:"symbol,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

// TemplateRef identifies the template used for a rendered prompt.
type TemplateRef struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// PromptMetadata carries rendering stats and suggested model settings.
type PromptMetadata struct {
	ExecutionTimeMs int     `json:"execution_time_ms"`
	EstimatedTokens int     `json:"estimated_tokens"`
	Temperature     float64 `json:"temperature"`
	MaxTokens       int     `json:"max_tokens"`
}

// RenderedPrompt is the reply from render-prompt: the full prompt text
// ready to copy into an external model, plus metadata.
type RenderedPrompt struct {
	Prompt     string         `json:"prompt"`
	Template   TemplateRef    `json:"template"`
	Metadata   PromptMetadata `json:"metadata"`
	Parameters map[string]any `json:"parameters"`
}

// ImportResponseRequest is the payload for importing a manually
// executed model response.
type ImportResponseRequest struct {
	Category       string         `json:"category"`
	TemplateName   string         `json:"template_name"`
	Symbol         string         `json:"symbol,omitempty"`
	RenderedPrompt string         `json:"rendered_prompt"`
	Response       string         `json:"response"`
	Parameters     map[string]any `json:"parameters,omitempty"`
}

// ImportedAnalysis is the reply after storing an imported response.
type ImportedAnalysis struct {
	ID               int64           `json:"id"`
	TemplateCategory string          `json:"template_category"`
	TemplateName     string          `json:"template_name"`
	Symbol           string          `json:"symbol"`
	Response         string          `json:"response"`
	Parsed           json.RawMessage `json:"parsed"`
	CreatedAt        string          `json:"created_at"`
}

// Analysis represents one stored analysis from history.
type Analysis struct {
	ID               int64           `json:"id"`
	TemplateCategory string          `json:"template_category"`
	TemplateName     string          `json:"template_name"`
	Symbol           string          `json:"symbol"`
	RenderedPrompt   string          `json:"rendered_prompt"`
	Response         string          `json:"response"`
	StructuredData   json.RawMessage `json:"structured_data"`
	ExecutionTimeMs  int             `json:"execution_time_ms"`
	Model            string          `json:"model"`
	ExecutionMode    string          `json:"execution_mode"`
	CreatedAt        string          `json:"created_at"`
}

// DeleteResult is the reply from deleting an analysis.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AIHealth is the AI subsystem health reply. Error is set only when
// Status is "unhealthy".
type AIHealth struct {
	Status          string            `json:"status"`
	TemplatesLoaded int               `json:"templates_loaded"`
	TotalAnalyses   int               `json:"total_analyses"`
	LastAnalysis    string            `json:"last_analysis"`
	Services        map[string]string `json:"services"`
	Error           string            `json:"error"`
}
