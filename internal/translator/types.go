// Package translator is the external translation collaborator: services
// that accept a batch of {id, source} segments and return {id, target}
// records for some subset of them. No service guarantees completeness or
// ordering; the merge engine treats absent ids as missing.
package translator

import (
	"context"
	"time"

	"github.com/valpere/batchtran/internal"
)

// ServiceConfig carries per-call configuration. It is passed explicitly at
// every call so services hold no process-wide mutable state.
type ServiceConfig struct {
	APIKey  string `mapstructure:"api_key" json:"api_key"`
	Model   string `mapstructure:"model" json:"model"`
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// Timeout bounds one TranslateBatch call via a context deadline. Zero
	// falls back to the service's default HTTP client timeout.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`

	Credentials string `mapstructure:"credentials" json:"credentials"`
	ProjectID   string `mapstructure:"project_id" json:"project_id"`
}

// BatchRequest is one batch of segments to translate.
type BatchRequest struct {
	Segments   []internal.Segment `json:"segments"`
	SourceLang string             `json:"source_lang"`
	TargetLang string             `json:"target_lang"`

	// Glossary maps source terms to required target terms. Advisory: it is
	// injected into LLM prompts but never enforced on the output.
	Glossary map[string]string `json:"glossary,omitempty"`

	// PreviousContext is the tail of the preceding batch's source text,
	// passed so LLM services keep terminology and tone continuous across
	// batch boundaries. Never retranslated.
	PreviousContext string `json:"previous_context,omitempty"`

	// Instructions is extra free-form guidance appended to the prompt.
	Instructions string `json:"instructions,omitempty"`
}

// BatchResult is a service's answer for one batch.
type BatchResult struct {
	ServiceName  string                 `json:"service_name"`
	Translations []internal.Translation `json:"translations"`
	Latency      time.Duration          `json:"latency"`
	Error        string                 `json:"error,omitempty"`
}

// Service is implemented by every translation backend.
type Service interface {
	Name() string
	TranslateBatch(ctx context.Context, cfg ServiceConfig, req BatchRequest) (*BatchResult, error)
	IsAvailable(ctx context.Context) error
}
