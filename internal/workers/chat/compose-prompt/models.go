// internal/workers/chat/compose-prompt/models.go
package composeprompt

import "product-chat-workers/internal/models"

type Input struct {
	RequestID       string         `json:"requestId,omitempty"`
	Query           string         `json:"query"`
	Language        string         `json:"language"`
	Role            string         `json:"role"`
	Intent          models.Intent  `json:"intent"`
	Outcome         models.Outcome `json:"outcome"`
	RefusalTemplate string         `json:"refusalTemplate,omitempty"`
	Facts           models.FactSet `json:"facts"`
}

type Output struct {
	Package models.PromptPackage `json:"promptPackage"`
	// RefusalText is set only for denied outcomes; the pipeline returns it
	// verbatim without calling the Response Generator.
	RefusalText string `json:"refusalText,omitempty"`
}
