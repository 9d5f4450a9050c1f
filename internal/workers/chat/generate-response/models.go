// internal/workers/chat/generate-response/models.go
package generateresponse

import "product-chat-workers/internal/models"

type Input struct {
	Package models.PromptPackage `json:"promptPackage"`
}

type Output struct {
	Response string `json:"response"`
	Language string `json:"language"`
}
