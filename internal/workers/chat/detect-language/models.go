// internal/workers/chat/detect-language/models.go
package detectlanguage

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Language string `json:"language"`
	Query    string `json:"query"`
}
