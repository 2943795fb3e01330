package root

// Greeting is the fixed payload served at the root path.
const Greeting = "Hello World - Teste 4 sync argo"

// Data models the root response payload.
type Data struct {
	Message string `json:"message" doc:"Fixed greeting" example:"Hello World - Teste 4 sync argo"`
}

// GetOutput wraps Data as the response body.
type GetOutput struct {
	Body Data
}
