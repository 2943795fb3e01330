package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/infra-challenge/greeter/internal/http/root"
)

// Register wires all public HTTP routes into the provided API.
func Register(api huma.API) {
	root.Register(api)
}
