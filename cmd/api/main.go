// Command api runs the order API without the CLI wrapper, for container
// images that only need the server.
package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/atelier/internal/app"
	"github.com/Additional-Code/atelier/internal/logger"
)

func main() {
	fx.New(app.Module, logger.FxLogger()).Run()
}
