package measurement

import "go.uber.org/fx"

// Module registers the HTTP measurement profile handlers on the shared Echo router.
var Module = fx.Module("http_measurements",
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
