package notification

import "go.uber.org/fx"

// Module registers the HTTP notification handlers on the shared Echo router.
var Module = fx.Module("http_notifications",
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
