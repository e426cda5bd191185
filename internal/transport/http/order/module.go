package order

import "go.uber.org/fx"

// Module registers the HTTP order handlers on the shared Echo router.
var Module = fx.Module("http_orders",
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
