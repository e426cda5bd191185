package checkout

import "go.uber.org/fx"

// Module registers the HTTP checkout, cart and buy-now handlers on the shared Echo router.
var Module = fx.Module("http_checkout",
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
