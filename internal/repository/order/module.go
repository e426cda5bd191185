package order

import "go.uber.org/fx"

// Module provides the extended order repository to Fx.
var Module = fx.Provide(NewRepository)
