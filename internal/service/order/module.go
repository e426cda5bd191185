package order

import "go.uber.org/fx"

// Module provides the order service and its remote actor to Fx.
var Module = fx.Provide(NewActor, NewService)
