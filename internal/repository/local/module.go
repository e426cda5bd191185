package local

import "go.uber.org/fx"

// Module provides the local order store to Fx.
var Module = fx.Provide(NewStore)
