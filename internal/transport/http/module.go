package http

import (
	"go.uber.org/fx"

	checkouttransport "github.com/Additional-Code/atelier/internal/transport/http/checkout"
	measurementtransport "github.com/Additional-Code/atelier/internal/transport/http/measurement"
	notificationtransport "github.com/Additional-Code/atelier/internal/transport/http/notification"
	ordertransport "github.com/Additional-Code/atelier/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	checkouttransport.Module,
	measurementtransport.Module,
	notificationtransport.Module,
)
