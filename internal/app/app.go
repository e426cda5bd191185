package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/atelier/internal/cache"
	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/logger"
	"github.com/Additional-Code/atelier/internal/messaging"
	"github.com/Additional-Code/atelier/internal/observability"
	repositorycart "github.com/Additional-Code/atelier/internal/repository/cart"
	repositorylocal "github.com/Additional-Code/atelier/internal/repository/local"
	repositorymeasurement "github.com/Additional-Code/atelier/internal/repository/measurement"
	repositorynotification "github.com/Additional-Code/atelier/internal/repository/notification"
	repositoryorder "github.com/Additional-Code/atelier/internal/repository/order"
	grpcserver "github.com/Additional-Code/atelier/internal/server/grpc"
	httpserver "github.com/Additional-Code/atelier/internal/server/http"
	servicecheckout "github.com/Additional-Code/atelier/internal/service/checkout"
	servicenotification "github.com/Additional-Code/atelier/internal/service/notification"
	serviceorder "github.com/Additional-Code/atelier/internal/service/order"
	"github.com/Additional-Code/atelier/internal/storage"
	transporthttp "github.com/Additional-Code/atelier/internal/transport/http"
	"github.com/Additional-Code/atelier/internal/worker"
	workerorder "github.com/Additional-Code/atelier/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	storage.Module,
	repositorylocal.Module,
	repositoryorder.Module,
	repositorynotification.Module,
	repositorycart.Module,
	repositorymeasurement.Module,
	serviceorder.Module,
	servicenotification.Module,
	servicecheckout.Module,
)

// HTTP wires the HTTP transport and the gRPC health server on top of the
// core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Standalone runs the API and the worker in one process. Pair it with
// MESSAGING_DRIVER=memory for a single-binary deployment.
var Standalone = fx.Options(
	HTTP,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring.
var Module = HTTP
