package event

import (
	"github.com/smallbiznis/frontdesk/internal/event/repository"
	"github.com/smallbiznis/frontdesk/internal/event/service"
	"go.uber.org/fx"
)

var Module = fx.Module("event.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
