package payment

import (
	"go.uber.org/fx"

	"github.com/fatflowers/fitgate/internal/app/service/payment_log"
	"github.com/fatflowers/fitgate/internal/app/service/subscription"
)

// Module exposes the payment confirmation handler via Fx.
var Module = fx.Options(
	fx.Provide(
		func(s *subscription.Service) Upgrader { return s },
		func(s *payment_log.Service) LogSaver { return s },
		NewConfirmationHandler,
	),
)
