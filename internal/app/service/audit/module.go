package audit

import "go.uber.org/fx"

// Module exposes the audit log via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
