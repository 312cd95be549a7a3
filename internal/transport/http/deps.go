package http

import (
	"net/http"

	"github.com/securescan-api/internal/application/otp"
	"github.com/securescan-api/internal/transport/http/handler"
	"go.uber.org/zap"
)

// Deps holds everything the router needs from the composition root.
type Deps struct {
	OTP    otp.Service
	Logger *zap.Logger
	// Tickets signs verification tokens; nil disables them.
	Tickets handler.TicketSigner
	// Metrics serves /metrics when set.
	Metrics http.Handler
}
