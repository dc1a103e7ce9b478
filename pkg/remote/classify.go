package remote

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	pkgerrors "github.com/puntosclub/kiosk-backend/pkg/errors"
)

// Classify maps a remote failure into the user-facing taxonomy. The result
// drives messaging only, never control flow.
func Classify(err error) pkgerrors.Code {
	if err == nil {
		return ""
	}

	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeTimeout,
			pkgerrors.CodeNetworkUnavailable,
			pkgerrors.CodeSessionExpired,
			pkgerrors.CodePermissionDenied:
			return typed.Code()
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.CodeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return pkgerrors.CodeTimeout
		}
		return pkgerrors.CodeNetworkUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501":
			return pkgerrors.CodePermissionDenied
		case strings.HasPrefix(pgErr.Code, "28"):
			return pkgerrors.CodeSessionExpired
		case strings.HasPrefix(pgErr.Code, "08"):
			return pkgerrors.CodeNetworkUnavailable
		}
		return pkgerrors.CodeUnknown
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"connection refused", "connection reset", "no such host", "broken pipe", "network is unreachable"} {
		if strings.Contains(msg, hint) {
			return pkgerrors.CodeNetworkUnavailable
		}
	}

	return pkgerrors.CodeUnknown
}
