package api

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/perftest-admin/internal/auth"
	"github.com/yakoovad/perftest-admin/internal/model"
	"github.com/yakoovad/perftest-admin/internal/service"
	"github.com/yakoovad/perftest-admin/pkg/logger"
	"go.uber.org/zap"
)

const claimsKey = "claims"

// RequestLoggerMiddleware puts a request scoped logger into the request
// context and writes one access log entry per request. The entry carries the
// caller's id when AuthMiddleware accepted a token.
func RequestLoggerMiddleware(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqLogger := l.With(zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
			c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), reqLogger)))

			err := next(c)
			if err != nil {
				// Let echo write the error response so the logged status is final.
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.Int64("bytes_out", res.Size),
			}
			if claims, ok := c.Get(claimsKey).(*auth.TokenClaims); ok {
				fields = append(fields, zap.String("user_id", claims.Subject), zap.String("role", string(claims.Role)))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			switch {
			case res.Status >= http.StatusInternalServerError:
				reqLogger.Error("request failed", fields...)
			case res.Status >= http.StatusBadRequest:
				reqLogger.Warn("request rejected", fields...)
			default:
				reqLogger.Info("request completed", fields...)
			}
			return nil
		}
	}
}

// AuthMiddleware requires a valid bearer access token. With roles given, the
// token's role must be one of them.
func AuthMiddleware(tokens *auth.Manager, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return transportError(c, service.NewServiceError(service.ErrorCodeUnauthorized, "missing authorization header"))
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return transportError(c, service.NewServiceError(service.ErrorCodeUnauthorized, "malformed authorization header"))
			}

			claims, err := tokens.VerifyToken(strings.TrimSpace(token), auth.TokenTypeAccess)
			if err != nil {
				logger.FromContext(c.Request().Context()).Debug("rejected access token", zap.Error(err))
				return transportError(c, service.NewServiceError(service.ErrorCodeUnauthorized, "invalid or expired token"))
			}

			if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
				return transportError(c, service.NewServiceError(service.ErrorCodeForbidden, "insufficient permissions"))
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// actor returns the caller authenticated by AuthMiddleware.
func actor(c echo.Context) model.Actor {
	claims, ok := c.Get(claimsKey).(*auth.TokenClaims)
	if !ok {
		return model.Actor{}
	}
	return model.Actor{ID: claims.Subject, Role: claims.Role}
}

var errStatus = map[service.ErrorCode]int{
	service.ErrorCodeInvalidBody:    http.StatusBadRequest,
	service.ErrorCodeValidation:     http.StatusBadRequest,
	service.ErrorCodeAlreadyExists:  http.StatusBadRequest,
	service.ErrorCodeBadToken:       http.StatusBadRequest,
	service.ErrorCodeUnauthorized:   http.StatusUnauthorized,
	service.ErrorCodeForbidden:      http.StatusForbidden,
	service.ErrorCodeInvalidRefresh: http.StatusForbidden,
	service.ErrorCodeUserInactive:   http.StatusForbidden,
	service.ErrorCodeNotFound:       http.StatusNotFound,
}

func transportError(e echo.Context, err *service.Error) error {
	response := struct {
		Error *service.Error `json:"error"`
	}{Error: err}

	status, ok := errStatus[err.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return e.JSON(status, response)
}
