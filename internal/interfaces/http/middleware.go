package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// HeaderIdempotencyKey header con la llave de idempotencia enviada por el cliente.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay marca las respuestas repetidas desde el almacén.
const HeaderIdempotentReplay = "Idempotent-Replayed"

// RequestLogger registra método, ruta, status y latencia de cada petición.
func RequestLogger(log *logger.Logger) fiber.Handler {
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status, _ = errorStatus(err)
		}
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Msg("petición HTTP")
		return err
	}
}

// Idempotency repite la respuesta guardada cuando un POST llega con un Idempotency-Key ya usado.
// La llave se separa por usuario. Las respuestas 5xx liberan la llave para permitir reintentos.
// Si el almacén falla la petición sigue sin protección y se registra una advertencia.
func Idempotency(store ports.IdempotencyStore, ttl time.Duration, log *logger.Logger) fiber.Handler {
	log = log.Named("idempotency")
	return func(c *fiber.Ctx) error {
		header := c.Get(HeaderIdempotencyKey)
		if c.Method() != fiber.MethodPost || header == "" {
			return c.Next()
		}
		if len(header) > 200 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Idempotency-Key demasiado largo"})
		}
		ctx := c.UserContext()
		key := GetUserID(c) + ":" + c.Path() + ":" + header

		stored, err := store.Lookup(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("almacén de idempotencia no disponible")
			return c.Next()
		}
		if stored != nil {
			c.Set(HeaderIdempotentReplay, "true")
			c.Set(fiber.HeaderContentType, stored.ContentType)
			return c.Status(stored.Status).Send(stored.Body)
		}

		reserved, err := store.Reserve(ctx, key, ttl)
		if err != nil {
			log.Warn().Err(err).Msg("almacén de idempotencia no disponible")
			return c.Next()
		}
		if !reserved {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Code:    "IDEMPOTENCY_IN_PROGRESS",
				Message: "ya hay una petición en curso con este Idempotency-Key",
			})
		}

		if err := c.Next(); err != nil {
			_ = store.Release(ctx, key)
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			if err := store.Release(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", header).Msg("no se pudo liberar la llave")
			}
			return nil
		}
		resp := ports.StoredResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Complete(ctx, key, resp, ttl); err != nil {
			log.Warn().Err(err).Str("key", header).Msg("no se pudo guardar la respuesta")
		}
		return nil
	}
}

// MetricsHandler expone el registro Prometheus en formato de texto.
func MetricsHandler(reg *prometheus.Registry) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
}
