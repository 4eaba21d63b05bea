package web

import (
	"errors"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"tweet-monitor/internal/domain"
	"tweet-monitor/internal/metrics"
	"tweet-monitor/internal/usecases"
	"tweet-monitor/pkg/log"
)

// MessageUnauthorized is the fixed body message for rejected credentials.
const MessageUnauthorized = "Unauthorized request"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Handlers contains the HTTP handlers for the monitor.
type Handlers struct {
	service string
	auth    *usecases.Authenticator
	webhook *usecases.ProcessWebhookUseCase
	stats   *usecases.GetStatsUseCase
	now     func() time.Time
}

// NewHandlers creates a new Handlers instance. stats may be nil.
func NewHandlers(service string, auth *usecases.Authenticator, webhook *usecases.ProcessWebhookUseCase, stats *usecases.GetStatsUseCase) *Handlers {
	return &Handlers{
		service: service,
		auth:    auth,
		webhook: webhook,
		stats:   stats,
		now:     time.Now,
	}
}

// render is a helper to render templ components.
func render(c *fiber.Ctx, component templ.Component) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return adaptor.HTTPHandler(templ.Handler(component))(c)
}

// Webhook authenticates and processes a pushed batch of tweets.
func (h *Handlers) Webhook(c *fiber.Ctx) error {
	ctx := c.UserContext()

	decision := h.auth.Verify(credential(c))
	if !decision.Accepted {
		metrics.WebhookRequestsTotal.WithLabelValues(metrics.OutcomeUnauthorized).Inc()
		log.GlobalWarnCtx(ctx, "unauthorized webhook request", "reason", decision.Reason, "ip", c.IP())
		return writeError(c, fiber.StatusUnauthorized, MessageUnauthorized)
	}
	if decision.Disabled {
		metrics.AuthDisabledRequestsTotal.Inc()
	}

	summary, err := h.webhook.Execute(ctx, c.Body())
	if err != nil {
		if errors.Is(err, domain.ErrMalformedPayload) {
			metrics.WebhookRequestsTotal.WithLabelValues(metrics.OutcomeMalformed).Inc()
			log.GlobalWarnCtx(ctx, "malformed webhook payload", "error", err)
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	metrics.WebhookRequestsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	return c.Status(fiber.StatusOK).JSON(summary)
}

// credential returns the X-API-Key value. A repeated header resolves to
// its last value.
func credential(c *fiber.Ctx) string {
	values := c.Request().Header.PeekAll(usecases.HeaderAPIKey)
	if len(values) == 0 {
		return ""
	}
	return string(values[len(values)-1])
}

// Health reports liveness and whether an API key is configured.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(usecases.NewHealthReport(h.service, h.auth.Enabled(), h.now()))
}

// Stats reports how many tweets were stored today.
func (h *Handlers) Stats(c *fiber.Ctx) error {
	if h.stats == nil {
		return writeError(c, fiber.StatusNotFound, "Stats are not enabled")
	}

	report, err := h.stats.Execute(c.UserContext())
	if err != nil {
		log.GlobalErrorCtx(c.UserContext(), "stats lookup failed", "error", err)
		return writeError(c, fiber.StatusInternalServerError, "Error retrieving stats")
	}
	return c.JSON(report)
}

// Status renders the HTML status page.
func (h *Handlers) Status(c *fiber.Ctx) error {
	view := StatusView{
		Service:     h.service,
		AuthEnabled: h.auth.Enabled(),
		TweetsToday: -1,
		GeneratedAt: usecases.FormatTimestamp(h.now()),
	}
	if h.stats != nil {
		if report, err := h.stats.Execute(c.UserContext()); err == nil {
			view.TweetsToday = report.TweetsToday
		}
	}
	return render(c, StatusPage(view))
}

// ErrorHandler turns any error escaping a handler into the JSON error body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		log.GlobalErrorCtx(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	}

	return writeError(c, code, message)
}

func writeError(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(ErrorResponse{Status: usecases.StatusError, Message: message})
}
