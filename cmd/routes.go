package main

import (
	"reviso/internal/handlers"
	"reviso/internal/middleware"
	"reviso/internal/models"

	_ "reviso/docs"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type routeDeps struct {
	health        *handlers.HealthHandlers
	onboarding    *handlers.OnboardingHandlers
	webhooks      *handlers.WebhookHandlers
	auth          *handlers.AuthHandlers
	subscriptions *handlers.SubscriptionHandlers
	tenants       *handlers.TenantHandlers
	jwt           echo.MiddlewareFunc
	access        *middleware.AccessMiddleware
}

func registerRoutes(e *echo.Echo, d routeDeps) {
	e.GET("/health", d.health.LivenessCheck)
	e.GET("/health/ready", d.health.ReadinessCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.GET("/public/config", d.onboarding.GetPublicConfig)

	onboarding := e.Group("/onboarding")
	onboarding.GET("/plans", d.onboarding.ListPlans)
	onboarding.POST("/signup", d.onboarding.Signup)
	onboarding.GET("/checkout-status", d.onboarding.CheckoutStatus)
	onboarding.POST("/webhook/stripe", d.webhooks.StripeWebhook)

	v1 := middleware.NewVersionMiddleware().Group(e, "v1")
	v1.POST("/auth/login", d.auth.Login)

	protected := v1.Group("", d.jwt)
	protected.GET("/me", d.auth.Me)
	protected.GET("/agency/subscription", d.subscriptions.GetAgencySubscription, d.access.Require(middleware.AccessRead))

	admin := protected.Group("/admin",
		middleware.RequireRole(models.RoleAgencyAdmin),
		middleware.AuditTrail("tenant.provision"),
	)
	admin.POST("/tenants/:agencyId/provision", d.tenants.ProvisionTenant)
}
