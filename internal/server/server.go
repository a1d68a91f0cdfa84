package server

import (
	"context"
	"net/http"

	"marketplace/internal/config"
	"marketplace/internal/handler"
	appmw "marketplace/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo           *echo.Echo
	cfg            config.Config
	authHandler    *handler.AuthHandler
	productHandler *handler.ProductHandler
	cartHandler    *handler.CartHandler
	orderHandler   *handler.OrderHandler
	adminOrderH    *handler.AdminOrderHandler
	paymentHandler *handler.PaymentHandler
}

func NewServer(
	cfg config.Config,
	authH *handler.AuthHandler,
	productH *handler.ProductHandler,
	cartH *handler.CartHandler,
	orderH *handler.OrderHandler,
	adminOrderH *handler.AdminOrderHandler,
	paymentH *handler.PaymentHandler,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.FEURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	s := &Server{
		echo:           e,
		cfg:            cfg,
		authHandler:    authH,
		productHandler: productH,
		cartHandler:    cartH,
		orderHandler:   orderH,
		adminOrderH:    adminOrderH,
		paymentHandler: paymentH,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- 認証不要 --------
	api.POST("/auth/register", s.authHandler.Register)
	api.POST("/auth/login", s.authHandler.Login)
	api.GET("/products", s.productHandler.List)
	api.GET("/products/:id", s.productHandler.Detail)

	// -------- 要ログイン --------
	authed := api.Group("", appmw.AuthJWT(s.cfg))
	authed.GET("/cart", s.cartHandler.Get)
	authed.POST("/cart/items", s.cartHandler.Add)
	authed.PUT("/cart/items/:id", s.cartHandler.Update)
	authed.DELETE("/cart/items/:id", s.cartHandler.Remove)
	authed.DELETE("/cart", s.cartHandler.Clear)

	authed.POST("/orders", s.orderHandler.Place)
	authed.GET("/orders", s.orderHandler.List)
	authed.GET("/orders/:id", s.orderHandler.Detail)
	authed.POST("/orders/:id/cancel", s.orderHandler.Cancel)

	authed.POST("/payments", s.paymentHandler.Process)

	// -------- 管理者 --------
	admin := api.Group("/admin", appmw.AuthJWT(s.cfg), appmw.AdminOnly())
	admin.POST("/products", s.productHandler.AdminCreate)
	admin.PUT("/products/:id", s.productHandler.AdminUpdate)
	admin.DELETE("/products/:id", s.productHandler.AdminDelete)
	admin.GET("/orders", s.adminOrderH.List)
	admin.PUT("/orders/:id/status", s.adminOrderH.UpdateStatus)
	admin.GET("/payments", s.paymentHandler.AdminList)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
