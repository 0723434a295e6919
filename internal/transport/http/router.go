package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/mkarpushin/storefront/internal/handlers"
	"github.com/mkarpushin/storefront/internal/handlers/cart"
)

type Deps struct {
	AuthHandler *handlers.AuthHandler
	CartHandler *cart.CartHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	frontend := e.Group("/frontend")

	auth := frontend.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.LogOut)

	frontend.GET("/cart", d.CartHandler.GetCart)
	frontend.POST("/cart/merge", d.CartHandler.MergeCart)
}
