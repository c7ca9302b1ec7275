package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/arnold-commerce/backend/controllers"
	"github.com/arnold-commerce/backend/middleware"
)

// Controllers bundles the handlers the router wires up.
type Controllers struct {
	Auth    *controllers.AuthController
	Product *controllers.ProductController
	Cart    *controllers.CartController
	Order   *controllers.OrderController
}

// Register wires all routes onto the engine. Authenticated groups sit behind
// the session guard; /api/auth carries a tighter per-IP rate limit.
func Register(r *gin.Engine, ctrl Controllers, guard middleware.Validator) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit(rate.Every(time.Minute/30), 10))
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
		auth.POST("/logout", middleware.RequireAuth(guard), ctrl.Auth.Logout)
	}

	products := api.Group("/products")
	{
		products.GET("", ctrl.Product.List)
		products.GET("/:id", ctrl.Product.Get)
	}

	users := api.Group("/users", middleware.RequireAuth(guard))
	{
		users.GET("/me", ctrl.Auth.Me)
		users.PUT("/me/password", ctrl.Auth.ChangePassword)
		users.DELETE("/me", ctrl.Auth.DeleteAccount)
	}

	cart := api.Group("/cart", middleware.RequireAuth(guard))
	{
		cart.GET("", ctrl.Cart.GetCart)
		cart.DELETE("", ctrl.Cart.Clear)
		cart.POST("/items", ctrl.Cart.AddItem)
		cart.PUT("/items/:productId", ctrl.Cart.UpdateItem)
		cart.DELETE("/items/:productId", ctrl.Cart.RemoveItem)
		cart.POST("/checkout", ctrl.Cart.Checkout)
	}

	orders := api.Group("/orders", middleware.RequireAuth(guard))
	{
		orders.GET("", ctrl.Order.List)
	}
}
