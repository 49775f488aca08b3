package routes

import (
	"recipe-vault/internal/api/handlers"
	"recipe-vault/internal/middleware"
	"recipe-vault/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	App               *fiber.App
	UserHandler       handlers.UserHandler
	RecipeHandler     handlers.RecipeHandler
	CollectionHandler handlers.CollectionHandler
	MediaHandler      handlers.MediaHandler
	Middleware        middleware.Middleware
	JWTService        jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Recipe()
	c.RecipeList()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
		user.Get("/me/recipes", c.Middleware.AuthMiddleware(c.JWTService), c.RecipeHandler.GetMyRecipes)
		user.Get("/me/saved-recipes", c.Middleware.AuthMiddleware(c.JWTService), c.RecipeHandler.GetMySavedRecipes)
		user.Get("/me/recipe-lists", c.Middleware.AuthMiddleware(c.JWTService), c.CollectionHandler.GetMyRecipeLists)
		user.Patch("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.UpdateMe)
		user.Delete("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.DeleteMe)

		// Superuser administration; GET /:id also serves the caller themselves
		user.Get("", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.GetUsers)
		user.Post("", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.CreateUser)
		user.Get("/:id", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.GetUser)
		user.Patch("/:id", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.UpdateUser)
		user.Delete("/:id", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.DeleteUser)
	}
}

func (c *Config) Recipe() {
	recipes := c.App.Group("/api/v1/recipes", c.Middleware.AuthMiddleware(c.JWTService))

	recipes.Post("", c.RecipeHandler.CreateRecipe)
	recipes.Get("", c.RecipeHandler.GetRecipes)
	recipes.Get("/search", c.RecipeHandler.SearchRecipes)
	recipes.Post("/images", c.MediaHandler.UploadRecipeImage)
	recipes.Get("/:id", c.RecipeHandler.GetRecipe)
	recipes.Patch("/:id", c.RecipeHandler.DeriveVersion)
	recipes.Delete("/:id", c.RecipeHandler.DeleteRecipe)

	// Versioning and saves
	recipes.Get("/:id/versions", c.RecipeHandler.GetVersions)
	recipes.Post("/:id/save", c.RecipeHandler.SaveRecipe)
	recipes.Delete("/:id/save", c.RecipeHandler.UnsaveRecipe)
}

func (c *Config) RecipeList() {
	lists := c.App.Group("/api/v1/recipe-lists", c.Middleware.AuthMiddleware(c.JWTService))

	lists.Post("", c.CollectionHandler.CreateRecipeList)
	lists.Get("/:id", c.CollectionHandler.GetRecipeList)
	lists.Delete("/:id", c.CollectionHandler.DeleteRecipeList)
	lists.Post("/:id/recipes/:recipe_id", c.CollectionHandler.AddRecipe)
	lists.Delete("/:id/recipes/:recipe_id", c.CollectionHandler.RemoveRecipe)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
