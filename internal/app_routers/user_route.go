package approuters

import (
	"Voxline/internal/configuration"
	"Voxline/internal/handler"

	"github.com/gin-gonic/gin"
)

func AuthRouters(api *gin.RouterGroup, container *configuration.Container) {
	authRoute := api.Group("/auth")
	{
		authRoute.POST("/register", container.AuthHandler.Register)
		authRoute.POST("/login", container.AuthHandler.Login)

		protected := authRoute.Group("", handler.AuthMiddleware(container.Tokens))
		protected.POST("/logout", container.AuthHandler.Logout)
		protected.GET("/profile", container.AuthHandler.Profile)
	}
}

func UserRouters(api *gin.RouterGroup, container *configuration.Container) {
	userRoute := api.Group("/users", handler.AuthMiddleware(container.Tokens))
	{
		userRoute.GET("", container.UserHandler.GetAllUsers)
		userRoute.PUT("/status", container.UserHandler.UpdateStatus)
		userRoute.GET("/:id", container.UserHandler.GetUser)
	}
}

func MessageRouters(api *gin.RouterGroup, container *configuration.Container) {
	messageRoute := api.Group("/messages", handler.AuthMiddleware(container.Tokens))
	{
		messageRoute.GET("/:userId", container.MessageHandler.GetMessages)
		messageRoute.POST("", container.MessageHandler.SendMessage)
		messageRoute.DELETE("/:id", container.MessageHandler.DeleteMessage)
	}
}

func CallRouters(api *gin.RouterGroup, container *configuration.Container) {
	callRoute := api.Group("/calls", handler.AuthMiddleware(container.Tokens))
	{
		callRoute.POST("", container.CallHandler.StartCall)
		callRoute.GET("", container.CallHandler.GetCallHistory)
		callRoute.GET("/:id", container.CallHandler.GetCall)
		callRoute.PUT("/:id", container.CallHandler.UpdateCall)
	}
}
