package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/givehub/givehub-api/docs"
	v1 "github.com/givehub/givehub-api/internal/api/handler/v1"
	"github.com/givehub/givehub-api/internal/api/middleware"
	"github.com/givehub/givehub-api/internal/config"
	"github.com/givehub/givehub-api/internal/repository"
	"github.com/givehub/givehub-api/internal/repository/dao"
	"github.com/givehub/givehub-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	campaignHandler := s.initCampaignHandler(db)
	chatHandler := s.initChatHandler(db)
	s.MountHandlers(authHandler, userHandler, campaignHandler, chatHandler)

	// The hub owns the websocket rooms for the chat endpoints.
	go chatHandler.Run()

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initCampaignHandler(db *gorm.DB) *v1.CampaignHandler {
	campaignDAO := dao.NewCampaignDAO(db)
	repo := repository.NewCampaignRepository(campaignDAO)
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewCampaignService(repo, userRepo)
	uSvc := service.NewUserService(userRepo)
	handler := v1.NewCampaignHandler(svc, uSvc)

	return handler
}

func (s *Server) initChatHandler(db *gorm.DB) *v1.ChatHandler {
	chatDAO := dao.NewChatDAO(db)
	repo := repository.NewChatRepository(chatDAO)
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewChatService(repo, userRepo)
	uSvc := service.NewUserService(userRepo)
	handler := v1.NewChatHandler(svc, uSvc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, userHandler *v1.UserHandler, campaignHandler *v1.CampaignHandler, chatHandler *v1.ChatHandler) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	users := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		users.GET("/users/:userID", userHandler.HandleGetUser)
	}

	campaigns := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		campaigns.GET("/campaigns", campaignHandler.HandleGetCampaigns)
		campaigns.POST("/campaigns", campaignHandler.HandleCreateCampaign)
		campaigns.GET("/campaigns/:campaignID", campaignHandler.HandleGetCampaign)
		campaigns.POST("/campaigns/:campaignID/donations", campaignHandler.HandleCreateDonation)
		campaigns.GET("/campaigns/:campaignID/donations", campaignHandler.HandleGetDonations)
		campaigns.GET("/campaigns/:campaignID/donations/export", campaignHandler.HandleExportDonations)
	}

	chats := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		chats.POST("/chats", chatHandler.HandleOpenChat)
		chats.GET("/chats", chatHandler.HandleGetChats)
		chats.GET("/chats/:chatID", chatHandler.HandleGetChat)
		chats.GET("/chats/:chatID/messages", chatHandler.HandleGetChatMessages)
		chats.POST("/chats/:chatID/messages", chatHandler.HandleSendMessage)
		chats.POST("/chats/:chatID/proposals", chatHandler.HandleSendProposal)
		chats.POST("/chats/:chatID/proposals/:messageID/accept", chatHandler.HandleAcceptProposal)
		chats.POST("/chats/:chatID/proposals/:messageID/reject", chatHandler.HandleRejectProposal)
		chats.GET("/chats/:chatID/ws", chatHandler.HandleWebSocket)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "GiveHub API"
	docs.SwaggerInfo.Description = "Donation platform API with organization/vendor chat and transaction proposals."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
