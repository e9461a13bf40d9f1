package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/bastion/iam/auth"
	"github.com/Abraxas-365/bastion/iam/auth/authinfra"
	"github.com/Abraxas-365/bastion/operatelog"
	"github.com/Abraxas-365/bastion/operatelog/opinfra"
	"github.com/Abraxas-365/bastion/operatelog/opsrv"
	"github.com/Abraxas-365/bastion/pipeline"
	"github.com/Abraxas-365/bastion/pkg/config"
	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/Abraxas-365/bastion/pkg/storage"
	"github.com/Abraxas-365/bastion/remote"
	"github.com/Abraxas-365/bastion/remote/remoteinfra"
	"github.com/Abraxas-365/bastion/user"
	"github.com/Abraxas-365/bastion/user/userapi"
	"github.com/Abraxas-365/bastion/user/userinfra"
	"github.com/Abraxas-365/bastion/user/usersrv"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Container contains all application dependencies
type Container struct {
	// =================================================================
	// CONFIGURATION & INFRASTRUCTURE
	// =================================================================
	Config      *config.Config
	DB          *sqlx.DB
	RedisClient *redis.Client

	// =================================================================
	// REMOTE DEPENDENCIES (decoradas con su política de degradación)
	// =================================================================
	OperateLogClient remote.OperateLogClient
	PermissionClient remote.PermissionClient

	// =================================================================
	// ERROR LOG (cola + flusher)
	// =================================================================
	ErrorLogQueue   operatelog.ErrorLogQueue
	ErrorLogRepo    operatelog.ErrorLogRepository
	ErrorLogService *opsrv.ErrorLogService

	// =================================================================
	// STORAGE
	// =================================================================
	ObjectStore storage.ObjectStore

	// =================================================================
	// AUTH
	// =================================================================
	TokenService    auth.TokenService
	SessionRepo     auth.SessionRepository
	PasswordService auth.PasswordService
	AuthFilter      *auth.AuthFilter
	AuthHandlers    *auth.AuthHandlers

	// =================================================================
	// USER
	// =================================================================
	UserRepo    user.Repository
	UserService *usersrv.Service
	UserHandler *userapi.Handler

	// =================================================================
	// PIPELINE
	// =================================================================
	Pipeline   *pipeline.Pipeline
	Dispatcher *pipeline.Dispatcher
}

// publicPrefixes rutas que no exigen identidad
var publicPrefixes = []string{
	"/admin-api/auth/login",
	"/app-api/auth/login",
}

// noisyMessages fallos de negocio esperados que no se loguean
var noisyMessages = []string{
	"invalid email or password",
}

// NewContainer inicializa todas las dependencias de la aplicación
func NewContainer(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client) *Container {
	c := &Container{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
	}

	// =================================================================
	// REMOTE: clientes HTTP decorados con su política
	// =================================================================
	c.OperateLogClient = remote.NewOperateLogFallback(
		remoteinfra.NewHTTPOperateLogClient(cfg.Remote.LogServiceURL, cfg.Remote.Timeout))
	c.PermissionClient = remote.NewPermissionFallback(
		remoteinfra.NewHTTPPermissionClient(cfg.Remote.PermissionServiceURL, cfg.Remote.Timeout))

	// =================================================================
	// ERROR LOG
	// =================================================================
	c.ErrorLogQueue = opinfra.NewRedisErrorLogQueue(redisClient, cfg.OperateLog.QueueKey)
	c.ErrorLogRepo = opinfra.NewPostgresErrorLogRepository(db)
	c.ErrorLogService = opsrv.NewErrorLogService(c.ErrorLogQueue, c.ErrorLogRepo, cfg.OperateLog)

	// =================================================================
	// STORAGE
	// =================================================================
	c.ObjectStore = storage.NewS3Store(cfg.Storage)

	// =================================================================
	// AUTH
	// =================================================================
	c.TokenService = auth.NewJWTService(cfg.Auth.JWT)
	c.SessionRepo = authinfra.NewRedisSessionRepository(redisClient)
	c.PasswordService = authinfra.NewBcryptPasswordService(cfg.Auth.PasswordHashCost)

	// =================================================================
	// USER
	// =================================================================
	c.UserRepo = userinfra.NewPostgresUserRepository(db)
	c.UserService = usersrv.NewService(c.UserRepo, c.PasswordService, c.PermissionClient, c.ObjectStore)
	c.UserHandler = userapi.NewHandler(c.UserService)

	// El módulo de usuarios resuelve credenciales para el login
	c.AuthHandlers = auth.NewAuthHandlers(c.TokenService, c.SessionRepo, c.PasswordService, c.UserService, cfg.Auth)
	c.AuthFilter = auth.NewAuthFilter(c.TokenService, c.SessionRepo,
		cfg.Pipeline.AdminAPIPrefix, cfg.Pipeline.AppAPIPrefix, publicPrefixes)

	// =================================================================
	// PIPELINE & DISPATCHER
	// =================================================================
	c.Dispatcher = pipeline.NewDispatcher(pipeline.DispatcherOptions{
		NoisyMessages: noisyMessages,
		Sink:          errorSinkAdapter{svc: c.ErrorLogService},
	})

	c.Pipeline = pipeline.New().
		Register(pipeline.NewRequestContextFilter()).
		Register(pipeline.NewBodyCacheFilter(cfg.Pipeline.BodyCacheExcludedPrefixes)).
		Register(pipeline.NewAccessLogFilter(c.OperateLogClient, cfg.Remote.Timeout, c.Dispatcher)).
		Register(pipeline.NewContentGuardFilter()).
		Register(c.AuthFilter.Filter()).
		Register(auth.NewTenantCheckFilter()).
		Register(pipeline.NewDemoGuardFilter(cfg.Pipeline.DemoMode))

	return c
}

// Start arranca los procesos de fondo del contenedor
func (c *Container) Start() error {
	return c.ErrorLogService.StartFlusher()
}

// Cleanup libera los recursos del contenedor
func (c *Container) Cleanup() {
	c.ErrorLogService.Stop()
}

// HealthCheck verifica la salud de las dependencias de infraestructura
func (c *Container) HealthCheck() map[string]bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return map[string]bool{
		"database": c.DB.PingContext(ctx) == nil,
		"redis":    c.RedisClient.Ping(ctx).Err() == nil,
	}
}

// errorSinkAdapter adapta el servicio de error logs al sink del
// dispatcher
type errorSinkAdapter struct {
	svc *opsrv.ErrorLogService
}

func (a errorSinkAdapter) SubmitErrorLog(entry pipeline.ErrorLogEntry) {
	a.svc.Submit(operatelog.ErrorLog{
		ID:        kernel.NewLogID(uuid.New().String()),
		TraceID:   entry.TraceID,
		UserID:    entry.UserID,
		TenantID:  entry.TenantID,
		Method:    entry.Method,
		Path:      entry.Path,
		Msg:       entry.Msg,
		CreatedAt: entry.At,
	})
}
