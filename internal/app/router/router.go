// Package router assembles the HTTP routes of the service.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	accounthandler "microblog/internal/feature/account/transport/handler"
	graphhandler "microblog/internal/feature/graph/transport/handler"
	posthandler "microblog/internal/feature/posts/transport/handler"
	searchhandler "microblog/internal/feature/search/transport/handler"
	translatehandler "microblog/internal/feature/translate/transport/handler"
	jwtmw "microblog/internal/platform/jwt"
	"microblog/internal/platform/metrics"
)

// Handlers groups every feature handler the router mounts.
type Handlers struct {
	Account   *accounthandler.AccountHandler
	Graph     *graphhandler.GraphHandler
	Posts     *posthandler.PostHandler
	Search    *searchhandler.SearchHandler
	Translate *translatehandler.TranslateHandler
	Health    gin.HandlerFunc
	Metrics   http.Handler
}

// Options configures the middleware stack.
type Options struct {
	JWTSecret   string
	CORSOrigins []string // Empty allows every origin
	Recorder    metrics.MetricsCollector
	// AdminUserIDs may trigger operator actions such as an index rebuild. Empty disables them.
	AdminUserIDs []uint
	// OnAuthenticated runs after a bearer token is accepted, e.g. to record LastSeen.
	OnAuthenticated []jwtmw.OnAuthenticated
}

// NewRouter builds the gin engine.
func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	if opts.Recorder != nil {
		r.Use(metrics.Middleware(opts.Recorder))
	}

	// Public
	r.GET("/healthz", h.Health)
	r.HEAD("/healthz", h.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}
	r.POST("/register", h.Account.Register)
	r.POST("/login", h.Account.Login)
	r.POST("/password_reset_request", h.Account.RequestPasswordReset)
	r.POST("/password_reset/:token", h.Account.ResetPassword)
	r.GET("/explore", h.Posts.Explore)
	r.GET("/search", h.Search.Search)
	r.GET("/users/:username", h.Account.Profile)

	// Bearer token required
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(opts.JWTSecret, opts.OnAuthenticated...))
	{
		auth.GET("/feed", h.Posts.Feed)
		auth.POST("/posts", h.Posts.CreatePost)
		auth.DELETE("/posts/:id", h.Posts.DeletePost)
		auth.PUT("/profile", h.Account.UpdateProfile)
		auth.POST("/follow/:username", h.Graph.Follow)
		auth.POST("/unfollow/:username", h.Graph.Unfollow)
		auth.POST("/translate", h.Translate.Translate)
		auth.POST("/admin/reindex", jwtmw.RequireUsers(opts.AdminUserIDs...), h.Search.Reindex)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodHead, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
