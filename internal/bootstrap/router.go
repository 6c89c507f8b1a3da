package bootstrap

import (
	"database/sql"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/DaInfernalCoder/idea-to-epic-maker/internal/api/http"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/api/http/middleware"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/feedback"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/generate"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/identity"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/onboarding"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/project"
	"github.com/DaInfernalCoder/idea-to-epic-maker/internal/users"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *pgxpool.Pool
	SQL         *sql.DB
	Redis       *redis.Client
	AuthClient  *fbauth.Client // nil in guest-only mode
	Generator   *generate.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Session-Id", "X-Request-Id"},
		ExposeHeaders: []string{"X-Session-Id", "X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestID())
	api.Use(middleware.SessionID())

	var userRepo *users.Repo
	var projectRepo *project.Repo
	var feedbackRepo *feedback.Repo
	var promptLogRepo *generate.PromptLogRepo
	if dep.DB != nil {
		userRepo = users.NewRepo(dep.DB)
		projectRepo = project.NewRepo(dep.DB)
		feedbackRepo = feedback.NewRepo(dep.DB)
		promptLogRepo = generate.NewPromptLogRepo(dep.DB)
	}

	var docsRepo *project.DocsRepo
	if dep.SQL != nil {
		docsRepo = project.NewDocsRepo(dep.SQL)
	}

	api.Use(identity.WithPrincipal(dep.AuthClient, dep.Redis, userRepo))

	identity.Register(api.Group("/auth"), dep.AuthClient)

	project.Register(api.Group("/project"), api.Group("/projects"), projectRepo, docsRepo)

	generate.Register(api.Group("/generate"), dep.Generator, promptLogRepo, projectRepo, docsRepo)

	feedback.Register(api.Group("/feedback"), feedbackRepo)

	onboarding.Register(api.Group("/onboarding"))

	return r
}
