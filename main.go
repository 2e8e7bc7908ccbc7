package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"progress-service/internal/config"
	"progress-service/internal/db"
	"progress-service/internal/event"
	"progress-service/internal/handlers"
	"progress-service/internal/progress"
	"progress-service/internal/repository"
	"progress-service/internal/scheduler"
	"progress-service/internal/service"
	"progress-service/internal/session"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	db.InitMongo(cfg.MongoDB.URI)
	defer db.Disconnect()

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" && cfg.RabbitMQ.Exchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, progress events will not be published")
	}

	database := db.Client.Database(cfg.MongoDB.Database)

	// Repositories
	learnerRepo := repository.NewLearnerRepository(database)
	contentRepo := repository.NewContentRepository(database)
	progressRepo := repository.NewProgressRepository(database)
	answerRepo := repository.NewAnswerRepository(database)
	attemptRepo := repository.NewAttemptRepository(database)

	// Services
	tracker := progress.NewTracker(progressRepo)
	sessions := session.NewStore(nil)
	submissionService := service.NewSubmissionService(learnerRepo, contentRepo, answerRepo, tracker, cfg.Game, publisher)
	quizService := service.NewQuizService(sessions, contentRepo, learnerRepo, answerRepo, attemptRepo, tracker, cfg.Game, publisher)
	activityService := service.NewActivityService(learnerRepo, cfg.Game, publisher)

	// Handlers
	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	quizHandler := handlers.NewQuizHandler(quizService)
	learnerHandler := handlers.NewLearnerHandler(activityService)
	progressHandler := handlers.NewProgressHandler(tracker, progressRepo, answerRepo)

	// Under the daily_reset policy a midnight sweep refills everyone, so
	// dormant learners come back to full hearts too.
	if cfg.Game.HeartRegenPolicy == config.RegenPolicyDailyReset {
		sweep := scheduler.New(learnerRepo, cfg.Game.MaxHearts, cfg.Game.Timezone)
		sweep.Start()
		defer sweep.Stop()
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public routes - read-only lookups
	public := r.Group("/public/progress")
	{
		public.GET("/attempts/:id", quizHandler.GetAttempt)
	}

	// Protected routes - authenticated by the gateway, which sets X-User-ID
	protected := r.Group("/protected/progress")
	protected.Use(func(c *gin.Context) {
		if c.GetHeader("X-User-ID") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	})
	{
		// Learner state and daily check-in
		protected.GET("/state", learnerHandler.GetState)
		protected.POST("/activity", learnerHandler.RecordActivity)

		// Topic exercise submission
		protected.POST("/units/:unitId/exercises/:exerciseId/answers", submissionHandler.SubmitAnswer)

		// Progress records
		protected.GET("/units", progressHandler.ListProgress)
		protected.GET("/units/:unitId/status", progressHandler.GetUnitStatus)
		protected.GET("/units/:unitId/answers", progressHandler.ListUnitAnswers)

		// Quiz sessions
		protected.POST("/quizzes/:quizId/sessions", func(c *gin.Context) {
			quizHandler.StartSession(c)
			if publisher != nil && c.Writer.Status() < http.StatusBadRequest {
				publisher.Publish("quiz.session.started", gin.H{
					"user_id":   c.GetHeader("X-User-ID"),
					"quiz_id":   c.Param("quizId"),
					"timestamp": time.Now(),
				})
			}
		})
		protected.GET("/sessions/:token", quizHandler.GetSession)
		protected.POST("/sessions/:token/answers", quizHandler.RecordAnswer)
		protected.POST("/sessions/:token/submit", quizHandler.SubmitSession)
		protected.DELETE("/sessions/:token", quizHandler.AbandonSession)

		// Attempt history
		protected.GET("/attempts", quizHandler.ListAttempts)
	}

	r.Run(":" + cfg.Server.Port)
}
