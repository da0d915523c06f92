package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"echonest/database"
	"echonest/feed"
	"echonest/handlers"
	"echonest/images"
	"echonest/likes"
	"echonest/models"
	"echonest/posting"
	"echonest/push"
	"echonest/routes"
	"echonest/session"
	"echonest/store"
	"echonest/websocket"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("Starting EchoNest server...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	mongoURI := os.Getenv("MONGODB_URI")
	cloudinaryURL := os.Getenv("CLOUDINARY_URL")

	if jwtSecret == "" || mongoURI == "" {
		log.Fatal("JWT_SECRET and MONGODB_URI must be set")
	}
	if cloudinaryURL == "" {
		log.Fatal("CLOUDINARY_URL must be set")
	}

	// ===== CONNECT TO MONGODB WITH RETRY =====
	log.Println("Connecting to MongoDB...")

	var dbErr error
	for i := 1; i <= 3; i++ {
		if err := database.ConnectMongo(); err != nil {
			dbErr = err
			log.Printf("MongoDB connection attempt %d failed: %v", i, err)
			time.Sleep(2 * time.Second)
			continue
		}
		dbErr = nil
		break
	}
	if dbErr != nil {
		log.Fatal("Failed to connect to MongoDB: ", dbErr)
	}

	// ===== GIN MODE =====
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// ===== WIRING =====
	postStore := store.NewPostStore(database.Posts)

	uploader, err := images.NewCloudinary(cloudinaryURL)
	if err != nil {
		log.Fatal("Cloudinary configuration error: ", err)
	}

	wsManager := websocket.NewManager()
	go wsManager.Start()

	notifier := push.NewNotifier(database.PushSubs)
	if !notifier.Configured() {
		log.Println("VAPID keys not set, like notifications disabled")
	}

	sessions := session.ContextProvider{}
	handlers.Configure(handlers.Deps{
		Posts:    posting.NewCoordinator(postStore, uploader, sessions),
		Likes:    likes.NewCoordinator(postStore, wsManager, sessions),
		Feed:     postStore,
		Notifier: notifier,
		WS:       wsManager,
	})

	// ===== LIVE FEED =====
	feedCtx, feedCancel := context.WithCancel(context.Background())
	defer feedCancel()

	synchronizer := feed.New(postStore)
	unsubscribe, err := synchronizer.Subscribe(feedCtx,
		func(posts []models.Post) {
			wsManager.BroadcastSnapshot(posts)
		},
		func(err error) {
			// No automatic reconnect: the feed stays in an error state
			// until the process is restarted.
			log.Printf("Feed subscription failed: %v", err)
			wsManager.BroadcastFeedError(err)
		},
	)
	if err != nil {
		log.Fatal("Failed to subscribe to the post feed: ", err)
	}

	// ===== ROUTER =====
	router := routes.SetupRouter()

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "EchoNest Backend Running",
			"service": "healthy",
		})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.Handler(wsManager, jwtSecret)(c.Writer, c.Request)
	})

	// ===== SERVER CONFIG =====
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	unsubscribe()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("Forced shutdown: ", err)
	}

	if err := database.DisconnectMongo(); err != nil {
		log.Println("MongoDB disconnect error: ", err)
	}

	log.Println("Server stopped gracefully")
}
