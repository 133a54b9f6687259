// Package devserver runs a local mock of the RunCoach backend so the CLI can
// be exercised without network access. It keeps everything in memory and
// answers chat messages with canned coaching replies.
package devserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// StartOpts holds configuration for the development server.
type StartOpts struct {
	Port int
	Out  io.Writer
}

// Start launches the mock backend. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	router := NewRouter()

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Mock backend running at http://localhost:%d\n", opts.Port)
		fmt.Fprintf(opts.Out, "Log in with dev@runcoach.local / password\n")
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("devserver: %w", err)
	}
	return nil
}

// NewRouter builds the mock backend's routes around a fresh in-memory state.
func NewRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, newState())
	return router
}

func registerRoutes(router *gin.Engine, s *state) {
	router.POST("/api/auth/login", handleLogin(s))
	router.POST("/api/auth/register", handleRegister(s))

	auth := router.Group("/api", requireAuth(s))
	auth.GET("/auth/me", handleProfile(s))
	auth.GET("/chat/messages", handleMessages(s))
	auth.POST("/chat/messages", handleSendMessage(s))
	auth.GET("/workouts", handleWorkouts(s))
	auth.GET("/training-plan", handleTrainingPlan(s))
	auth.PATCH("/workouts/:id/complete", handleCompleteWorkout(s))
	auth.POST("/notifications/register", handleRegisterPush(s))
}

// requireAuth rejects requests that do not carry a token issued by this
// server's login handler.
func requireAuth(s *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tok, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}
		s.mu.Lock()
		valid := s.validToken(tok)
		s.mu.Unlock()
		if !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}
		c.Next()
	}
}

func handleLogin(s *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if req.Email != s.email || req.Password != s.password {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": s.issueToken(), "user": s.user})
	}
}

func handleRegister(s *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
			return
		}
		if req.Email == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "email and password are required"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.user = pickUser(s.user.ID, req.Name, req.Email)
		s.email = req.Email
		s.password = req.Password
		c.JSON(http.StatusCreated, gin.H{"user": s.user})
	}
}

func handleProfile(s *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.JSON(http.StatusOK, s.user)
	}
}

func handleMessages(s *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"messages": s.messages})
	}
}

func handleSendMessage(s *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "message is required"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		user := s.appendMessage(req.Message, true)
		reply := s.appendMessage(coachReply(req.Message), false)
		c.JSON(http.StatusOK, gin.H{"message": user, "aiMessage": reply})
	}
}

func handleWorkouts(s *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"workouts": s.workouts})
	}
}

func handleTrainingPlan(s *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"trainingPlan": s.plan})
	}
}

func handleCompleteWorkout(s *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "bad workout id"})
			return
		}
		var req struct {
			IsComplete bool `json:"isComplete"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.workouts {
			if s.workouts[i].ID == id {
				s.workouts[i].IsComplete = req.IsComplete
				c.JSON(http.StatusOK, gin.H{"workout": s.workouts[i]})
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "workout not found"})
	}
}

func handleRegisterPush(s *state) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PushToken string `json:"pushToken"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.PushToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "pushToken is required"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pushToken = req.PushToken
		c.JSON(http.StatusOK, gin.H{"registered": true})
	}
}
