// Package server exposes the mini app's host boundary and the wallet API
// over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/Mohsinsiddi/monsend/internal/chain"
	"github.com/Mohsinsiddi/monsend/internal/config"
	"github.com/Mohsinsiddi/monsend/internal/frame"
	"github.com/Mohsinsiddi/monsend/internal/history"
	"github.com/Mohsinsiddi/monsend/internal/refresh"
	"github.com/Mohsinsiddi/monsend/internal/token"
	"github.com/Mohsinsiddi/monsend/internal/tracker"
)

// Response is the envelope of every wallet API reply.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ReceiptReader looks up receipts for the status endpoint.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, hash string) (*chain.Receipt, error)
}

// TxTracker follows a submitted transaction until it is terminal.
// *tracker.Tracker satisfies it.
type TxTracker interface {
	Track(ctx context.Context, sub tracker.Submission) (history.Record, error)
}

// Deps are the components the handlers call into.
type Deps struct {
	Frame    frame.Config
	Network  chain.Network
	Webhook  *frame.Webhook
	Notifier *frame.Notifier
	Tokens   *token.Aggregator
	Book     *history.Book
	Scanner  *history.Scanner
	Receipts ReceiptReader
	Tracker  TxTracker
	Cache    *refresh.Cache
	Logger   *log.Logger
}

// Server is the HTTP surface.
type Server struct {
	Deps
	engine *gin.Engine

	// bg outlives requests; background tracking stops when it ends.
	bg       context.Context
	tracking sync.WaitGroup
}

// New builds the router.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.Cache == nil {
		d.Cache = refresh.NewCache(refresh.DefaultTTL)
	}
	if d.Network.ID == 0 {
		d.Network = chain.MonadTestnet
	}
	s := &Server{Deps: d, engine: gin.New(), bg: context.Background()}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.homePage)
	s.engine.GET("/.well-known/farcaster.json", s.manifest)

	api := s.engine.Group("/api")
	{
		api.POST("/webhook", s.webhook)
		api.POST("/send-notification", s.sendNotification)

		wallets := api.Group("/wallets/:address", requireAddress)
		{
			wallets.GET("/balance", s.balance)
			wallets.GET("/tokens", s.tokens)
			wallets.GET("/nfts", s.nfts)
			wallets.GET("/transactions", s.transactions)
		}
		api.POST("/transactions", s.trackTransaction)
		api.GET("/transactions/:hash", s.transactionStatus)
		api.POST("/tokens/verify", s.verifyToken)
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	s.bg = ctx
	defer s.tracking.Wait()

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		s.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Status: "ok", Message: message, Data: data})
}

func fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{Status: "error", Message: message})
}
