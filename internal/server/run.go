package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/setavenger/utxo-dump/internal/logging"
)

func NewRouter(api *ApiHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger)
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/status", api.GetStatus)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// RunServer serves the status endpoints on host until ctx is done.
func RunServer(ctx context.Context, host string, api *ApiHandler) error {
	srv := &http.Server{
		Addr:              host,
		Handler:           NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.L.Err(err).Msg("status server shutdown")
		}
	}()

	logging.L.Info().Str("host", host).Msg("status server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.L.Err(err).Msg("could not run server")
		return err
	}
	return nil
}
