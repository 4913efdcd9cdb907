package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/m3rciful/placementbot/core/logger"
)

// Server serves /metrics and /healthz until its context is cancelled.
type Server struct {
	srv  *http.Server
	done chan struct{}
}

func newMux(health func(context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			hctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
			defer cancel()
			if err := health(hctx); err != nil {
				http.Error(w, "not ok: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", Handler())
	return mux
}

// StartServer listens on addr in the background. health may be nil.
func StartServer(ctx context.Context, addr string, health func(context.Context) error) *Server {
	s := &Server{
		srv:  &http.Server{Addr: addr, Handler: newMux(health), ReadHeaderTimeout: 5 * time.Second},
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		logger.Info(ctx, logger.CompMetrics, "http.listen", slog.String("listen", addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, logger.CompMetrics, "http.listen",
				slog.String("status", "fail"),
				slog.String("listen", addr),
				slog.String("err", err.Error()),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shCtx)
	}()

	return s
}

// Wait blocks until the listener has stopped.
func (s *Server) Wait() {
	if s == nil {
		return
	}
	<-s.done
}
