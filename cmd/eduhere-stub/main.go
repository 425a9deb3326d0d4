package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/logging"
	"github.com/Spok95/eduhere-client/internal/stub"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", ":8000", "listen address")
	ttl := flag.Duration("access-ttl", stub.DefaultAccessTTL, "lifetime of issued access tokens")
	secret := flag.String("secret", os.Getenv("STUB_JWT_SECRET"), "HS256 signing secret")
	flag.Parse()

	lg, err := logging.Init(os.Getenv("LOG_LEVEL"), os.Getenv("ENV"), "stub")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer lg.Closer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := stub.New(stub.Options{Secret: *secret, AccessTTL: *ttl, Logger: lg.Base})
	srv := &http.Server{Addr: *addr, Handler: backend.Router(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		backend.Close()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	lg.Base.Info("stub backend listening", zap.String("addr", *addr), zap.Duration("access_ttl", *ttl))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Base.Error("http server", zap.Error(err))
		os.Exit(1)
	}
}
