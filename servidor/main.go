package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"YardVision/servidor/internal/bridge"
	"YardVision/shared/config"
	"YardVision/shared/logging"
	"YardVision/shared/telemetry"
)

func main() {
	// Garante que o working directory é o mesmo diretório do executável,
	// para que caminhos relativos (config.json, tmp/) funcionem corretamente.
	if exePath, err := os.Executable(); err == nil {
		_ = os.Chdir(filepath.Dir(exePath))
	}

	addr := flag.String("addr", "", "Endereço de escuta (padrão: listen_addr do config.json)")
	configDir := flag.String("config", "", "Diretório do config.json")
	flag.Parse()

	cfg, cfgErr := config.Load(*configDir)
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	_ = os.MkdirAll("tmp", 0755)
	root, closer := logging.Setup(cfg.LogLevel, filepath.Join("tmp", "server.log"))
	if closer != nil {
		defer closer.Close()
	}
	log := logging.For(root, "Ponte")
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("config.json inválido, usando padrões")
	}
	log.Info().Str("addr", cfg.ListenAddr).Msg("YardVision SERVER iniciando")

	srv, err := bridge.NewServer(log, telemetry.New(nil))
	if err != nil {
		log.Fatal().Err(err).Msg("Esquemas JSON inválidos")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.Run(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdown)
	}()

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Servidor HTTP falhou")
		return
	}
	log.Info().Msg("Servidor encerrado")
}
