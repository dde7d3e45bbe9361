package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"YardVision/shared/config"
	"YardVision/shared/logging"

	"github.com/rs/zerolog"
)

func main() {
	configDir := flag.String("config", "", "Diretório do config.json")
	wait := flag.Duration("wait", 15*time.Second, "Tempo máximo esperando o servidor responder")
	flag.Parse()

	root, _ := logging.Setup("info", "")
	log := logging.For(root, "Launcher")

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Warn().Err(err).Msg("config.json inválido, usando padrões")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", cfg.ListenAddr).Msg("[1/2] Iniciando servidor ponte...")
	server := exec.CommandContext(ctx, binary("servidor", "server"), "-addr", cfg.ListenAddr)
	server.Dir = "servidor"
	server.Stdout, server.Stderr = os.Stdout, os.Stderr
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("Erro ao iniciar servidor")
	}

	health := "http://" + localAddr(cfg.ListenAddr) + "/healthz"
	if err := waitHealthy(ctx, health, *wait, log); err != nil {
		_ = server.Process.Kill()
		log.Fatal().Err(err).Str("url", health).Msg("Servidor não respondeu")
	}

	log.Info().Msg("[2/2] Abrindo cliente...")
	absClientPath, err := filepath.Abs(binary("cliente", "client"))
	if err != nil {
		log.Fatal().Err(err).Msg("Erro ao resolver caminho do cliente")
	}
	clientCmd := exec.Command(absClientPath, "-server", "ws://"+localAddr(cfg.ListenAddr)+"/ws")
	clientCmd.Dir = "cliente" // assets e saves são relativos à pasta do cliente
	if err := clientCmd.Run(); err != nil {
		log.Error().Err(err).Str("path", absClientPath).Msg("Cliente encerrado com erro")
	}

	// Fechar o cliente derruba o servidor junto.
	stop()
	_ = server.Wait()
	log.Info().Msg("YardVision encerrado")
}

// binary devolve dir/name com a extensão da plataforma.
func binary(dir, name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name)
}

// localAddr troca um host vazio ou curinga por 127.0.0.1.
func localAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

// waitHealthy consulta url até receber 200 ou o prazo acabar.
func waitHealthy(ctx context.Context, url string, timeout time.Duration, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client := &http.Client{Timeout: time.Second}
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			err = fmt.Errorf("status %s", strings.TrimSpace(resp.Status))
		}
		log.Debug().Err(err).Int("tentativa", attempt).Msg("Servidor ainda não está pronto")
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (último erro: %v)", ctx.Err(), err)
		case <-time.After(300 * time.Millisecond):
		}
	}
}
