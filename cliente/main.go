package main

import (
	"flag"
	"os"
	"runtime"

	"YardVision/cliente/internal/app"
	"YardVision/shared/config"
	"YardVision/shared/logging"
)

func main() {
	// Raylib/OpenGL exige rodar na thread principal do SO
	runtime.LockOSThread()

	configDir := flag.String("config", "", "Diretório do config.json")
	serverURL := flag.String("server", "", "URL do servidor ponte (padrão: ws://localhost:8080/ws)")
	codec := flag.String("codec", "", "Codec da ponte: json ou proto")
	world := flag.String("world", "", "Nome do mundo salvo")
	simulate := flag.Bool("simulate", false, "Simular o GPS percorrendo a rota")
	touch := flag.Bool("touch", false, "Mostrar os joysticks virtuais")
	fullscreen := flag.Bool("fullscreen", false, "Iniciar em tela cheia")
	debug := flag.Bool("debug", false, "Mostrar informações de debug")
	width := flag.Int("width", 0, "Largura da janela")
	height := flag.Int("height", 0, "Altura da janela")
	flag.Parse()

	cfg, cfgErr := config.Load(*configDir)

	// Flags de linha de comando sobrescrevem o config salvo
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *codec != "" {
		cfg.BridgeCodec = *codec
	}
	if *world != "" {
		cfg.WorldName = *world
	}
	if *simulate {
		cfg.SimulateGPS = true
	}
	if *touch {
		cfg.TouchMode = true
	}
	if *fullscreen {
		cfg.Fullscreen = true
	}
	if *debug {
		cfg.ShowDebugInfo = true
		cfg.LogLevel = "debug"
	}
	if *width > 0 {
		cfg.WindowWidth = int32(*width)
	}
	if *height > 0 {
		cfg.WindowHeight = int32(*height)
	}

	root, closer := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if closer != nil {
		defer closer.Close()
	}
	log := logging.For(root, "Main")
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("config.json inválido, usando padrões")
	}
	log.Info().
		Str("server", cfg.ServerURL).
		Str("codec", cfg.BridgeCodec).
		Str("world", cfg.WorldPath()).
		Msg("YardVision iniciando")

	if err := app.New(cfg, root).Run(); err != nil {
		log.Error().Err(err).Msg("Aplicação encerrada com erro")
		if closer != nil {
			closer.Close()
		}
		os.Exit(1)
	}
}
