// exportar lê um mundo salvo pelo cliente e o grava em JSON ou CSV, ou recria um mundo a
// partir de um JSON exportado.
//
//	exportar [-config dir] [-world nome] [-format json|csv] [-zstd] [-out arquivo]
//	exportar reseed [-config dir] [-world nome] -in arquivo
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"YardVision/cliente/internal/world"
	"YardVision/shared/config"
	"YardVision/shared/logging"

	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "reseed" {
		os.Exit(reseedCmd(os.Args[2:]))
	}
	os.Exit(exportCmd(os.Args[1:]))
}

// common são as flags de todos os comandos.
type common struct {
	configDir *string
	worldName *string
	logLevel  *string
}

func commonFlags(fs *flag.FlagSet) common {
	return common{
		configDir: fs.String("config", "", "Diretório do config.json"),
		worldName: fs.String("world", "", "Nome do mundo (padrão: world_name do config.json)"),
		logLevel:  fs.String("log", "warn", "Nível de log"),
	}
}

// open carrega a configuração e abre o mundo no SQLite.
func (c common) open(ctx context.Context) (*world.Store, *config.Config, zerolog.Logger, error) {
	root, _ := logging.Setup(*c.logLevel, "")
	log := logging.For(root, "Exportar")

	cfg, err := config.Load(*c.configDir)
	if err != nil {
		log.Warn().Err(err).Msg("config.json inválido, usando padrões")
	}
	if *c.worldName != "" {
		cfg.WorldName = *c.worldName
	}
	if err := os.MkdirAll(filepath.Dir(cfg.WorldPath()), 0o755); err != nil {
		return nil, cfg, log, err
	}
	backend, err := world.OpenSQLite(cfg.WorldPath(), cfg.WorldName)
	if err != nil {
		return nil, cfg, log, fmt.Errorf("abrindo %s: %w", cfg.WorldPath(), err)
	}
	store, err := world.Open(ctx, backend, logging.For(root, "Mundo"))
	if err != nil {
		backend.Close()
		return nil, cfg, log, err
	}
	return store, cfg, log, nil
}

func exportCmd(args []string) int {
	fs := flag.NewFlagSet("exportar", flag.ExitOnError)
	c := commonFlags(fs)
	format := fs.String("format", "json", "Formato: json ou csv")
	compress := fs.Bool("zstd", false, "Comprimir a saída com zstd")
	out := fs.String("out", "", "Arquivo de saída (padrão: <mundo>.<formato>[.zst]; '-' = stdout)")
	_ = fs.Parse(args)

	f, ok := validFormat(*format)
	if !ok {
		fmt.Fprintln(os.Stderr, "formato inválido:", *format)
		return 2
	}

	store, cfg, log, err := c.open(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		return 1
	}
	defer store.Close()

	var data []byte
	switch f {
	case "csv":
		data = store.ExportCSV()
	default:
		data, err = store.ExportJSON()
		if err != nil {
			log.Error().Err(err).Msg("Falha ao serializar")
			return 1
		}
	}

	path := *out
	if path == "" {
		path = dumpName(cfg.WorldName, f, *compress)
	}
	if err := writeDumpFile(path, data, *compress); err != nil {
		log.Error().Err(err).Msg("Falha ao gravar")
		return 1
	}
	log.Info().Str("out", path).Int("props", store.Len()).Bool("zstd", *compress).Msg("Mundo exportado")
	return 0
}

func reseedCmd(args []string) int {
	fs := flag.NewFlagSet("reseed", flag.ExitOnError)
	c := commonFlags(fs)
	in := fs.String("in", "", "JSON exportado (pode estar comprimido com zstd; '-' = stdin)")
	_ = fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "falta -in")
		return 2
	}
	data, err := readDumpFile(*in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		return 1
	}

	store, cfg, log, err := c.open(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		return 1
	}
	if err := store.ImportJSON(data); err != nil {
		log.Error().Err(err).Msg("JSON rejeitado")
		store.Close()
		return 1
	}
	n := store.Len()
	// Close grava o novo mundo antes de sair.
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("Falha ao gravar o mundo")
		return 1
	}
	log.Info().Str("world", cfg.WorldPath()).Int("props", n).Msg("Mundo recriado")
	return 0
}
