package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup configura o logger raiz do YardVision: arquivo de debug (append) mais saída no console.
// Se o arquivo não puder ser aberto, segue apenas com o console.
// O io.Closer retornado fecha o arquivo de log (pode ser nil).
func Setup(level, file string) (zerolog.Logger, io.Closer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	var out io.Writer = console
	var closer io.Closer

	if file != "" {
		f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err == nil {
			out = zerolog.MultiLevelWriter(console, f)
			closer = f
		}
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return logger, closer
}

// For devolve um sub-logger marcado com o nome do componente (ex.: "Build", "Navegacao").
func For(parent zerolog.Logger, component string) zerolog.Logger {
	return parent.With().Str("component", component).Logger()
}

// Nop é usado por testes e por componentes construídos sem logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
