package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Cores para o terminal (ANSI)
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// component é um executável do projeto.
type component struct {
	Name    string
	Pkg     string // pacote relativo à raiz do módulo
	Output  string // sem extensão
	Cgo     bool
	GUI     bool
	Testing bool // roda go test no pacote antes de compilar
}

var components = []component{
	{Name: "SERVIDOR (Pure Go)", Pkg: "servidor", Output: "servidor/server", Testing: true},
	{Name: "CLIENTE (CGO + raylib)", Pkg: "cliente", Output: "cliente/client", Cgo: true, GUI: true},
	{Name: "EXPORTAR (CGO + sqlite)", Pkg: "cliente/exportar", Output: "cliente/yv-export", Cgo: true, Testing: true},
	{Name: "LAUNCHER (Pure Go)", Pkg: "launcher", Output: "YardVision", Testing: true},
}

func main() {
	static := flag.Bool("static", runtime.GOOS == "windows", "Linkar estaticamente os componentes com CGO")
	skipTests := flag.Bool("skip-tests", false, "Não rodar os testes antes de compilar")
	flag.Parse()

	fmt.Println(ColorCyan + "╔══════════════════════════════════════╗" + ColorReset)
	fmt.Println(ColorCyan + "║       YardVision Native Builder      ║" + ColorReset)
	fmt.Println(ColorCyan + "╚══════════════════════════════════════╝" + ColorReset)

	start := time.Now()
	setupEnvironment()

	for i, c := range components {
		fmt.Printf(ColorYellow+"\n[%d/%d] %s"+ColorReset+"\n", i+1, len(components), c.Name)
		if c.Testing && !*skipTests {
			if err := testComponent(c); err != nil {
				fatal(err)
			}
		}
		if err := buildComponent(c, *static); err != nil {
			fatal(err)
		}
	}

	fmt.Printf("\n"+ColorCyan+"Build finalizada com sucesso em %v!"+ColorReset+"\n", time.Since(start).Round(time.Second))
	fmt.Println(ColorYellow + "Dica: Execute o '" + executable("YardVision") + "' para abrir o pátio." + ColorReset)
}

func setupEnvironment() {
	fmt.Println(ColorYellow + "\n[0] Configurando ambiente de compilação..." + ColorReset)

	// Adicionar MSYS2 ao PATH se estiver no Windows
	if runtime.GOOS == "windows" {
		msysPath := `C:\msys64\mingw64\bin`
		currentPath := os.Getenv("PATH")
		if !strings.Contains(currentPath, msysPath) {
			os.Setenv("PATH", msysPath+";"+currentPath)
			fmt.Printf("  - PATH atualizado: %s adicionado.\n", msysPath)
		}
		os.Setenv("CC", "gcc")
		fmt.Println("  - Compilador C: gcc (MSYS2)")
	}
}

// ldflags monta as flags do linker para o componente.
func ldflags(c component, static bool) string {
	flags := []string{"-s", "-w"}
	if c.Cgo && static {
		flags = append([]string{"-extldflags=-static"}, flags...)
	}
	if c.GUI && runtime.GOOS == "windows" {
		flags = append(flags, "-H=windowsgui")
	}
	return strings.Join(flags, " ")
}

func executable(output string) string {
	if runtime.GOOS == "windows" {
		return output + ".exe"
	}
	return output
}

func goCmd(c component, args ...string) *exec.Cmd {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cgoValue := "0"
	if c.Cgo {
		cgoValue = "1"
	}
	cmd.Env = append(os.Environ(), "CGO_ENABLED="+cgoValue)
	return cmd
}

func testComponent(c component) error {
	fmt.Printf("  - Testando ./%s/...\n", c.Pkg)
	if err := goCmd(c, "test", "./"+c.Pkg+"/...").Run(); err != nil {
		return fmt.Errorf("testes de %s falharam: %v", c.Name, err)
	}
	return nil
}

func buildComponent(c component, static bool) error {
	output := executable(c.Output)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}
	args := []string{"build", "-ldflags", ldflags(c, static), "-o", output, "./" + c.Pkg}
	if err := goCmd(c, args...).Run(); err != nil {
		return fmt.Errorf("falha ao compilar %s: %v", c.Name, err)
	}

	fmt.Printf(ColorGreen+"  - %s compilado com sucesso -> %s"+ColorReset+"\n", c.Name, output)
	return nil
}

func fatal(err error) {
	fmt.Printf("\n"+ColorRed+"[ERRO FATAL] %v"+ColorReset+"\n", err)
	os.Exit(1)
}
