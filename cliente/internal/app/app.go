package app

import (
	"context"
	"fmt"
	"os"

	"YardVision/cliente/internal/build"
	"YardVision/cliente/internal/camera"
	"YardVision/cliente/internal/client"
	"YardVision/cliente/internal/containers"
	"YardVision/cliente/internal/firstperson"
	"YardVision/cliente/internal/input"
	"YardVision/cliente/internal/navigation"
	"YardVision/cliente/internal/props"
	"YardVision/cliente/internal/render"
	"YardVision/cliente/internal/scene"
	"YardVision/cliente/internal/world"
	"YardVision/shared/config"
	"YardVision/shared/logging"
	"YardVision/shared/protocol"
	"YardVision/shared/telemetry"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/rs/zerolog"
)

// AppState representa os estados possíveis da aplicação.
type AppState int

const (
	StateViewing AppState = iota // Visualizando o pátio
	StatePaused                  // Menu de pausa
)

// App é a aplicação principal do YardVision.
type App struct {
	Config *config.Config
	State  AppState

	log     zerolog.Logger
	metrics *telemetry.Counters

	ctx    context.Context
	cancel context.CancelFunc

	// Controlador de Câmera
	Cam *camera.CameraController

	graph    *scene.Graph
	base     *scene.Base
	registry *props.Registry
	backend  world.Backend
	store    *world.Store
	layer    *containers.Layer
	builder  *build.Controller
	walker   *firstperson.Controller
	nav      *navigation.Overlay
	feed     *navigation.FeedLocator

	netClient  *client.NetworkClient
	simCancel  context.CancelFunc
	dispatcher *input.Dispatcher
	loop       *scene.Loop
	session    *scene.Session
	renderer   *render.Renderer
	cam3d      rl.Camera3D

	pointers  [10]pointerSample
	keysDown  map[int32]bool
	typeIndex int

	// Informações de debug e HUD
	frameCount   int
	lastStats    render.Stats
	serverStatus protocol.ServerStatus
	notice       string
	noticeUntil  float64
	showNav      bool
	quit         bool
}

// New cria uma nova instância da aplicação.
func New(cfg *config.Config, log zerolog.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:   cfg,
		State:    StateViewing,
		log:      logging.For(log, "App"),
		metrics:  telemetry.New(nil),
		ctx:      ctx,
		cancel:   cancel,
		keysDown: make(map[int32]bool),
		showNav:  true,
	}
}

// Run abre a janela, monta a cena e roda o loop até a janela fechar.
func (a *App) Run() error {
	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(a.Config.WindowWidth, a.Config.WindowHeight, a.Config.WindowTitle)
	rl.SetTraceLogLevel(rl.LogWarning)
	if a.Config.Fullscreen {
		rl.ToggleFullscreen()
	}
	rl.SetTargetFPS(a.Config.TargetFPS)
	rl.SetExitKey(0) // ESC abre o menu de pausa

	a.log.Info().
		Int32("width", a.Config.WindowWidth).
		Int32("height", a.Config.WindowHeight).
		Msg("Janela inicializada")

	if err := a.setup(); err != nil {
		rl.CloseWindow()
		return err
	}

	go a.connectServer()

	for !rl.WindowShouldClose() && !a.quit {
		if err := a.session.Tick(rl.GetFrameTime()); err != nil {
			break
		}
	}

	a.shutdown()
	rl.CloseWindow()
	return nil
}

// setup monta a cena na ordem: mundo, ambiente, camadas, controladores, loop.
func (a *App) setup() error {
	cfg := a.Config

	a.registry = props.NewDefaultRegistry(logging.For(a.log, "Props"), a.metrics)
	if err := a.registry.LoadCatalog(cfg.CatalogPath); err != nil {
		a.log.Warn().Err(err).Msg("Catálogo de props ignorado")
	}

	if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
		a.log.Warn().Err(err).Str("dir", cfg.SaveDir).Msg("Não foi possível criar a pasta de mundos")
	}
	backend, err := world.OpenSQLite(cfg.WorldPath(), cfg.WorldName)
	if err != nil {
		a.log.Error().Err(err).Str("path", cfg.WorldPath()).Msg("SQLite indisponível, mundo só em memória")
		a.backend = world.NewMemoryBackend()
	} else {
		a.backend = backend
	}
	a.store, err = world.Open(a.ctx, a.backend, logging.For(a.log, "Mundo"), world.WithMetrics(a.metrics))
	if err != nil {
		return fmt.Errorf("abrindo mundo: %w", err)
	}

	a.graph = scene.NewGraph()
	a.base = scene.NewBase(cfg, a.graph, a.registry, logging.For(a.log, "Cena"))

	a.Cam = camera.New(cfg.WindowWidth, cfg.WindowHeight, cfg.FOV)
	a.Cam.ZoomSpeed = cfg.ZoomSpeed
	hx, hz := a.base.YardExtents()
	a.Cam.SetBounds(hx, hz)
	a.base.OnResize(a.Cam.Resize)

	a.layer = containers.NewLayer(a.graph.Containers, containers.DefaultLayout(cfg), a.Cam,
		logging.For(a.log, "Conteineres"), a.metrics)

	a.builder = build.New(build.Deps{
		Store:    a.store,
		Registry: a.registry,
		Props:    a.graph.Props,
		Overlay:  a.graph.Overlay,
		Camera:   a.Cam,
		Ground:   a.base,
		GridSize: cfg.GridSize,
		Log:      logging.For(a.log, "Build"),
		Metrics:  a.metrics,
	})
	if a.registry.Has(cfg.DefaultProp) {
		a.builder.SetType(cfg.DefaultProp)
	}
	a.syncTypeIndex()

	a.walker = firstperson.New(a.Cam, a.base, a.layer, logging.For(a.log, "PrimeiraPessoa"))
	a.walker.WalkSpeed = cfg.WalkSpeed
	a.walker.LookSpeed = cfg.LookSpeed
	a.walker.Height = cfg.FirstPersonHeight
	a.walker.SetDeadzone(cfg.JoystickDeadzone)
	a.placeJoysticks(cfg.WindowWidth, cfg.WindowHeight)
	a.base.OnResize(a.placeJoysticks)

	a.feed = navigation.NewFeedLocator()
	a.nav = navigation.New(a.feed, navigation.Options{
		OffRouteKm:      cfg.OffRouteKm,
		MaxFlatExtentKm: cfg.MaxFlatExtentKm,
	}, logging.For(a.log, "Navegacao"), a.metrics)

	a.renderer = render.NewRenderer(a.base.GPU, logging.For(a.log, "Renderer"))
	a.renderer.Fog = a.base.Sky.Horizon
	a.renderer.ShowGrid = cfg.ShowGrid

	a.setupNetwork()
	a.wireEvents()

	a.loop = scene.NewLoop(logging.For(a.log, "Loop"), a.metrics)
	a.session = scene.NewSession(a.loop, logging.For(a.log, "Sessao"))
	a.registerInput()
	_ = a.session.AddWatch(scene.ReleaseFunc(a.nav.Stop))
	_ = a.session.OnDispose(a.base.Dispose)

	a.loop.Add(scene.PhaseInput, "input", a.pollInput)
	a.loop.Add(scene.PhaseUpdate, "network", a.drainNetwork)
	a.loop.Add(scene.PhaseUpdate, "navigation", a.updateNavigation)
	a.loop.Add(scene.PhaseUpdate, "camera", a.updateCamera)
	a.loop.Add(scene.PhaseRender, "draw", a.draw)

	a.log.Info().
		Int("props", a.store.Len()).
		Int("types", len(a.registry.ListTypes())).
		Msg("Cena pronta")
	return nil
}

// wireEvents liga os eventos de saída dos controladores ao servidor ponte.
func (a *App) wireEvents() {
	a.layer.OnContainerSelected = func(sel *containers.Selection) {
		if sel != nil {
			a.flash(fmt.Sprintf("Contêiner %s (%s)", sel.Record.Matricula, sel.Record.PositionCode))
		}
		a.send(protocol.TypeContainerSelected, client.SelectionPayload(sel))
	}
	a.builder.OnPropCommitted = func(p world.PropInstance) {
		a.send(protocol.TypePropCommitted, client.CommittedPayload(p))
	}
	a.builder.OnPropRemoved = func(id string) {
		a.send(protocol.TypePropRemoved, protocol.PropRemoved{ID: id})
	}
	a.nav.OnState = func(st navigation.State) {
		a.send(protocol.TypeNavigationState, client.NavigationPayload(st))
	}
}

// placeJoysticks posiciona os joysticks nos cantos inferiores.
func (a *App) placeJoysticks(w, h int32) {
	margin := float32(110)
	a.walker.MoveStick.Center[0], a.walker.MoveStick.Center[1] = margin, float32(h)-margin
	a.walker.LookStick.Center[0], a.walker.LookStick.Center[1] = float32(w)-margin, float32(h)-margin
}

// shutdown libera na ordem: loop e listeners (sessão), rede, mundo, configuração.
func (a *App) shutdown() {
	a.log.Info().Msg("Finalizando aplicação...")

	if a.session != nil {
		if err := a.session.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Sessão encerrada com falhas")
		}
	}
	if a.builder != nil {
		a.builder.Close()
	}
	a.cancel()
	if a.netClient != nil {
		a.netClient.Close()
	}
	if a.store != nil {
		// Close grava o pendente e fecha o banco.
		if err := a.store.Close(); err != nil {
			a.log.Error().Err(err).Msg("Erro ao fechar o mundo")
		}
	}
	if err := a.Config.Save(); err != nil {
		a.log.Error().Err(err).Msg("Erro ao salvar configurações")
	}
}
