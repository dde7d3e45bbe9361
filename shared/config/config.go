package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Gate descreve uma abertura no alambrado perimetral.
// Side é "north", "south", "east" ou "west"; CenterOffset é medido a partir do centro do lado.
type Gate struct {
	Side         string  `json:"side" mapstructure:"side"`
	CenterOffset float32 `json:"center_offset" mapstructure:"center_offset"`
	Width        float32 `json:"width" mapstructure:"width"`
}

// Config armazena as configurações do YardVision.
type Config struct {
	// Janela
	WindowWidth  int32  `json:"window_width" mapstructure:"window_width"`
	WindowHeight int32  `json:"window_height" mapstructure:"window_height"`
	WindowTitle  string `json:"window_title" mapstructure:"window_title"`
	Fullscreen   bool   `json:"fullscreen" mapstructure:"fullscreen"`
	TargetFPS    int32  `json:"target_fps" mapstructure:"target_fps"`
	TouchMode    bool   `json:"touch_mode" mapstructure:"touch_mode"` // Mostra os joysticks virtuais

	// Servidor ponte (camada de negócio)
	ServerURL   string `json:"server_url" mapstructure:"server_url"`
	ListenAddr  string `json:"listen_addr" mapstructure:"listen_addr"`
	BridgeCodec string `json:"bridge_codec" mapstructure:"bridge_codec"` // "json" ou "proto"

	// Pátio
	YardHalfX    float32 `json:"yard_half_x" mapstructure:"yard_half_x"`
	YardHalfZ    float32 `json:"yard_half_z" mapstructure:"yard_half_z"`
	FenceMargin  float32 `json:"fence_margin" mapstructure:"fence_margin"`
	FenceHeight  float32 `json:"fence_height" mapstructure:"fence_height"`
	PostInterval float32 `json:"post_interval" mapstructure:"post_interval"`
	Gates        []Gate  `json:"gates" mapstructure:"gates"`
	GroundTile   float32 `json:"ground_tile" mapstructure:"ground_tile"`

	// Modo construção
	GridSize    float32 `json:"grid_size" mapstructure:"grid_size"`
	DefaultProp string  `json:"default_prop" mapstructure:"default_prop"`
	CatalogPath string  `json:"catalog_path" mapstructure:"catalog_path"`

	// Persistência
	SaveDir   string `json:"save_dir" mapstructure:"save_dir"`
	WorldName string `json:"world_name" mapstructure:"world_name"`

	// Câmera
	CameraSpeed       float32 `json:"camera_speed" mapstructure:"camera_speed"`
	CameraSensitivity float32 `json:"camera_sensitivity" mapstructure:"camera_sensitivity"`
	ZoomSpeed         float32 `json:"zoom_speed" mapstructure:"zoom_speed"`
	FOV               float32 `json:"fov" mapstructure:"fov"`

	// Primeira pessoa
	WalkSpeed         float32 `json:"walk_speed" mapstructure:"walk_speed"`
	LookSpeed         float32 `json:"look_speed" mapstructure:"look_speed"`
	JoystickDeadzone  float32 `json:"joystick_deadzone" mapstructure:"joystick_deadzone"`
	FirstPersonHeight float32 `json:"first_person_height" mapstructure:"first_person_height"`

	// Navegação
	OffRouteKm      float64 `json:"off_route_km" mapstructure:"off_route_km"`
	MaxFlatExtentKm float64 `json:"max_flat_extent_km" mapstructure:"max_flat_extent_km"`
	SimulateGPS     bool    `json:"simulate_gps" mapstructure:"simulate_gps"`

	// Debug
	LogLevel      string `json:"log_level" mapstructure:"log_level"`
	LogFile       string `json:"log_file" mapstructure:"log_file"`
	ShowDebugInfo bool   `json:"show_debug_info" mapstructure:"show_debug_info"`
	ShowGrid      bool   `json:"show_grid" mapstructure:"show_grid"`

	path string
}

// DefaultConfig retorna a configuração padrão.
func DefaultConfig() *Config {
	return &Config{
		WindowWidth:  1280,
		WindowHeight: 720,
		WindowTitle:  "YardVision",
		Fullscreen:   false,
		TargetFPS:    60,

		ServerURL:   "ws://127.0.0.1:8090/ws",
		ListenAddr:  ":8090",
		BridgeCodec: "json",

		YardHalfX:    60,
		YardHalfZ:    40,
		FenceMargin:  2,
		FenceHeight:  2.4,
		PostInterval: 3,
		Gates: []Gate{
			{Side: "south", CenterOffset: 0, Width: 10},
			{Side: "east", CenterOffset: -12, Width: 8},
		},
		GroundTile: 4,

		GridSize:    1,
		DefaultProp: "road.segment",
		CatalogPath: "assets/props.yaml",

		SaveDir:   "saves",
		WorldName: "patio",

		CameraSpeed:       30,
		CameraSensitivity: 0.3,
		ZoomSpeed:         5,
		FOV:               45,

		WalkSpeed:         4.5,
		LookSpeed:         1.8,
		JoystickDeadzone:  0.05,
		FirstPersonHeight: 1.7,

		OffRouteKm:      0.15,
		MaxFlatExtentKm: 25,

		LogLevel:      "info",
		LogFile:       "debug_yv.log",
		ShowDebugInfo: true,
		ShowGrid:      false,
	}
}

// configPath retorna o caminho do arquivo de configuração.
func configPath() string {
	execDir, err := os.Executable()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(filepath.Dir(execDir), "config.json")
}

// setDefaults registra os valores padrão no viper para que variáveis de ambiente também funcionem.
func setDefaults(v *viper.Viper, def *Config) {
	raw, _ := json.Marshal(def)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	for k, val := range m {
		v.SetDefault(k, val)
	}
}

// Load carrega as configurações de config.json (no diretório informado ou ao lado do executável)
// e de variáveis YARDVISION_*. Se o arquivo não existir, retorna as configurações padrão.
func Load(dir string) (*Config, error) {
	path := configPath()
	if dir != "" {
		path = filepath.Join(dir, "config.json")
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("YARDVISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.path = path
			return cfg, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		cfg = DefaultConfig()
		cfg.path = path
		return cfg, err
	}
	cfg.path = path
	return cfg, nil
}

// Path retorna o arquivo de onde a configuração foi lida (e para onde Save escreve).
func (c *Config) Path() string {
	if c.path == "" {
		return configPath()
	}
	return c.path
}

// Save salva as configurações em um arquivo JSON.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.Path(), data, 0644)
}

// WorldPath retorna o caminho do banco SQLite do mundo configurado.
func (c *Config) WorldPath() string {
	return filepath.Join(c.SaveDir, c.WorldName+".yv")
}
