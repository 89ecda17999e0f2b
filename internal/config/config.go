package config

import (
	"os"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the pipeline. Zero values are filled from the
// `default` tags, then from the YAML file, then from the environment.
type Config struct {
	Timeline TimelineConfig `yaml:"timeline"`
	Paths    PathsConfig    `yaml:"paths"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Vertex   VertexConfig   `yaml:"vertex"`
	Export   ExportConfig   `yaml:"export"`
	Preview  PreviewConfig  `yaml:"preview"`
}

type TimelineConfig struct {
	ProjectName       string  `yaml:"project_name" default:"Documentary Auto Timeline" validate:"required"`
	FPS               int     `yaml:"fps" default:"30" validate:"gt=0"`
	Resolution        string  `yaml:"resolution" default:"1920x1080" validate:"required"`
	ImageFit          string  `yaml:"image_fit" default:"cover" validate:"oneof=cover contain"`
	ImageXfadeSec     float64 `yaml:"image_xfade_sec" default:"0.5" validate:"gte=0"`
	AudioFadeSec      float64 `yaml:"audio_fade_sec" default:"1.5" validate:"gte=0"`
	BGMFirstFadeInSec float64 `yaml:"bgm_first_fade_in_sec" default:"0.5" validate:"gte=0"`
	DuckingGainDB     float64 `yaml:"ducking_gain_db" default:"-12"`
	PaddingLeadSec    float64 `yaml:"padding_lead_sec" validate:"gte=0"`
	BGMMaxClipSec     float64 `yaml:"bgm_max_clip_sec" default:"190" validate:"gt=0"`
	SubtitleMaxChars  int     `yaml:"subtitle_max_chars" default:"24" validate:"gt=0"`
	VoiceSpeaker      string  `yaml:"voice_speaker" default:"ずんだもん"`
}

type PathsConfig struct {
	ScriptsDir  string `yaml:"scripts_dir" default:"zap1/outputs/scripts"`
	ImagesRoot  string `yaml:"images_root" default:"zap1/images"`
	VoiceRoot   string `yaml:"voice_root" default:"zap1/voice"`
	BGMRoot     string `yaml:"bgm_root" default:"zap1/bgm"`
	OutputDir   string `yaml:"output_dir" default:"zap1/output"`
	OutputsRoot string `yaml:"outputs_root" default:"zap1/outputs"`
	PackagesDir string `yaml:"packages_dir" default:"packages"`
	ImagesOut   string `yaml:"images_out" default:"output"`
}

type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url" default:"https://api.openai.com/v1" validate:"omitempty,url"`
	Model       string  `yaml:"model" default:"gpt-4.1"`
	Temperature float64 `yaml:"temperature" default:"0.2" validate:"gte=0,lte=2"`
}

type VertexConfig struct {
	ServiceAccountFile string  `yaml:"service_account_file"`
	ProjectID          string  `yaml:"project_id"`
	Location           string  `yaml:"location" default:"us-central1"`
	GeminiModel        string  `yaml:"gemini_model" default:"gemini-2.5-flash"`
	GeminiMaxTokens    int64   `yaml:"gemini_max_tokens" default:"2048" validate:"gt=0"`
	GeminiTemperature  float64 `yaml:"gemini_temperature" default:"0.7" validate:"gte=0,lte=2"`
	ImagenModel        string  `yaml:"imagen_model" default:"imagegeneration@006"`
	AspectRatio        string  `yaml:"aspect_ratio" default:"9:16"`
	ImageCostUSD       float64 `yaml:"image_cost_usd" default:"0.04" validate:"gte=0"`
}

type ExportConfig struct {
	CapCutProjectsDir string `yaml:"capcut_projects_dir"`
	Command           string `yaml:"command" default:"python3"`
	Script            string `yaml:"script" default:"zap1/export_capcut_auto.py"`
}

type PreviewConfig struct {
	Width   int    `yaml:"width" default:"640" validate:"gt=0"`
	Height  int    `yaml:"height" default:"360" validate:"gt=0"`
	Workers int    `yaml:"workers" default:"4" validate:"gt=0"`
	Encoder string `yaml:"encoder"`
	Quality int    `yaml:"quality" default:"28" validate:"gte=0"`
}

// New returns a Config populated only with defaults.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	return cfg, nil
}

// Load builds the configuration from defaults, the optional YAML file at path,
// a .env file in the working directory and the process environment.
func Load(path string) (*Config, error) {
	cfg, err := New()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}

	// a missing .env is fine
	_ = godotenv.Load()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := firstEnv("OPENAI_API_KEY", "GENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	setFromEnv(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setFromEnv(&cfg.OpenAI.Model, "OPENAI_MODEL")
	setFromEnv(&cfg.Vertex.ServiceAccountFile, "GCP_SERVICE_ACCOUNT_FILE")
	setFromEnv(&cfg.Vertex.ProjectID, "GCP_PROJECT_ID")
	setFromEnv(&cfg.Vertex.Location, "GCP_LOCATION")
	setFromEnv(&cfg.Vertex.GeminiModel, "GEMINI_MODEL")
	setFromEnv(&cfg.Vertex.ImagenModel, "IMAGEN_MODEL")
	setFromEnv(&cfg.Export.CapCutProjectsDir, "CAPCUT_PROJECTS_DIR")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the value ranges of every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return errors.WithStack(err)
	}
	return nil
}
