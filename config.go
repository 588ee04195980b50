package foodprep

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the dataset layout and pipeline defaults shared by the command line tools. Flags
// override these values.
type Config struct {
	RawImageDir     string
	LabelDir        string
	VisualizeDir    string
	DistributionDir string
	PreprocessedDir string
	SplitDir        string
	DataYAML        string
	YOLOv5Dir       string
	Python          string
	BlurThreshold   float64
	ImageSize       int
	Seed            int64
}

// LoadConfig reads envFiles (".env" if none are given) into the environment and returns the
// configuration from FOODPREP_* variables, falling back to the defaults for unset variables.
// Missing env files are not an error.
func LoadConfig(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to load %q: %v", f, err)
		}
	}

	d := DefaultConfig()
	return &Config{
		RawImageDir:     getEnv("FOODPREP_RAW_DIR", d.RawImageDir),
		LabelDir:        getEnv("FOODPREP_LABEL_DIR", d.LabelDir),
		VisualizeDir:    getEnv("FOODPREP_VIS_DIR", d.VisualizeDir),
		DistributionDir: getEnv("FOODPREP_DIST_DIR", d.DistributionDir),
		PreprocessedDir: getEnv("FOODPREP_PREPROCESSED_DIR", d.PreprocessedDir),
		SplitDir:        getEnv("FOODPREP_SPLIT_DIR", d.SplitDir),
		DataYAML:        getEnv("FOODPREP_DATA_YAML", d.DataYAML),
		YOLOv5Dir:       getEnv("FOODPREP_YOLOV5_DIR", d.YOLOv5Dir),
		Python:          getEnv("FOODPREP_PYTHON", d.Python),
		BlurThreshold:   getEnvAsFloat("FOODPREP_BLUR_THRESHOLD", d.BlurThreshold),
		ImageSize:       getEnvAsInt("FOODPREP_IMAGE_SIZE", d.ImageSize),
		Seed:            int64(getEnvAsInt("FOODPREP_SEED", int(d.Seed))),
	}
}

// DefaultConfig returns the built-in project layout, without consulting the environment.
func DefaultConfig() *Config {
	return &Config{
		RawImageDir:     filepath.Join(".", "01_Raw_Dataset"),
		LabelDir:        filepath.Join(".", "02_Annotations"),
		VisualizeDir:    filepath.Join(".", "03_Visualization", "sample_outputs_bounding_boxes"),
		DistributionDir: filepath.Join(".", "03_Visualization", "sample_outputs_class_distribution"),
		PreprocessedDir: filepath.Join(".", "04_Preprocessed_Dataset"),
		SplitDir:        ".",
		DataYAML:        filepath.Join("data", "food_yolov5_data.yaml"),
		YOLOv5Dir:       "yolov5",
		Python:          "python3",
		BlurThreshold:   DefaultBlurThreshold,
		ImageSize:       DefaultImageSize,
		Seed:            DefaultSeed,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Ignoring invalid integer %s=%q", key, value)
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Printf("Ignoring invalid number %s=%q", key, value)
	}
	return defaultValue
}
