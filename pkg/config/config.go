package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
)

// Config is the configuration of an analysis run.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Split    SplitConfig    `mapstructure:"split"`
	Prepare  PrepareConfig  `mapstructure:"prepare"`
	Tree     TreeConfig     `mapstructure:"tree"`
	Forest   ForestConfig   `mapstructure:"forest"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

// DataConfig locates the dataset and its label.
type DataConfig struct {
	Path      string   `mapstructure:"path"`
	Label     string   `mapstructure:"label" validate:"required"`
	InferRows int      `mapstructure:"infer_rows" validate:"gte=0"`
	Impute    string   `mapstructure:"impute" validate:"oneof=median mean zero drop"`
	Drop      []string `mapstructure:"drop"`
}

// SplitConfig drives the train/validation/test split.
type SplitConfig struct {
	Seed     int64   `mapstructure:"seed"`
	Shuffle  bool    `mapstructure:"shuffle"`
	Stratify string  `mapstructure:"stratify"`
	TestSize float64 `mapstructure:"test_size" validate:"gt=0,lt=1"`
	ValSize  float64 `mapstructure:"val_size" validate:"gt=0,lt=1"`
}

// PrepareConfig lists the preparation steps fitted on every subset.
type PrepareConfig struct {
	Steps     []string `mapstructure:"steps" validate:"dive,oneof=clip log robust standard minmax"`
	ClipLower float64  `mapstructure:"clip_lower" validate:"gte=0,lte=100"`
	ClipUpper float64  `mapstructure:"clip_upper" validate:"gte=0,lte=100,gtefield=ClipLower"`
}

type TreeConfig struct {
	Criterion       string `mapstructure:"criterion" validate:"oneof=gini entropy"`
	MaxDepth        int    `mapstructure:"max_depth" validate:"gte=0"`
	MinSamplesSplit int    `mapstructure:"min_samples_split" validate:"gte=0"`
	MinSamplesLeaf  int    `mapstructure:"min_samples_leaf" validate:"gte=0"`
	Prune           bool   `mapstructure:"prune"`
}

type ForestConfig struct {
	Backend     string `mapstructure:"backend" validate:"oneof=internal external"`
	NEstimators int    `mapstructure:"n_estimators" validate:"gt=0"`
	NJobs       int    `mapstructure:"n_jobs"`
	MaxDepth    int    `mapstructure:"max_depth" validate:"gte=0"`
	MaxFeatures int    `mapstructure:"max_features" validate:"gte=0"`
	Criterion   string `mapstructure:"criterion" validate:"oneof=gini entropy"`
	Bootstrap   bool   `mapstructure:"bootstrap"`
}

// AnalysisConfig holds the reporting knobs.
type AnalysisConfig struct {
	Metric               string  `mapstructure:"metric" validate:"oneof=f1 precision recall"`
	CorrelationThreshold float64 `mapstructure:"correlation_threshold" validate:"gte=0,lte=1"`
	PairThreshold        float64 `mapstructure:"pair_threshold" validate:"gte=0,lte=1"`
	Folds                int     `mapstructure:"folds" validate:"gte=2"`
}

// GetDefaultConfig returns the configuration used when nothing is set.
func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Path:      "TotalFeatures-ISCXFlowMeter.csv",
			Label:     "calss",
			InferRows: 200,
			Impute:    "median",
		},
		Split: SplitConfig{
			Seed:     42,
			Shuffle:  true,
			Stratify: "calss",
			TestSize: 0.4,
			ValSize:  0.5,
		},
		Prepare: PrepareConfig{
			Steps:     []string{"robust"},
			ClipLower: 1,
			ClipUpper: 99,
		},
		Tree: TreeConfig{
			Criterion:       "gini",
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
			Prune:           true,
		},
		Forest: ForestConfig{
			Backend:     "internal",
			NEstimators: 100,
			NJobs:       -1,
			Criterion:   "gini",
			Bootstrap:   true,
		},
		Analysis: AnalysisConfig{
			Metric:               "f1",
			CorrelationThreshold: 0.05,
			PairThreshold:        0.95,
			Folds:                5,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [data]
	v.SetDefault("data.path", defaultConfig.Data.Path)
	v.SetDefault("data.label", defaultConfig.Data.Label)
	v.SetDefault("data.infer_rows", defaultConfig.Data.InferRows)
	v.SetDefault("data.impute", defaultConfig.Data.Impute)
	// [split]
	v.SetDefault("split.seed", defaultConfig.Split.Seed)
	v.SetDefault("split.shuffle", defaultConfig.Split.Shuffle)
	v.SetDefault("split.stratify", defaultConfig.Split.Stratify)
	v.SetDefault("split.test_size", defaultConfig.Split.TestSize)
	v.SetDefault("split.val_size", defaultConfig.Split.ValSize)
	// [prepare]
	v.SetDefault("prepare.steps", defaultConfig.Prepare.Steps)
	v.SetDefault("prepare.clip_lower", defaultConfig.Prepare.ClipLower)
	v.SetDefault("prepare.clip_upper", defaultConfig.Prepare.ClipUpper)
	// [tree]
	v.SetDefault("tree.criterion", defaultConfig.Tree.Criterion)
	v.SetDefault("tree.max_depth", defaultConfig.Tree.MaxDepth)
	v.SetDefault("tree.min_samples_split", defaultConfig.Tree.MinSamplesSplit)
	v.SetDefault("tree.min_samples_leaf", defaultConfig.Tree.MinSamplesLeaf)
	v.SetDefault("tree.prune", defaultConfig.Tree.Prune)
	// [forest]
	v.SetDefault("forest.backend", defaultConfig.Forest.Backend)
	v.SetDefault("forest.n_estimators", defaultConfig.Forest.NEstimators)
	v.SetDefault("forest.n_jobs", defaultConfig.Forest.NJobs)
	v.SetDefault("forest.max_depth", defaultConfig.Forest.MaxDepth)
	v.SetDefault("forest.max_features", defaultConfig.Forest.MaxFeatures)
	v.SetDefault("forest.criterion", defaultConfig.Forest.Criterion)
	v.SetDefault("forest.bootstrap", defaultConfig.Forest.Bootstrap)
	// [analysis]
	v.SetDefault("analysis.metric", defaultConfig.Analysis.Metric)
	v.SetDefault("analysis.correlation_threshold", defaultConfig.Analysis.CorrelationThreshold)
	v.SetDefault("analysis.pair_threshold", defaultConfig.Analysis.PairThreshold)
	v.SetDefault("analysis.folds", defaultConfig.Analysis.Folds)
}

type configBinding struct {
	key string
	env string
}

func bindEnv(v *viper.Viper) error {
	bindings := []configBinding{
		{"data.path", "FOREST_DATA_PATH"},
		{"data.label", "FOREST_DATA_LABEL"},
		{"data.impute", "FOREST_DATA_IMPUTE"},
		{"split.seed", "FOREST_SPLIT_SEED"},
		{"split.stratify", "FOREST_SPLIT_STRATIFY"},
		{"prepare.steps", "FOREST_PREPARE_STEPS"},
		{"forest.backend", "FOREST_BACKEND"},
		{"forest.n_estimators", "FOREST_N_ESTIMATORS"},
		{"forest.n_jobs", "FOREST_N_JOBS"},
	}
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// New returns a viper instance holding the defaults and the environment bindings.
func New() (*viper.Viper, error) {
	v := viper.New()
	setDefault(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}
	return v, nil
}

// FlagKeys maps command line flags to the configuration keys they override.
var FlagKeys = map[string]string{
	"data":    "data.path",
	"label":   "data.label",
	"seed":    "split.seed",
	"backend": "forest.backend",
	"trees":   "forest.n_estimators",
	"jobs":    "forest.n_jobs",
}

// bindFlags binds the flags of FlagKeys that were set on the command line. Unset
// flags are skipped so their defaults do not shadow the configuration file.
func bindFlags(v *viper.Viper, flagSet *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		if flag := flagSet.Lookup(name); flag != nil && flag.Changed {
			if err := v.BindPFlag(key, flag); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return nil
}

// LoadConfig reads the file at path, if any, over the defaults and the
// environment. Flags set in flagSet take precedence over both. The format
// follows the file extension.
func LoadConfig(path string, flagSet *pflag.FlagSet) (*Config, error) {
	v, err := New()
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err = v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	if flagSet != nil {
		if err = bindFlags(v, flagSet); err != nil {
			return nil, err
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var conf Config
	err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its constraints.
func (config *Config) Validate() error {
	if err := validate.Struct(config); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			msgs := make([]string, 0, len(fieldErrors))
			for _, fe := range fieldErrors {
				msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
			}
			return core.Invalidf("config: %s", strings.Join(msgs, "; "))
		}
		return errors.Trace(err)
	}
	if config.Split.Stratify != "" && !config.Split.Shuffle {
		return core.Invalidf("config: split.stratify requires split.shuffle")
	}
	return nil
}
