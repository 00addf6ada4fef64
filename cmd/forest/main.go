package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/analysis"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/config"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/log"
)

var rootCommand = &cobra.Command{
	Use:   "forest",
	Short: "Decision tree and random forest study of malware network traffic.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	SilenceUsage: true,
}

// newAnalysis loads the configuration and the dataset for a subcommand.
func newAnalysis(cmd *cobra.Command) *analysis.Analysis {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath, flags)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	// the stratification key follows a relabelled dataset
	if flags.Changed("label") && conf.Split.Stratify == config.GetDefaultConfig().Split.Stratify {
		conf.Split.Stratify = conf.Data.Label
	}

	var opts []analysis.Option
	if showProgress, _ := flags.GetBool("progress"); showProgress {
		opts = append(opts, analysis.WithProgress(progressBar))
	}
	a := analysis.New(conf, os.Stdout, opts...)
	if err = a.Load(); err != nil {
		log.Logger().Fatal("failed to load dataset", zap.String("path", conf.Data.Path), zap.Error(err))
	}
	return a
}

// progressBar draws the progress of a forest fit on stderr.
func progressBar(stage string) func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription(stage),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish())
		}
		_ = bar.Set(done)
		if done == total {
			_ = bar.Finish()
		}
	}
}

func fatal(step string, err error) {
	if err != nil {
		log.Logger().Fatal("failed to "+step, zap.Error(err))
	}
}

var analyzeCommand = &cobra.Command{
	Use:   "analyze",
	Short: "Run the whole study",
	Run: func(cmd *cobra.Command, args []string) {
		a := newAnalysis(cmd)
		_, err := a.Run()
		fatal("analyze", err)
	},
}

var corrCommand = &cobra.Command{
	Use:   "corr",
	Short: "Rank features by their correlation with the label",
	Run: func(cmd *cobra.Command, args []string) {
		a := newAnalysis(cmd)
		if describe, _ := cmd.Flags().GetBool("describe"); describe {
			_, err := a.Describe()
			fatal("describe", err)
		}
		_, err := a.Correlations()
		fatal("rank correlations", err)
	},
}

var splitCommand = &cobra.Command{
	Use:   "split",
	Short: "Show the train/validation/test split",
	Run: func(cmd *cobra.Command, args []string) {
		_, _, _, err := newAnalysis(cmd).Split()
		fatal("split", err)
	},
}

var treeCommand = &cobra.Command{
	Use:   "tree",
	Short: "Fit a decision tree and score it on the validation and test sets",
	Run: func(cmd *cobra.Command, args []string) {
		_, err := newAnalysis(cmd).Tree()
		fatal("fit decision tree", err)
	},
}

var forestCommand = &cobra.Command{
	Use:   "forest",
	Short: "Compare random forests fitted without and with preparation",
	Run: func(cmd *cobra.Command, args []string) {
		cmp, err := newAnalysis(cmd).Forest()
		fatal("fit random forest", err)
		fmt.Println(cmp)
	},
}

var regressCommand = &cobra.Command{
	Use:   "regress",
	Short: "Fit a regression forest on the factorized label",
	Run: func(cmd *cobra.Command, args []string) {
		_, err := newAnalysis(cmd).Regress()
		fatal("fit regression forest", err)
	},
}

var cvCommand = &cobra.Command{
	Use:   "cv",
	Short: "Cross validate the random forest",
	Run: func(cmd *cobra.Command, args []string) {
		_, err := newAnalysis(cmd).CrossValidate()
		fatal("cross validate", err)
	},
}

func init() {
	flags := rootCommand.PersistentFlags()
	log.AddFlags(flags)
	flags.Bool("debug", false, "use debug log mode")
	flags.StringP("config", "c", "", "configuration file path")
	flags.String("data", "", "path of the flow CSV file")
	flags.String("label", "", "label column")
	flags.Int64("seed", 42, "random seed of the split and the forests")
	flags.String("backend", "internal", "forest backend: internal or external")
	flags.Int("trees", 100, "number of trees per forest")
	flags.Int("jobs", -1, "trees fitted at once, -1 uses every CPU")
	flags.Bool("progress", true, "draw forest progress on stderr")
	corrCommand.Flags().Bool("describe", false, "print descriptive statistics first")

	rootCommand.AddCommand(analyzeCommand, corrCommand, splitCommand, treeCommand,
		forestCommand, regressCommand, cvCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
