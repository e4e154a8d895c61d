package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/javabinary/classfile"
	"github.com/deepnoodle-ai/javabinary/errors"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app holds the configuration shared by all subcommands.
type app struct {
	v      *viper.Viper
	stderr io.Writer
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New(), stderr: os.Stderr}
	cmd := &cobra.Command{
		Use:           "jclass",
		Short:         "Inspect and rewrite JVM class files",
		Version:       fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stderr = cmd.ErrOrStderr()
			if err := a.loadConfig(); err != nil {
				return err
			}
			if a.v.GetBool("no-color") || !isTerminal(cmd.OutOrStdout()) {
				color.NoColor = true
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "Config file (default is $HOME/.jclass.yaml)")
	pf.Bool("no-color", false, "Disable colored output")
	pf.Bool("debug", false, "Log debug details to stderr")
	pf.Int("concurrency", runtime.GOMAXPROCS(0), "Number of class files decoded in parallel")
	pf.Bool("no-optimize", false, "Skip peephole and nop elimination when writing")
	pf.Bool("no-stackmaps", false, "Do not write StackMapTable attributes")
	for _, name := range []string{"config", "no-color", "debug", "concurrency", "no-optimize", "no-stackmaps"} {
		if err := a.v.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}

	cmd.AddCommand(newDumpCommand(a), newCheckCommand(a))
	return cmd
}

func (a *app) loadConfig() error {
	a.v.SetEnvPrefix("jclass")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		return a.v.ReadInConfig()
	}
	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	a.v.AddConfigPath(home)
	a.v.SetConfigName(".jclass")
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

func (a *app) logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if a.v.GetBool("debug") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: a.stderr, NoColor: color.NoColor}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func (a *app) options() []classfile.Option {
	return []classfile.Option{
		classfile.WithLogger(a.logger()),
		classfile.WithConcurrency(a.v.GetInt("concurrency")),
		classfile.WithOptimize(!a.v.GetBool("no-optimize")),
		classfile.WithStackMaps(!a.v.GetBool("no-stackmaps")),
	}
}

func main() {
	cmd := newRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprint(os.Stderr, errors.NewFormatter(!color.NoColor).FormatMultiple(err))
		os.Exit(1)
	}
}
