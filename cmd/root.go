/*
Package cmd implements the ukg command-line interface: one-shot queries, the
HTTP API, the MCP server, the interactive console, and graph maintenance.
*/
package cmd

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/ukg/pkg/engine"
	"github.com/theapemachine/ukg/pkg/logging"
)

/*
Embed a mini filesystem into the binary to hold the default config file.
This will be written to the home directory of the user running the service,
which allows a developer to easily override the config file.
*/
//go:embed cfg/*
var embedded embed.FS

var (
	projectName  = "ukg"
	cfgFile      string
	logLevelFlag string
	logFileFlag  string

	rootCmd = &cobra.Command{
		Use:   "ukg",
		Short: "A layered knowledge graph that answers queries with an expert panel",
		Long:  longRoot,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Close()
		},
	}
)

/*
Execute is the main entry point for the CLI.
*/
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yml",
		"config file (default is $HOME/."+projectName+"/config.yml)",
	)

	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "append logs to this file instead of stderr")
}

/*
initConfig writes the default config file to the user's home directory if
it doesn't exist, and then reads it.
*/
func initConfig() {
	var err error

	if err = writeConfig(); err != nil {
		log.Fatal(err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	home, _ := os.UserHomeDir()
	viper.AddConfigPath(home + "/." + projectName)

	viper.SetEnvPrefix(projectName)
	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

/*
initLogging applies the flags, falling back to the ukg.logging keys.
*/
func initLogging() error {
	level := logLevelFlag
	if level == "" {
		level = viper.GetString("ukg.logging.level")
	}

	file := logFileFlag
	if file == "" {
		file = viper.GetString("ukg.logging.file")
	}

	return logging.Init(logging.Options{Level: level, File: file})
}

/*
writeConfig writes the default config file to the user's home directory.
*/
func writeConfig() (err error) {
	var (
		home, _ = os.UserHomeDir()
		fh      fs.File
		buf     bytes.Buffer
	)

	configDir := home + "/." + projectName
	if !CheckFileExists(configDir) {
		if err = os.MkdirAll(configDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	for _, file := range []string{cfgFile} {
		fullPath := configDir + "/" + file

		if CheckFileExists(fullPath) {
			continue
		}

		if fh, err = embedded.Open("cfg/" + file); err != nil {
			return fmt.Errorf("failed to open embedded config file: %w", err)
		}

		if _, err = io.Copy(&buf, fh); err != nil {
			fh.Close()
			return fmt.Errorf("failed to read embedded config file: %w", err)
		}

		if err = os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
			fh.Close()
			return fmt.Errorf("failed to write config file: %w", err)
		}

		log.Info("wrote config file", "path", fullPath)
		buf.Reset()
		fh.Close()
	}

	return nil
}

func CheckFileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !errors.Is(err, os.ErrNotExist)
}

/*
openEngine builds an engine from the loaded configuration.
*/
func openEngine(ctx context.Context) (*engine.Engine, error) {
	return engine.New(ctx, engine.ConfigFromViper(viper.GetViper()))
}

/*
closeEngine persists when configured and releases the snapshot backend.
*/
func closeEngine(ctx context.Context, eng *engine.Engine) {
	if err := eng.Close(ctx); err != nil {
		log.Error("failed to close engine", "error", err)
	}
}

var longRoot = `
ukg routes questions through a layered knowledge graph. Short questions are
answered directly, longer or regulatory questions are simulated by a panel of
four expert personas and refined, and low-confidence answers are escalated to
verification agents.
`
