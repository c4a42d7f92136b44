package cmd

import (
	"fmt"
	"os"

	"github.com/emrgen/noteforest"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "noteforest"
	configDir      = "./.tmp"
	defaultServer  = "http://localhost:4001"
)

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
}

func init() {
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
	contextCommand.AddCommand(resetContextCommand())
}

// Context is the server and token every other command talks with.
type Context struct {
	Token  string `mapstructure:"token"`
	Server string `mapstructure:"server"`
}

// saves the context info to the config file in ./.tmp
func setContextCommand() *cobra.Command {
	var token string
	var serverURL string

	command := &cobra.Command{
		Use:   "set",
		Short: "set context",
		Run: func(cmd *cobra.Command, args []string) {
			if token == "" {
				color.Red(`missing: --token`)
				return
			}
			if serverURL == "" {
				serverURL = defaultServer
			}

			if err := writeContext(Context{Token: token, Server: serverURL}); err != nil {
				fmt.Println("error writing config file: ", err)
				return
			}
			fmt.Println("context saved")
		},
	}

	command.Flags().StringVarP(&token, "token", "t", "", "token")
	command.Flags().StringVarP(&serverURL, "server", "s", "", "server url")

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := readContext()
			if ctx.Token == "" {
				color.Yellow("no context set")
				return
			}

			printField("Server", ctx.Server)
			printField("Token", ctx.Token)
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			if err := writeContext(Context{}); err != nil {
				fmt.Println("error writing config file: ", err)
				return
			}
			fmt.Println("context reset")
		},
	}

	return command
}

func contextViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.AddConfigPath(configDir)
	v.SetConfigType("yml")

	return v
}

func writeContext(context Context) error {
	if err := ensureContextFile(); err != nil {
		return err
	}

	v := contextViper()
	v.Set("context.token", context.Token)
	v.Set("context.server", context.Server)

	return v.WriteConfig()
}

func readContext() Context {
	var ctx Context

	if err := ensureContextFile(); err != nil {
		fmt.Println("error creating config file: ", err)
		return ctx
	}

	v := contextViper()
	if err := v.ReadInConfig(); err != nil {
		fmt.Println("error reading config file: ", err)
	}

	if err := v.UnmarshalKey("context", &ctx); err != nil {
		fmt.Println("error unmarshalling config file: ", err)
	}
	if ctx.Server == "" {
		ctx.Server = defaultServer
	}

	return ctx
}

// create file if it doesn't exist
func ensureContextFile() error {
	path := configDir + "/" + configFileName + ".yml"
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	return file.Close()
}

// newClient connects to the server of the saved context. It returns nil and
// prints a hint when no token is set.
func newClient() *noteforest.Client {
	ctx := readContext()
	if ctx.Token == "" {
		color.Red("missing context: run noteforest context set -t <token>")
		return nil
	}

	return noteforest.NewClient(ctx.Server, ctx.Token)
}
