package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/sw33tLie/estform/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `            _    __                      
  ___  ___| |_ / _| ___  _ __ _ __ ___  
 / _ \/ __| __| |_ / _ \| '__| '_ ' _ \ 
|  __/\__ \ |_|  _| (_) | |  | | | | | |
 \___||___/\__|_|  \___/|_|  |_| |_| |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "estform",
	Short: "Fill establishment forms from partner codes and names.",
	Long: LOGO + `estform drives an establishment form headlessly: it finds the form's fields,
resolves partner codes or establishment names against the partner directory
and fills in the dependent fields.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.estform.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("source", "", "Record source: airtable or sqlite (overrides records.source)")
	viper.BindPFlag("records.source", rootCmd.PersistentFlags().Lookup("source"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".estform")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("estform")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("records.endpoint", "https://api.airtable.com/v0")
	viper.SetDefault("records.base", "")
	viper.SetDefault("records.table", "")
	viper.SetDefault("records.token", "")
	viper.SetDefault("records.limit", 10)
	viper.SetDefault("records.source", "airtable")
	viper.SetDefault("records.dbpath", "")
	viper.SetDefault("lookup.debounce", 300*time.Millisecond)
	viper.SetDefault("lookup.cache_size", 50)
	viper.SetDefault("form.mode", "Name Lookup")
	viper.SetDefault("form.group_selector", "")
	viper.SetDefault("verbose", false)

	configRead := true
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %s\n", err)
		}
		configRead = false
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	utils.SetVerbose(viper.GetBool("verbose"))
	if configRead {
		utils.Log.Debugf("Using config file %s", viper.ConfigFileUsed())
	}
}
