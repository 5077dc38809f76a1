package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/NobreHD/PicaBot/internal/bot"
	"github.com/NobreHD/PicaBot/internal/core"
	"github.com/NobreHD/PicaBot/internal/logger"
)

var (
	configFile string

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the picabot main process",
		Long:  "Connect to the configured Picarto.tv chat server and dispatch incoming messages until interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			config, err := core.LoadConfig(configFile)
			if err != nil {
				log.Fatalf("Failed to load config: %v", err)
			}

			fmt.Printf("Starting picabot with config: %s\n", configFile)
			fmt.Printf("Server: %s\n", config.Server)
			fmt.Printf("Command prefix: %s\n", config.CommandPrefix)

			logConfig := logger.Config{
				Level:        config.Logging.Level,
				File:         config.Logging.File,
				MaxSize:      config.Logging.MaxSize,
				MaxBackups:   config.Logging.MaxBackups,
				MaxAge:       config.Logging.MaxAge,
				Compress:     config.Logging.Compress,
				EnableStdout: config.Logging.EnableStdout,
			}
			if err := logger.InitLogger(logConfig); err != nil {
				log.Fatalf("Failed to initialize logger: %v", err)
			}

			logger.WithFields(logrus.Fields{
				"config_file": configFile,
				"log_level":   config.Logging.Level,
			}).Info("Logger initialized")

			engine := core.NewEngine(config)

			// Setup signal handling for graceful shutdown
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			engineErrChan := make(chan error, 1)
			go func() {
				fmt.Println("picabot connecting...")
				fmt.Println("Press Ctrl+C to stop")
				engineErrChan <- engine.Run(context.Background())
			}()

			select {
			case sig := <-sigChan:
				log.Printf("Received signal: %v, shutting down gracefully...", sig)
				if err := engine.Stop(); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
				<-engineErrChan
			case err := <-engineErrChan:
				if errors.Is(err, bot.ErrRateLimited) {
					log.Fatalf("Reconnection attempts exceeded, giving up")
				}
				if err != nil {
					log.Fatalf("Engine error: %v", err)
				}
			}

			log.Println("picabot stopped")
		},
	}
)

func init() {
	startCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
}
