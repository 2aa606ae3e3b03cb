package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/internal/cli"
	internal_http "github.com/RyosukeMondo/todo-for-visual-thinker-sub001/internal/http"
	"github.com/RyosukeMondo/todo-for-visual-thinker-sub001/internal/log"
	internal_storage "github.com/RyosukeMondo/todo-for-visual-thinker-sub001/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "todoboard",
	Short: "Visual task board: tasks on a canvas, typed relationships between them",
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.GetLogger().Debugf("No .env file found: %v", err)
	}

	rootCmd.PersistentFlags().String("db", os.Getenv("DATABASE_URL"), "Database connection string")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the board HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			dbConnStr, err := cmd.Flags().GetString("db")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving db flag: %v", err)
				os.Exit(1)
			}
			store, err := internal_storage.InitStore(dbConnStr)
			if err != nil {
				log.GetLogger().Errorf("Failed to initialize store: %v", err)
				os.Exit(1)
			}
			defer store.Close()

			port, _ := cmd.Flags().GetString("port")
			if err := internal_http.StartServer(port, store); err != nil {
				log.GetLogger().Errorf("Server stopped: %v", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("port", "8080", "Port to listen on")
	rootCmd.AddCommand(serveCmd)

	cli.SetupCLI(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
