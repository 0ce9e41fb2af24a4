package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"thyrosight/database"
	"thyrosight/logger"
	"thyrosight/middleware"
	"thyrosight/repository"
	"thyrosight/router"
	"thyrosight/service"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.L()

			if port != "" {
				if !strings.HasPrefix(port, ":") {
					port = ":" + port
				}
				cfg.Server.Port = port
			}

			if err := database.Init(cfg); err != nil {
				return err
			}
			defer database.Close()

			if cfg.Database.AutoMigrate {
				if err := runMigrations(cfg.Database.MigrateURL()); err != nil {
					return err
				}
			}

			middleware.InitJWT(cfg)

			classifier := service.NewClassifierClient(cfg.Gateway)
			svc := service.NewAssessmentService(repository.NewAssessmentRepository(database.DB), classifier)
			r := router.SetupRouter(cfg, svc)

			srv := &http.Server{
				Addr:              cfg.Server.Port,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", cfg.Server.Port).Info("服务已启动")
				log.Infof("Swagger: http://localhost%s/swagger/index.html", cfg.Server.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("正在关闭服务")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "监听端口，如: 8080 或 :8080")
	return cmd
}
