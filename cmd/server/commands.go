package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/usuarios/internal/core/observability/log"
	"github.com/zeusync/usuarios/internal/injector"
	"github.com/zeusync/usuarios/internal/module"
	"github.com/zeusync/usuarios/internal/orm"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "usuarios",
		Short:         "Usuarios application server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "config file (default: ./config.yaml or /etc/usuarios/config.yaml)")

	root.AddCommand(newServeCmd(), newRoutesCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Example: `  usuarios serve --config config.yaml
  USUARIOS_DEVTOOLS_ENABLED=true usuarios serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, injector.ConfigPath(path))
		},
	}
}

func serve(ctx context.Context, path injector.ConfigPath) error {
	app, cleanup, err := injector.InitializeApp(ctx, path)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer cleanup()

	app.Logger.Info("Starting usuarios",
		log.String("addr", app.Config.Server.Addr),
		log.Bool("devtools", app.Config.DevTools.Enabled))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Server.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		app.Logger.Error("Server failed", log.Error(err))
		return err
	}
	app.Logger.Info("Shutdown complete")
	return nil
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the merged module route table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			modules, err := injector.ProvideModules(orm.NewEntityManager(nil))
			if err != nil {
				return err
			}
			printRoutes(cmd.OutOrStdout(), modules.Config().Router.Routes, "", "", module.RouteDefaults{})
			return nil
		},
	}
}

func printRoutes(w io.Writer, routes []module.Route, namePrefix, pathPrefix string, inherited module.RouteDefaults) {
	for _, r := range routes {
		d := r.Defaults
		if d.Controller == "" {
			d.Controller = inherited.Controller
		}
		if d.Action == "" {
			d.Action = inherited.Action
		}
		name := r.Name
		if namePrefix != "" {
			name = namePrefix + "/" + r.Name
		}
		path := pathPrefix + r.Route
		if r.MayTerminate {
			fmt.Fprintf(w, "%-32s %-8s %-40s %s::%s\n", name, r.Type, path, d.Controller, d.Action)
		}
		printRoutes(w, r.ChildRoutes, name, path, d)
	}
}
