package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	inventory "ventasWs/internal/modules/inventory/domain"
	"ventasWs/internal/modules/livesync/application"
	"ventasWs/internal/modules/livesync/domain"
	"ventasWs/internal/modules/livesync/infrastructure"
	realtime "ventasWs/internal/modules/realtime/domain"
	"ventasWs/internal/shared/logging"
	"ventasWs/internal/shared/normalization"
)

type watchOptions struct {
	server   string
	groups   []string
	search   string
	limit    int
	timeout  time.Duration
	logLevel string
	quiet    bool
}

func newRootCmd() *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch <entity>",
		Short: "Keep an entity list in sync with the server",
		Long: "watch loads an entity list over REST, subscribes to its change events over the websocket " +
			"and prints every change as it is reconciled into the local copy.\n\nEntities: " +
			strings.Join(realtime.KnownEntityTypes(), ", "),
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.server, "server", envOr("VENTAS_SERVER", "http://localhost:8080"), "server base URL")
	flags.StringSliceVar(&opts.groups, "group", nil, "extra groups to join (repeatable)")
	flags.StringVarP(&opts.search, "search", "q", "", "search term applied to the initial load and the local view")
	flags.IntVar(&opts.limit, "limit", 0, "rows to load initially (0 loads every row)")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "REST and handshake timeout")
	flags.StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level")
	flags.BoolVar(&opts.quiet, "quiet", false, "print only the row count after each change")
	return cmd
}

func runWatch(ctx context.Context, out io.Writer, rawEntity string, opts *watchOptions) error {
	slog.SetDefault(logging.New(os.Stderr, logging.Config{Level: opts.logLevel}))

	entity := normalization.CanonicalEntity(rawEntity)
	if entity == "" || entity == realtime.WildcardTopic {
		return fmt.Errorf("invalid entity %q", rawEntity)
	}
	if !normalization.IsKnownEntity(entity) {
		slog.Warn("watching an unmanaged entity type", slog.String("entity", entity))
	}
	wsURL, err := websocketURL(opts.server)
	if err != nil {
		return err
	}

	registry := application.NewTopicRegistry()
	list := application.NewReconcilingList(entity)
	if opts.search != "" {
		list.SetSearch(opts.search)
	}
	registry.Subscribe(entity, list)
	registry.SubscribeFunc(entity, func(event realtime.ChangeEvent) error {
		id, _ := normalization.IDKey(event.ID)
		if id == "" {
			if rec, ok := event.Data.(map[string]any); ok {
				id, _ = normalization.IDKey(rec[list.Policy().IDField])
			}
		}
		fmt.Fprintf(out, "%s %s %s id=%s rows=%d\n", time.Now().Format(time.TimeOnly), event.Action, event.EntityType, id, list.Len())
		return nil
	})
	if !opts.quiet {
		list.OnChange(func(view []application.Record) { printRows(out, view) })
	}

	manager := infrastructure.NewManager(infrastructure.Options{
		URL:              wsURL,
		Groups:           opts.groups,
		HandshakeTimeout: opts.timeout,
	}, registry)
	manager.OnStateChange(func(s domain.ConnectionState) {
		fmt.Fprintf(out, "connection %s\n", s)
	})
	defer manager.Stop()

	if err := manager.Start(ctx); err != nil {
		slog.Warn("initial connect failed, retrying in background", slog.Any("error", err))
	}

	loader := infrastructure.NewRESTLoader(opts.server, opts.timeout)
	rows, total, err := loader.Load(ctx, entity, inventory.PagedQuery{Limit: opts.limit, Search: opts.search})
	if err != nil {
		return err
	}
	list.Load(rows)
	fmt.Fprintf(out, "loaded %d of %d %s rows\n", len(rows), total, entity)

	<-ctx.Done()
	return nil
}

func printRows(out io.Writer, view []application.Record) {
	for _, rec := range view {
		raw, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "  %s\n", raw)
	}
	fmt.Fprintf(out, "  (%d visible)\n", len(view))
}

// websocketURL maps an http(s) base URL to the ws(s) endpoint of the hub.
func websocketURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = ""
	return u.String(), nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
