package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/lilianammmatos/graphql-go/internal/eventbus"
	"github.com/lilianammmatos/graphql-go/internal/executor"
	"github.com/lilianammmatos/graphql-go/internal/otel"
	"github.com/lilianammmatos/graphql-go/internal/schema"
	"github.com/lilianammmatos/graphql-go/internal/server"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "HTTP listen address")
		pretty       = flag.Bool("pretty", false, "pretty-print JSON responses")
		timeout      = flag.Duration("timeout", 30*time.Second, "per-request timeout")
		otelEndpoint = flag.String("otel.endpoint", "", "OTLP collector endpoint")
		otelService  = flag.String("otel.service", "graphqld", "OpenTelemetry service name")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(*otelEndpoint, *otelService)
	if err != nil {
		log.WithError(err).Fatal("otel setup failed")
	}
	defer shutdown(context.Background())

	opts := []server.Option{server.WithTimeout(*timeout)}
	if *pretty {
		opts = append(opts, server.WithPretty())
	}
	handler := server.New(demoSchema(), opts...)

	mux := http.NewServeMux()
	mux.Handle("/graphql", handler)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		log.WithField("addr", *addr).Info("graphqld listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("graphqld stopped")
}

// demoSchema is a small in-memory dataset with deliberately slow fields so
// @defer and @stream are observable from a browser or curl.
func demoSchema() *schema.Schema {
	friends := []any{
		map[string]any{"id": "1000", "name": "Luke Skywalker"},
		map[string]any{"id": "1002", "name": "Han Solo"},
		map[string]any{"id": "1003", "name": "Leia Organa"},
	}

	character := schema.NewType("Character", schema.TypeKindObject, "A character in the saga.").
		AddField(schema.NewField("id", "", schema.NonNullType(schema.NamedType("ID")))).
		AddField(schema.NewField("name", "", schema.NamedType("String"))).
		AddField(schema.NewField("appearsIn", "", schema.ListType(schema.NamedType("String"))).
			SetResolve(func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
				// Slow on purpose: a natural @defer target.
				return executor.Go(func() (any, error) {
					time.Sleep(150 * time.Millisecond)
					return []any{"NEWHOPE", "EMPIRE", "JEDI"}, nil
				}), nil
			})).
		AddField(schema.NewField("friends", "", schema.ListType(schema.NamedType("Character"))).
			SetResolve(func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
				return executor.IteratorFunc(slowFriends(friends)), nil
			}))

	query := schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("hero", "", schema.NamedType("Character")).
			SetResolve(func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
				return map[string]any{"id": "2001", "name": "R2-D2"}, nil
			}))

	return schema.NewSchema("Demo schema for incremental delivery.").
		EnableIncremental().
		SetQueryType("Query").
		AddType(query).
		AddType(character)
}

func slowFriends(friends []any) func(ctx context.Context) (any, bool, error) {
	i := 0
	return func(ctx context.Context) (any, bool, error) {
		if i >= len(friends) {
			return nil, false, nil
		}
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
		v := friends[i]
		i++
		return v, true, nil
	}
}
