package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/4thPlanet/wsrouter"
)

type Config struct {
	ConfigFile      string        `env:"WSROUTER_CONFIG"`
	Hostname        string        `env:"WSROUTER_HOSTNAME"`
	Port            int           `env:"WSROUTER_PORT"`
	Assets          string        `env:"WSROUTER_ASSETS" envDefault:"./assets"`
	AdminUser       string        `env:"WSROUTER_ADMIN_USER" envDefault:"admin"`
	AdminPassword   string        `env:"WSROUTER_ADMIN_PASSWORD" envDefault:"admin"`
	ShutdownTimeout time.Duration `env:"WSROUTER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// serverConfig merges the optional config file with environment overrides.
func serverConfig(cfg Config) (wsrouter.Config, error) {
	conf := wsrouter.Config{}
	if cfg.ConfigFile != "" {
		var err error
		conf, err = wsrouter.LoadConfig(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
	}
	if cfg.Hostname != "" {
		conf["hostname"] = cfg.Hostname
	}
	if cfg.Port != 0 {
		conf["port"] = cfg.Port
	}
	return conf, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Error("Failed to parse environment", slog.Any("error", err))
		os.Exit(1)
	}

	conf, err := serverConfig(cfg)
	if err != nil {
		log.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	srv := wsrouter.New()
	srv.Logger = wsrouter.NewSlogLogger(log)
	setupRoutes(srv, cfg, conf)

	host, port, err := srv.StartConfig(conf)
	if err != nil {
		log.Error("Failed to start server", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info(fmt.Sprintf("The server running on http://%s:%d", host, port))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		log.Error("Failed to shut down server", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func setupRoutes(srv *wsrouter.Server, cfg Config, conf wsrouter.Config) {
	assets := os.DirFS(cfg.Assets)

	srv.Route("/").URL("/get").File(assets, "index.html")

	srv.Route("/post").POST(func(req *wsrouter.Request, res *wsrouter.Response) {
		text, err := req.ReadText()
		if err != nil {
			res.Status = 400
		}
		res.SetText(text)
		_ = res.Send()
	})

	var (
		mu    sync.Mutex
		items = map[string]string{"name": "apple", "color": "red"}
	)
	srv.Route("/put").PUT(func(req *wsrouter.Request, res *wsrouter.Response) {
		form, err := req.ParseForm()
		if err != nil {
			res.Status = 400
			res.SetText(err.Error())
			_ = res.Send()
			return
		}
		mu.Lock()
		for key := range form {
			items[key] = form.Get(key)
		}
		b, _ := json.Marshal(items)
		mu.Unlock()

		res.Header.Set("Content-Type", "application/json")
		res.Body = b
		_ = res.Send()
	})

	realm := "/admin"
	srv.Route(realm).
		AUTH(wsrouter.DigestA1(cfg.AdminUser, realm, cfg.AdminPassword)).
		GET(func(req *wsrouter.Request, res *wsrouter.Response) {
			_ = res.SetJSON(map[string]any{
				"clients":  srv.Clients.Len(),
				"hostname": conf.Hostname(),
				"port":     conf.Port(),
			})
			_ = res.Send()
		})

	srv.Route(wsrouter.ForbiddenPath).GET(func(req *wsrouter.Request, res *wsrouter.Response) {
		res.Status = 403
		res.SetHTML("<h1>403 Forbidden</h1>")
		_ = res.Send()
	})

	// every client joins the room named in ?room=, messages go to everyone in that room
	srv.Route("/ws").WebSocket(wsrouter.WebSocketEvents{
		OnOpen: func(req *wsrouter.Request, client *wsrouter.Client) {
			room := req.Query()["room"]
			if room == "" {
				room = "lobby"
			}
			client.SetTags(room)
			client.SetAttribute("room", room)
			_ = client.Send(fmt.Sprintf("welcome #%d to %s", client.ID(), room))
		},
		OnMessage: func(req *wsrouter.Request, client *wsrouter.Client, text string) {
			room, _ := client.Attribute("room")
			peers := client.Registry().ByTags(room.(string))
			_ = client.Send(fmt.Sprintf("#%d: %s", client.ID(), text), peers...)
		},
		OnClose: func(req *wsrouter.Request, client *wsrouter.Client) {
			_ = client.SendAll(fmt.Sprintf("#%d left", client.ID()), true)
		},
	})
}
