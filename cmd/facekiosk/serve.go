package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/facekiosk/internal/annotate"
	"github.com/ayusman/facekiosk/internal/app"
	"github.com/ayusman/facekiosk/internal/capture"
	"github.com/ayusman/facekiosk/internal/config"
	"github.com/ayusman/facekiosk/internal/detector"
	"github.com/ayusman/facekiosk/internal/display"
	"github.com/ayusman/facekiosk/internal/logging"
	"github.com/ayusman/facekiosk/internal/people"
	"github.com/ayusman/facekiosk/internal/plugin"
	"github.com/ayusman/facekiosk/internal/recognition"
	"github.com/ayusman/facekiosk/internal/server"
	"github.com/ayusman/facekiosk/internal/store"
	"github.com/ayusman/facekiosk/internal/tray"
)

var serveOpts struct {
	mode  string
	style string
	addr  string
	tray  bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the camera pipeline and the kiosk page",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveOpts.mode, "detector", "", "analysis mode: face or yolo")
	cmd.Flags().StringVar(&serveOpts.style, "style", "", "annotation style: box or corners")
	cmd.Flags().StringVar(&serveOpts.addr, "addr", "", "HTTP listen address")
	cmd.Flags().BoolVar(&serveOpts.tray, "tray", false, "show the system tray menu")
}

func init() {
	addServeFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

// applyServeFlags lets command-line flags override the loaded config.
func applyServeFlags(c *config.Config) error {
	if serveOpts.mode != "" {
		c.Recognition.Mode = serveOpts.mode
	}
	if serveOpts.style != "" {
		c.Display.Style = serveOpts.style
	}
	if serveOpts.addr != "" {
		c.Server.Addr = serveOpts.addr
	}
	if serveOpts.tray {
		c.Tray.Enabled = true
	}
	return c.Validate()
}

func runServe(ctx context.Context) error {
	log := logging.Component("main")

	if err := applyServeFlags(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	st, err := store.New(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	directory := people.NewDirectory(cfg.People.InfoFile, cfg.Recognition.GalleryDir)

	analyzer, gallery, err := buildAnalyzer(cfg)
	if err != nil {
		return err
	}

	board := display.NewBoard(directory, cfg.Recognition.UnknownImage, time.Now)

	manager := plugin.NewManager(cfg.Hooks.Dir)
	if err := manager.Discover(); err != nil {
		log.WithError(err).Warn("Hook discovery failed")
	}
	log.Infof("Loaded %d hooks from %s", len(manager.List()), cfg.Hooks.Dir)

	camera := capture.NewCamera(capture.Options{
		DeviceID: cfg.Camera.Device,
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		FPS:      cfg.Camera.FPS,
	})

	kiosk := app.New(app.Config{
		Camera:    camera,
		Analyzer:  analyzer,
		Board:     board,
		People:    directory,
		Store:     st,
		Hooks:     plugin.NewDispatcher(manager, plugin.NewExecutor(cfg.Hooks.TimeoutMs)),
		Style:     annotate.ParseStyle(cfg.Display.Style),
		Enhance:   cfg.Camera.Enhance,
		QueueSize: cfg.Display.QueueSize,
		Motion: app.MotionConfig{
			Enabled:     cfg.Motion.Enabled,
			Threshold:   cfg.Motion.Threshold,
			IdleFPS:     cfg.Motion.IdleFPS,
			IdleTimeout: time.Duration(cfg.Motion.IdleTimeoutMs) * time.Millisecond,
		},
	})

	if err := kiosk.Start(); err != nil {
		analyzer.Close()
		return err
	}
	defer kiosk.Stop()

	srv := server.New(server.Config{
		Title:     cfg.Display.Title,
		StaticDir: cfg.Server.StaticDir,
		Board:     board,
		Pipeline:  kiosk,
		Store:     st,
		People:    directory,
		Gallery:   gallery,
	}).HTTPServer(cfg.Server.Addr)

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Kiosk page at %s", kioskURL(cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if cfg.Tray.Enabled {
		if err := runTray(ctx, kiosk, cfg, serveErr); err != nil {
			return fmt.Errorf("server: %w", err)
		}
	} else {
		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("server: %w", err)
			}
		}
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildAnalyzer loads the models for the configured mode. The gallery is nil
// in YOLO mode.
func buildAnalyzer(c *config.Config) (app.Analyzer, *recognition.Gallery, error) {
	log := logging.Component("main")

	if c.Recognition.Mode == config.ModeYOLO {
		det, err := detector.NewYOLODetector(detector.Config{
			ModelPath:  c.YOLO.ModelPath,
			LabelsPath: c.YOLO.LabelsPath,
			InputSize:  c.YOLO.InputSize,
			Confidence: float32(c.YOLO.Confidence),
			NMS:        float32(c.YOLO.NMS),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("load YOLO model: %w", err)
		}
		log.Infof("Object detection with %s", c.YOLO.ModelPath)
		return app.NewObjectAnalyzer(det), nil, nil
	}

	enc, err := recognition.NewDlibEncoder(c.Recognition.ModelDir)
	if err != nil {
		return nil, nil, err
	}

	gallery, err := recognition.LoadGallery(c.Recognition.GalleryDir, enc)
	if err != nil {
		enc.Close()
		return nil, nil, fmt.Errorf("load gallery: %w", err)
	}
	log.Infof("Gallery has %d known faces (tolerance %.2f)", gallery.Len(), c.Recognition.Tolerance)

	matcher := recognition.NewMatcher(gallery, c.Recognition.Tolerance)
	return app.NewFaceAnalyzer(recognition.NewRecognizer(enc, matcher)), gallery, nil
}

// runTray blocks on the tray menu until Quit is clicked, ctx is cancelled or
// the HTTP server fails. The server error, if any, is returned.
func runTray(ctx context.Context, kiosk *app.App, c *config.Config, serveErr <-chan error) error {
	t := tray.New(c.Display.Title, kiosk.IsEnabled())
	t.OnToggle(kiosk.SetEnabled)
	t.OnOpen(func() {
		if err := openBrowser(kioskURL(c.Server.Addr)); err != nil {
			logging.Component("main").WithError(err).Warn("Failed to open browser")
		}
	})
	kiosk.RegisterArrivalCallback(func(state display.State) {
		t.SetLastArrival(state.Name)
	})

	done := make(chan struct{})
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- quitOnServerExit(ctx, serveErr, done, t.Quit)
	}()
	t.Run()
	close(done)
	return <-watchErr
}

// quitOnServerExit calls quit once ctx is cancelled or the server stops. It
// returns the server error, or nil when done closes first.
func quitOnServerExit(ctx context.Context, serveErr <-chan error, done <-chan struct{}, quit func()) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		quit()
		return nil
	case err := <-serveErr:
		if err != nil {
			logging.Component("main").WithError(err).Error("HTTP server failed, closing tray")
		}
		quit()
		return err
	}
}

// kioskURL turns a listen address into a browsable URL.
func kioskURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
