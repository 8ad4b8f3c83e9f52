// mousefx - mouse driven motion for OBS scene items
// Moves, scales and wiggles a source in response to the cursor
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"mousefx/internal/animator"
	"mousefx/internal/api"
	"mousefx/internal/autostart"
	"mousefx/internal/config"
	"mousefx/internal/hotkey"
	"mousefx/internal/input"
	"mousefx/internal/motion"
	"mousefx/internal/obs"
	"mousefx/internal/tray"
)

var (
	version       = "0.1.0"
	showVer       = flag.Bool("version", false, "Show version")
	listScenes    = flag.Bool("list", false, "List OBS scenes and their items")
	dryRun        = flag.Bool("dry-run", false, "Animate an in-memory item instead of talking to OBS")
	presetName    = flag.String("preset", "", "Apply the named preset at startup")
	exportPresets = flag.String("export-presets", "", "Write all presets to a JSON file and exit")
	importPresets = flag.String("import-presets", "", "Merge presets from a JSON file and exit")
	noTray        = flag.Bool("no-tray", false, "Run without the system tray menu")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("mousefx version %s\n", version)
		return
	}

	// Initialize config
	cfgMgr, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}

	if *exportPresets != "" {
		if err := cfgMgr.ExportPresets(*exportPresets); err != nil {
			log.Fatalf("Failed to export presets: %v", err)
		}
		fmt.Printf("Exported %d preset(s) to %s\n", len(cfgMgr.PresetNames()), *exportPresets)
		return
	}

	if *importPresets != "" {
		n, err := cfgMgr.ImportPresets(*importPresets)
		if err != nil {
			log.Fatalf("Failed to import presets: %v", err)
		}
		if err := cfgMgr.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
		fmt.Printf("Imported %d preset(s) from %s\n", n, *importPresets)
		return
	}

	if *presetName != "" {
		if err := cfgMgr.ApplyPreset(*presetName); err != nil {
			log.Fatalf("Failed to apply preset: %v", err)
		}
	}

	if *listScenes {
		listOBSScenes(cfgMgr)
		return
	}

	runService(cfgMgr)
}

func listOBSScenes(cfgMgr *config.Manager) {
	cfg := cfgMgr.Get()
	client := obs.NewClient(cfg.General.OBSAddress, cfg.General.OBSPassword)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to OBS at %s: %v", cfg.General.OBSAddress, err)
	}

	scenes, err := client.Scenes(ctx)
	if err != nil {
		log.Fatalf("Failed to list scenes: %v", err)
	}

	fmt.Println("OBS Scenes:")
	fmt.Println("-----------")
	for _, scene := range scenes {
		marker := " "
		if scene.Name == cfg.Motion.Scene {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, scene.Name)

		items, err := client.SceneItems(ctx, scene.Name)
		if err != nil {
			fmt.Printf("    (failed to list items: %v)\n", err)
			continue
		}
		for _, item := range items {
			fmt.Printf("    [%d] %s\n", item.ID, item.SourceName)
		}
	}
}

func runService(cfgMgr *config.Manager) {
	log.Println("mousefx starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := cfgMgr.Get()

	var (
		host     animator.Host
		obsConn  *obs.Client
		isOnline func() bool
	)
	if *dryRun {
		mem := animator.NewMemoryHost()
		mem.Put(cfg.Motion.Scene, cfg.Motion.Source, motion.Identity())
		host = mem
		isOnline = func() bool { return true }
		log.Printf("Dry run: animating in-memory item %s/%s", cfg.Motion.Scene, cfg.Motion.Source)
	} else {
		obsConn = obs.NewClient(cfg.General.OBSAddress, cfg.General.OBSPassword)
		host = obsConn
		isOnline = obsConn.IsConnected
		go obsConn.Run(ctx)
	}

	anim := animator.New(cfgMgr, host, input.NewSampler())

	if err := autostart.Sync(cfg.General.AutoStart); err != nil {
		log.Printf("Autostart warning: %v", err)
	}

	hkMgr := hotkey.NewManager()
	refreshHotkeys := hotkeyRefresher(cfgMgr, hkMgr, anim)
	refreshHotkeys()
	if err := hkMgr.Start(ctx); err != nil {
		log.Printf("Warning: Hotkey Engine failed to start: %v", err)
	}

	cfgMgr.RegisterChangeCallback(func() {
		anim.Reload()
		refreshHotkeys()
	})

	var apiServer *api.Server
	if cfg.General.APIEnabled {
		apiServer = api.NewServer(cfgMgr, anim)
		apiServer.SetConnectionCheck(isOnline)
		go func() {
			if err := apiServer.Start(cfg.General.APIPort); err != nil {
				log.Printf("API server error: %v", err)
			}
		}()
	}

	anim.SetOnTick(func(t motion.Transform) {
		if apiServer != nil {
			apiServer.BroadcastTransform(t)
		}
		if *dryRun {
			log.Printf("Dry run: pos=(%.0f, %.0f) rot=%.2f scale=(%.3f, %.3f)",
				t.Position.X(), t.Position.Y(), t.Rotation, t.Scale.X(), t.Scale.Y())
		}
	})
	anim.Start(ctx)

	shutdown := func() {
		log.Println("Shutting down...")
		anim.Stop()
		if apiServer != nil {
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			apiServer.Shutdown(sctx)
			scancel()
		}
		if obsConn != nil {
			obsConn.Close()
		}
		cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if *noTray || !cfg.General.ShowTray {
		log.Println("mousefx running. Press Ctrl+C to stop.")
		<-sigCh
		shutdown()
		return
	}

	t := tray.NewMenu(cfgMgr, anim, nil)
	go func() {
		<-sigCh
		t.Stop()
	}()

	log.Println("mousefx running. Press Ctrl+C to stop.")
	t.Run()
	shutdown()
}

// hotkeyRefresher returns a function that re-registers hotkeys whenever the
// configured chords change
func hotkeyRefresher(cfgMgr *config.Manager, hkMgr *hotkey.Manager, anim *animator.Animator) func() {
	var (
		mu      sync.Mutex
		lastSig string
	)
	return func() {
		general := cfgMgr.Get().General

		names := make([]string, 0, len(general.PresetHotkeys))
		for name := range general.PresetHotkeys {
			names = append(names, name)
		}
		sort.Strings(names)

		sig := general.PauseHotkey
		for _, name := range names {
			sig += "|" + name + "=" + general.PresetHotkeys[name]
		}

		mu.Lock()
		defer mu.Unlock()
		// Re-registering resets chord state, which would refire a held chord
		if sig == lastSig {
			return
		}
		lastSig = sig
		hkMgr.Clear()

		if _, err := hkMgr.Register(general.PauseHotkey, func() {
			anim.SetPaused(!anim.Paused())
		}); err != nil {
			log.Printf("Hotkey: Invalid pause hotkey: %v", err)
		}

		for _, name := range names {
			presetName := name // Capture for closure
			chord := strings.TrimSpace(general.PresetHotkeys[name])
			if _, err := hkMgr.Register(chord, func() {
				if err := cfgMgr.ApplyPreset(presetName); err != nil {
					log.Printf("Hotkey: Apply preset error: %v", err)
				}
			}); err != nil {
				log.Printf("Hotkey: Invalid hotkey for preset '%s': %v", name, err)
			}
		}
	}
}
