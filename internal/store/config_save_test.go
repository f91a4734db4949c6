package store

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"mindmap-cli/internal/layout"

	"gopkg.in/yaml.v3"
)

func TestSaveConfig_ConcurrentWriters_DoesNotCorruptConfig(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("MINDMAP_CONFIG_DIR", cfgDir)

	if err := SaveConfig(&GlobalConfig{CurrentWorkspace: "seed"}); err != nil {
		t.Fatalf("SaveConfig(seed): %v", err)
	}

	const n = 64
	errCh := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			cfg, err := LoadConfig()
			if err != nil {
				errCh <- err
				return
			}
			cfg.CurrentWorkspace = fmt.Sprintf("ws-%d", i)
			if err := SaveConfig(cfg); err != nil {
				errCh <- err
			}
		}(i)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent SaveConfig: %v", err)
	}

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var got GlobalConfig
	if err := yaml.Unmarshal(b, &got); err != nil {
		t.Fatalf("config is not valid yaml: %v\n%s", err, string(b))
	}
	if !strings.HasPrefix(got.CurrentWorkspace, "ws-") {
		t.Fatalf("expected one writer to win, got %q", got.CurrentWorkspace)
	}
}

func TestLoadConfig_MissingFileIsEmpty(t *testing.T) {
	t.Setenv("MINDMAP_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CurrentWorkspace != "" {
		t.Fatalf("expected empty workspace, got %q", cfg.CurrentWorkspace)
	}
	if got := cfg.LayoutConfig(); got != layout.DefaultConfig() {
		t.Fatalf("expected default layout, got %+v", got)
	}
	if got := cfg.ServerAddr(); got != "127.0.0.1:7420" {
		t.Fatalf("expected default addr, got %q", got)
	}
}

func TestLoadConfig_LayoutOverride(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("MINDMAP_CONFIG_DIR", cfgDir)

	raw := "layout:\n  levelSpacing: 300\n  siblingSpacing: 90\n  minVerticalSpacing: 50\n  rootGap: 40\n"
	if err := os.WriteFile(cfgDir+"/config.yaml", []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	lc := cfg.LayoutConfig()
	if lc.LevelSpacing != 300 || lc.SiblingSpacing != 90 || lc.MinVerticalSpacing != 50 || lc.RootGap != 40 {
		t.Fatalf("unexpected layout: %+v", lc)
	}
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"log level":    "log:\n  level: loud\n",
		"log format":   "log:\n  format: xml\n",
		"server addr":  "server:\n  addr: nope\n",
		"zero spacing": "layout:\n  levelSpacing: 0\n  siblingSpacing: 80\n  minVerticalSpacing: 60\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			cfgDir := t.TempDir()
			t.Setenv("MINDMAP_CONFIG_DIR", cfgDir)
			if err := os.WriteFile(cfgDir+"/config.yaml", []byte(raw), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
