package config

import (
	"os"
	"testing"

	"github.com/manifoldweb/node/internal/testutil"
	"github.com/spf13/viper"
)

func TestLoadConfigDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir("../.."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	if _, err := Load(""); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if AppConfig.Network.ID != "manifold-mainnet" {
		t.Fatalf("unexpected network id: %s", AppConfig.Network.ID)
	}
	if AppConfig.Sector.Size != 16.0 {
		t.Fatalf("unexpected sector size: %v", AppConfig.Sector.Size)
	}
}

func TestLoadConfigOverride(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir("../.."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	if _, err := Load("bootstrap"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if AppConfig.Network.MaxPeers != 128 {
		t.Fatalf("expected MaxPeers 128, got %d", AppConfig.Network.MaxPeers)
	}
	if AppConfig.Network.DiscoveryTag != "manifold-bootstrap" {
		t.Fatalf("expected discovery tag override")
	}
}

func TestLoadConfigSandbox(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("configs"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	data := []byte("network:\n  id: sandbox\n  max_peers: 7\n")
	if err := sb.WriteFile("configs/default.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	if _, err := Load(""); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if AppConfig.Network.ID != "sandbox" {
		t.Fatalf("expected network id sandbox, got %s", AppConfig.Network.ID)
	}
	if AppConfig.Network.MaxPeers != 7 {
		t.Fatalf("expected MaxPeers 7, got %d", AppConfig.Network.MaxPeers)
	}
}
