package artifacts

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dalemusser/nftjr/internal/deploy/config"
)

const marketABI = `[
	{"inputs":[],"stateMutability":"nonpayable","type":"constructor"},
	{"inputs":[{"internalType":"address","name":"media","type":"address"}],"name":"configure","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

func writeArtifact(t *testing.T, dir, name, version string, optimizer bool, runs int, bytecode string) {
	t.Helper()

	meta, _ := json.Marshal(map[string]any{
		"settings": map[string]any{
			"optimizer": map[string]any{"enabled": optimizer, "runs": runs},
		},
	})
	doc, _ := json.Marshal(map[string]any{
		"contractName": name,
		"abi":          json.RawMessage(marketABI),
		"bytecode":     bytecode,
		"metadata":     string(meta),
		"compiler":     map[string]string{"name": "solc", "version": version},
	})
	if err := os.WriteFile(filepath.Join(dir, name+".json"), doc, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func defaultCompiler() config.Compiler {
	return config.Compiler{Version: "0.6.8", Optimizer: config.Optimizer{Enabled: true, Runs: 200}}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "Market", "0.6.8+commit.0bbfe453.Emscripten.clang", true, 200, "0x6080604052")

	art, err := NewLoader(dir, defaultCompiler()).Load("Market")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if art.ContractName != "Market" {
		t.Errorf("ContractName: got %q", art.ContractName)
	}
	if len(art.Bytecode) != 5 {
		t.Errorf("Bytecode length: got %d, want 5", len(art.Bytecode))
	}
	if _, ok := art.ABI.Methods["configure"]; !ok {
		t.Error("expected configure method in ABI")
	}
}

func TestLoader_CompilerMismatch(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		optimizer bool
		runs      int
	}{
		{"solc version", "0.7.0+commit.9e61f92b", true, 200},
		{"optimizer off", "0.6.8+commit.0bbfe453", false, 0},
		{"runs differ", "0.6.8+commit.0bbfe453", true, 1000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeArtifact(t, dir, "Market", tc.version, tc.optimizer, tc.runs, "0x6080")

			_, err := NewLoader(dir, defaultCompiler()).Load("Market")
			if !errors.Is(err, ErrCompilerMismatch) {
				t.Errorf("got %v, want ErrCompilerMismatch", err)
			}
		})
	}
}

func TestVersionMatches(t *testing.T) {
	tests := []struct {
		full, want string
		ok         bool
	}{
		{"0.6.8+commit.0bbfe453.Emscripten.clang", "0.6.8", true},
		{"0.6.8", "0.6.8", true},
		{"0.6.12+commit.27d51765", "0.6.1", false},
		{"0.6.12+commit.27d51765", "0.6", true},
		{"0.6.1+commit.e6f7d5a4", "0.6.1", true},
		{"0.7.0+commit.9e61f92b", "0.6.8", false},
	}
	for _, tt := range tests {
		if got := versionMatches(tt.full, tt.want); got != tt.ok {
			t.Errorf("versionMatches(%q, %q) = %v, want %v", tt.full, tt.want, got, tt.ok)
		}
	}
}

func TestLoader_RejectsLongerPatchVersion(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "Market", "0.6.12+commit.27d51765", true, 200, "0x6080")

	compiler := defaultCompiler()
	compiler.Version = "0.6.1"
	_, err := NewLoader(dir, compiler).Load("Market")
	if !errors.Is(err, ErrCompilerMismatch) {
		t.Errorf("got %v, want ErrCompilerMismatch", err)
	}
}

func TestLoader_WithoutMetadataSkipsOptimizerCheck(t *testing.T) {
	dir := t.TempDir()
	doc, _ := json.Marshal(map[string]any{
		"contractName": "Market",
		"abi":          json.RawMessage(marketABI),
		"bytecode":     "0x6080604052",
		"compiler":     map[string]string{"name": "solc", "version": "0.6.8+commit.0bbfe453"},
	})
	if err := os.WriteFile(filepath.Join(dir, "Market.json"), doc, 0o644); err != nil {
		t.Fatal(err)
	}

	art, err := NewLoader(dir, defaultCompiler()).Load("Market")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if art.HasMetadata {
		t.Error("HasMetadata set for an artifact without metadata")
	}
}

func TestLoader_NoBytecode(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "IMarket", "0.6.8", true, 200, "0x")

	_, err := NewLoader(dir, defaultCompiler()).Load("IMarket")
	if !errors.Is(err, ErrNoBytecode) {
		t.Errorf("got %v, want ErrNoBytecode", err)
	}
}

func TestLoader_Missing(t *testing.T) {
	_, err := NewLoader(t.TempDir(), defaultCompiler()).Load("Media")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want not-exist", err)
	}
}
