// Package artifacts loads truffle build artifacts (build/contracts/<Name>.json)
// and checks them against the configured compiler settings.
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalemusser/nftjr/internal/deploy/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrCompilerMismatch is returned when an artifact was built with a
	// different solc version or optimizer setting than configured.
	ErrCompilerMismatch = errors.New("artifact compiler settings do not match")
	// ErrNoBytecode is returned for interfaces and abstract contracts.
	ErrNoBytecode = errors.New("artifact has no deployable bytecode")
)

// Artifact is the subset of a truffle artifact the deploy driver needs.
type Artifact struct {
	ContractName string
	ABI          abi.ABI
	RawABI       json.RawMessage
	Bytecode     []byte
	Compiler     string // full solc version string, e.g. 0.6.8+commit.0bbfe453
	Optimizer    config.Optimizer
	HasMetadata  bool // Optimizer is only known when the artifact carries solc metadata
}

type truffleArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
	Metadata     string          `json:"metadata"`
	Compiler     struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"compiler"`
}

type solcMetadata struct {
	Settings struct {
		Optimizer struct {
			Enabled bool `json:"enabled"`
			Runs    int  `json:"runs"`
		} `json:"optimizer"`
	} `json:"settings"`
}

// Loader reads artifacts from one directory and verifies each against the
// compiler configuration.
type Loader struct {
	Dir      string
	Compiler config.Compiler
}

// NewLoader returns a Loader for dir.
func NewLoader(dir string, compiler config.Compiler) *Loader {
	return &Loader{Dir: dir, Compiler: compiler}
}

// Load reads and verifies <Dir>/<name>.json.
func (l *Loader) Load(name string) (Artifact, error) {
	path := filepath.Join(l.Dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("read artifact %s: %w", name, err)
	}
	art, err := Parse(data)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact %s: %w", name, err)
	}
	if err := l.verify(art); err != nil {
		return Artifact{}, fmt.Errorf("artifact %s: %w", name, err)
	}
	return art, nil
}

func (l *Loader) verify(art Artifact) error {
	if !versionMatches(art.Compiler, l.Compiler.Version) {
		return fmt.Errorf("%w: built with solc %q, want %s", ErrCompilerMismatch, art.Compiler, l.Compiler.Version)
	}
	if !art.HasMetadata {
		return nil
	}
	want := l.Compiler.Optimizer
	if art.Optimizer.Enabled != want.Enabled || (want.Enabled && art.Optimizer.Runs != want.Runs) {
		return fmt.Errorf("%w: optimizer %+v, want %+v", ErrCompilerMismatch, art.Optimizer, want)
	}
	return nil
}

// versionMatches compares the release part of a solc version string (before
// any "+commit..." build suffix) with want. A shorter want such as "0.6"
// matches any 0.6.x release, but "0.6.1" never matches "0.6.12".
func versionMatches(full, want string) bool {
	release, _, _ := strings.Cut(full, "+")
	return release == want || strings.HasPrefix(release, want+".")
}

// Parse decodes one truffle artifact document.
func Parse(data []byte) (Artifact, error) {
	var raw truffleArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return Artifact{}, fmt.Errorf("decode: %w", err)
	}

	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return Artifact{}, fmt.Errorf("decode abi: %w", err)
	}

	code := common.FromHex(raw.Bytecode)
	if len(code) == 0 {
		return Artifact{}, ErrNoBytecode
	}

	art := Artifact{
		ContractName: raw.ContractName,
		ABI:          parsed,
		RawABI:       raw.ABI,
		Bytecode:     code,
		Compiler:     raw.Compiler.Version,
	}

	if raw.Metadata != "" {
		var meta solcMetadata
		if err := json.Unmarshal([]byte(raw.Metadata), &meta); err != nil {
			return Artifact{}, fmt.Errorf("decode metadata: %w", err)
		}
		art.Optimizer = config.Optimizer{
			Enabled: meta.Settings.Optimizer.Enabled,
			Runs:    meta.Settings.Optimizer.Runs,
		}
		art.HasMetadata = true
	}

	return art, nil
}
