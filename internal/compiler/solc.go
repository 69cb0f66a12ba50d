package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Artifact is the compiler output the deployer consumes: creation
// bytecode (hex, no 0x prefix) and the contract ABI.
type Artifact struct {
	ContractName string
	Bytecode     string
	ABI          json.RawMessage
}

type standardJSONInput struct {
	Language string                   `json:"language"`
	Sources  map[string]sourceContent `json:"sources"`
	Settings standardJSONSettings     `json:"settings"`
}

type sourceContent struct {
	Content string `json:"content"`
}

type standardJSONSettings struct {
	Optimizer       optimizerSettings              `json:"optimizer"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

type optimizerSettings struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

type standardJSONOutput struct {
	Errors    []solcDiagnostic                        `json:"errors"`
	Contracts map[string]map[string]contractArtifacts `json:"contracts"`
}

type solcDiagnostic struct {
	Severity         string `json:"severity"`
	FormattedMessage string `json:"formattedMessage"`
}

type contractArtifacts struct {
	ABI json.RawMessage `json:"abi"`
	EVM struct {
		Bytecode struct {
			Object string `json:"object"`
		} `json:"bytecode"`
	} `json:"evm"`
}

// Compile runs `solc --standard-json` on a single Solidity source and
// extracts the named contract's creation bytecode. Optimizer settings
// match the deployed contract's build (enabled, 200 runs).
func Compile(ctx context.Context, solcPath, sourcePath, contractName string) (*Artifact, error) {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("read contract source: %w", err)
	}

	fileName := filepath.Base(sourcePath)
	input := standardJSONInput{
		Language: "Solidity",
		Sources:  map[string]sourceContent{fileName: {Content: string(source)}},
		Settings: standardJSONSettings{
			Optimizer: optimizerSettings{Enabled: true, Runs: 200},
			OutputSelection: map[string]map[string][]string{
				"*": {"*": {"abi", "evm.bytecode", "evm.deployedBytecode"}},
			},
		},
	}
	stdin, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal solc input: %w", err)
	}

	cmd := exec.CommandContext(ctx, solcPath, "--standard-json")
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w: %s", solcPath, err, stderr.String())
	}

	var output standardJSONOutput
	if err := json.Unmarshal(stdout, &output); err != nil {
		return nil, fmt.Errorf("decode solc output: %w", err)
	}
	for _, diag := range output.Errors {
		if diag.Severity == "error" {
			return nil, fmt.Errorf("solc: %s", diag.FormattedMessage)
		}
	}

	contract, ok := output.Contracts[fileName][contractName]
	if !ok {
		return nil, fmt.Errorf("contract %s not found in %s", contractName, fileName)
	}
	if contract.EVM.Bytecode.Object == "" {
		return nil, fmt.Errorf("contract %s compiled to empty bytecode", contractName)
	}
	return &Artifact{
		ContractName: contractName,
		Bytecode:     contract.EVM.Bytecode.Object,
		ABI:          contract.ABI,
	}, nil
}

// artifactFile is the shape of a precompiled artifact on disk. Both the
// flat {bytecode, abi} form and the solc evm.bytecode.object nesting
// are accepted.
type artifactFile struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode string          `json:"bytecode"`
	EVM      struct {
		Bytecode struct {
			Object string `json:"object"`
		} `json:"bytecode"`
	} `json:"evm"`
}

// LoadArtifact reads a precompiled artifact so deployment works without
// a local solc.
func LoadArtifact(path, contractName string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var file artifactFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	bytecode := file.Bytecode
	if bytecode == "" {
		bytecode = file.EVM.Bytecode.Object
	}
	if bytecode == "" {
		return nil, fmt.Errorf("artifact %s has no bytecode", path)
	}
	if len(bytecode) >= 2 && bytecode[:2] == "0x" {
		bytecode = bytecode[2:]
	}
	return &Artifact{
		ContractName: contractName,
		Bytecode:     bytecode,
		ABI:          file.ABI,
	}, nil
}
