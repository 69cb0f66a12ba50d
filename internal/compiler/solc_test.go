package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadArtifact(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantBytecode string
		wantErr      bool
	}{
		{
			name:         "flat shape",
			content:      `{"abi":[],"bytecode":"6080604052"}`,
			wantBytecode: "6080604052",
		},
		{
			name:         "flat shape with 0x prefix",
			content:      `{"bytecode":"0x6080604052"}`,
			wantBytecode: "6080604052",
		},
		{
			name:         "solc nested shape",
			content:      `{"abi":[],"evm":{"bytecode":{"object":"60806040"}}}`,
			wantBytecode: "60806040",
		},
		{
			name:    "no bytecode",
			content: `{"abi":[]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: `pragma solidity ^0.8.19;`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeArtifact(t, tt.content)
			artifact, err := LoadArtifact(path, "LiquidationExecutor")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBytecode, artifact.Bytecode)
			assert.Equal(t, "LiquidationExecutor", artifact.ContractName)
		})
	}
}

func TestLoadArtifactMissingFile(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "nope.json"), "LiquidationExecutor")
	require.Error(t, err)
}
