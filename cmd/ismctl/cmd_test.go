package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
	"github.com/celestiaorg/ismkit/pkg/ism/metadata"
)

func execute(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--home", home, "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInit(t *testing.T) {
	home := t.TempDir()

	out, err := execute(t, home, "init")
	require.NoError(t, err)
	require.Contains(t, out, configFileName)

	cfg, err := loadConfig(viper.New(), home)
	require.NoError(t, err)
	defaults := DefaultConfig()
	require.Equal(t, defaults.LogLevel, cfg.LogLevel)
	require.Equal(t, defaults.Chains, cfg.Chains)
	require.Equal(t, defaults.Builder, cfg.Builder)
	require.Empty(t, cfg.Validators)

	opts, err := cfg.BuilderOptions()
	require.NoError(t, err)
	require.Len(t, opts, 4)

	_, err = execute(t, home, "init")
	require.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	home := t.TempDir()
	writeFile(t, home, configFileName, `
log_level = "debug"

[chains]
celestia = 1128614981

[builder]
cache_ttl = "0s"
attempt_timeout = "2s"

[[validators]]
address = "0x00000000000000000000000000000000000000aa"
dir = "/tmp/checkpoints"
`)
	t.Setenv("ISMCTL_LOG_FORMAT", "json")

	cfg, err := loadConfig(viper.New(), home)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.True(t, cfg.Registry().Has(1128614981))
	require.Len(t, cfg.Validators, 1)

	opts, err := cfg.BuilderOptions()
	require.NoError(t, err)
	require.Len(t, opts, 3)

	cfg.Builder.FetchTimeout = "soon"
	_, err = cfg.BuilderOptions()
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(&bytes.Buffer{}, "debug", "json")
	require.NoError(t, err)
	_, err = newLogger(&bytes.Buffer{}, "loud", "json")
	require.Error(t, err)
	_, err = newLogger(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}

func TestDelta(t *testing.T) {
	home := t.TempDir()
	current := writeFile(t, home, "current.yaml", `
type: domainRoutingIsm
address: "0x0000000000000000000000000000000000000001"
owner: "0x00000000000000000000000000000000000000ee"
domains:
  ethereum:
    type: testIsm
    address: "0x0000000000000000000000000000000000000002"
  optimism:
    type: testIsm
    address: "0x0000000000000000000000000000000000000003"
  7777:
    type: testIsm
    address: "0x0000000000000000000000000000000000000004"
`)
	target := writeFile(t, home, "target.yaml", `
type: domainRoutingIsm
domains:
  ethereum:
    type: testIsm
  arbitrum:
    type: testIsm
  7777:
    type: testIsm
`)

	out, err := execute(t, home, "delta", "--current", current, "--target", target)
	require.NoError(t, err)

	var res deltaOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, "update", res.Action)
	require.Equal(t, "0x0000000000000000000000000000000000000001", res.Address)
	require.Equal(t, []uint32{42161}, res.Delta.DomainsToEnroll)
	require.Equal(t, []uint32{10}, res.Delta.DomainsToUnenroll)
	require.Len(t, res.Operations, 2)

	redeploy := writeFile(t, home, "redeploy.yaml", `
type: staticAggregationIsm
threshold: 1
modules:
  - type: testIsm
`)
	out, err = execute(t, home, "delta", "--current", current, "--target", redeploy)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, "redeploy", res.Action)
	require.NotEmpty(t, res.Reason)
}

func TestMetadataDecodeAggregation(t *testing.T) {
	data := metadata.EncodeAggregation([]metadata.Slot{
		metadata.PresentSlot([]byte{0xaa}),
		{},
		metadata.PresentSlot([]byte{}),
	})

	out, err := execute(t, t.TempDir(), "metadata", "decode", "--variant", "aggregation", "--modules", "3", hexutil.Encode(data))
	require.NoError(t, err)

	var slots []slotOutput
	require.NoError(t, json.Unmarshal([]byte(out), &slots))
	require.Equal(t, []slotOutput{{Present: true, Metadata: "0xaa"}, {}, {Present: true, Metadata: "0x"}}, slots)

	_, err = execute(t, t.TempDir(), "metadata", "decode", "--variant", "unknown", "0x00")
	require.Error(t, err)
}

// TestSignAndBuild signs a checkpoint into a local directory and builds
// message id multisig metadata from it.
func TestSignAndBuild(t *testing.T) {
	home := t.TempDir()
	checkpoints := filepath.Join(home, "checkpoints")

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	validator := ethcrypto.PubkeyToAddress(key.PublicKey)
	hook := "0x00000000000000000000000000000000000000cc"

	msg := util.HyperlaneMessage{
		Version:     3,
		Nonce:       4,
		Origin:      1,
		Sender:      util.CreateMockHexAddress("sender", 1),
		Destination: 1128614981,
		Recipient:   util.CreateMockHexAddress("recipient", 2),
		Body:        []byte("hello"),
	}
	msgID := common.Hash(msg.Id())
	root := ethcrypto.Keccak256Hash([]byte("root"))

	_, err = execute(t, home, "init")
	require.NoError(t, err)
	f, err := os.OpenFile(filepath.Join(home, configFileName), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = fmt.Fprintf(f, "\n[[validators]]\naddress = %q\ndir = %q\n", validator.Hex(), checkpoints)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := execute(t, home, "checkpoint", "sign",
		"--key", hexutil.Encode(ethcrypto.FromECDSA(key))[2:],
		"--dir", checkpoints,
		"--hook", hook,
		"--origin", "1",
		"--root", root.Hex(),
		"--index", "7",
		"--message-id", msgID.Hex(),
	)
	require.NoError(t, err)
	require.Contains(t, out, root.Hex()[2:])

	_, err = execute(t, home, "checkpoint", "fetch", "--validator", validator.Hex())
	require.NoError(t, err)

	ism := writeFile(t, home, "ism.yaml", fmt.Sprintf(`
type: messageIdMultisigIsm
threshold: 1
validators:
  - %q
`, validator.Hex()))
	metrics := filepath.Join(home, "metrics.prom")

	out, err = execute(t, home, "metadata", "build",
		"--ism", ism,
		"--message", hexutil.Encode(msg.Bytes()),
		"--hook", hook,
		"--index", "7",
		"--metrics-file", metrics,
	)
	require.NoError(t, err)

	var res buildOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, msgID.Hex(), res.MessageID)

	raw, err := hexutil.Decode(res.Metadata)
	require.NoError(t, err)
	decoded, err := metadata.Decode(config.MessageID, raw)
	require.NoError(t, err)
	require.Equal(t, root, decoded.Checkpoint.Root)
	require.Equal(t, uint32(7), decoded.Checkpoint.Index)
	require.Len(t, decoded.Signatures, 1)

	_, err = os.Stat(metrics)
	require.NoError(t, err)

	// a second validator that never signed keeps the quorum out of reach
	ism = writeFile(t, home, "ism2.yaml", fmt.Sprintf(`
type: messageIdMultisigIsm
threshold: 2
validators:
  - %q
  - "0x00000000000000000000000000000000000000dd"
`, validator.Hex()))
	_, err = execute(t, home, "metadata", "build",
		"--ism", ism,
		"--message", hexutil.Encode(msg.Bytes()),
		"--hook", hook,
		"--index", "7",
	)
	require.Error(t, err)
}
