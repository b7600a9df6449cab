package accounts

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var devAddress0 = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    common.Address
		wantErr bool
	}{
		{name: "plain hex", key: DevPrivateKeys[0], want: devAddress0},
		{name: "0x prefix and whitespace", key: "  0x" + DevPrivateKeys[0] + "\n", want: devAddress0},
		{name: "second dev key", key: DevPrivateKeys[1], want: common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")},
		{name: "not hex", key: "zz", wantErr: true},
		{name: "too short", key: "abcd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseKey(tt.key)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Address)
			assert.False(t, s.Dev)
		})
	}
}

func TestDevSigner(t *testing.T) {
	s, err := DevSigner(0, 31337)
	require.NoError(t, err)
	assert.Equal(t, devAddress0, s.Address)
	assert.True(t, s.Dev)

	for _, chainID := range []uint64{1, 10, 137, 8453, 42161} {
		_, err := DevSigner(0, chainID)
		assert.ErrorIs(t, err, ErrProductionChain, "chain %d", chainID)
	}

	_, err = DevSigner(len(DevPrivateKeys), 31337)
	assert.Error(t, err)
	_, err = DevSigner(-1, 31337)
	assert.Error(t, err)
}

func TestLoadSigner(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		chainID  uint64
		allowDev bool
		want     common.Address
		wantDev  bool
		wantErr  error
	}{
		{name: "configured key wins", key: DevPrivateKeys[2], chainID: 1, want: common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")},
		{name: "dev key on local chain", chainID: 1337, allowDev: true, want: devAddress0, wantDev: true},
		{name: "dev key refused on mainnet", chainID: 1, allowDev: true, wantErr: ErrProductionChain},
		{name: "no key without dev keys", chainID: 1337, wantErr: ErrNoSigner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := LoadSigner(tt.key, tt.chainID, tt.allowDev)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Address)
			assert.Equal(t, tt.wantDev, s.Dev)
		})
	}
}

func TestIsProductionChain(t *testing.T) {
	name, ok := IsProductionChain(1)
	assert.True(t, ok)
	assert.Equal(t, "Ethereum Mainnet", name)

	_, ok = IsProductionChain(5777)
	assert.False(t, ok)
}
