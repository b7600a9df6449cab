package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	addrC = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		explicit []string
		signer   common.Address
		lister   Lister
		want     []common.Address
		wantErr  error
	}{
		{
			name:     "explicit accounts win",
			explicit: []string{addrB.Hex(), addrA.Hex()},
			signer:   addrC,
			lister:   StaticLister{Addresses: []common.Address{addrC}},
			want:     []common.Address{addrB, addrA},
		},
		{
			name:     "explicit duplicates dropped",
			explicit: []string{addrA.Hex(), " " + addrA.Hex(), addrB.Hex()},
			want:     []common.Address{addrA, addrB},
		},
		{
			name:   "signer first then node accounts",
			signer: addrA,
			lister: StaticLister{Addresses: []common.Address{addrB, addrA, addrC}},
			want:   []common.Address{addrA, addrB, addrC},
		},
		{
			name:   "node accounts only",
			lister: StaticLister{Addresses: []common.Address{addrC, addrB}},
			want:   []common.Address{addrC, addrB},
		},
		{
			name:   "lister error ignored with signer",
			signer: addrA,
			lister: StaticLister{Err: errors.New("method not found")},
			want:   []common.Address{addrA},
		},
		{
			name:    "no sources",
			wantErr: ErrNoAccounts,
		},
		{
			name:    "node has no accounts",
			lister:  StaticLister{},
			wantErr: ErrNoAccounts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(context.Background(), tt.explicit, tt.signer, tt.lister)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	_, err := Resolve(context.Background(), []string{"0xnothex"}, common.Address{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address")

	listErr := errors.New("connection refused")
	_, err = Resolve(context.Background(), nil, common.Address{}, StaticLister{Err: listErr})
	assert.ErrorIs(t, err, listErr)
}

func TestNodeLister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eth_accounts", req.Method)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  []string{addrA.Hex(), addrB.Hex()},
		})
	}))
	defer srv.Close()

	client, err := rpc.DialContext(context.Background(), srv.URL)
	require.NoError(t, err)
	defer client.Close()

	got, err := NewNodeLister(client).Accounts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []common.Address{addrA, addrB}, got)
}
