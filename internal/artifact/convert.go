package artifact

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// Convert coerces a resolved argument value into the Go type go-ethereum's
// ABI packer expects for t.
//
// Accepted inputs:
//   - address: common.Address or a 0x-prefixed hex string
//   - uintN/intN: *big.Int, int, int64, uint64, or a decimal/0x-hex string
//   - bool: bool or a string accepted by strconv.ParseBool
//   - string: string
//   - bytesN: [N]byte-compatible common.Hash or hex string of at most N bytes
//   - bytes: []byte or 0x-prefixed hex string
func Convert(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.UintTy, abi.IntTy:
		return toInteger(t, v)
	case abi.BoolTy:
		return toBool(v)
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return s, nil
	case abi.FixedBytesTy:
		return toFixedBytes(t, v)
	case abi.BytesTy:
		return toBytes(v)
	default:
		return nil, fmt.Errorf("unsupported constructor type %s", t.String())
	}
}

func toAddress(v any) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case string:
		if !common.IsHexAddress(x) {
			return common.Address{}, fmt.Errorf("invalid address: %s", x)
		}
		return common.HexToAddress(x), nil
	default:
		return common.Address{}, fmt.Errorf("want address, got %T", v)
	}
}

func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, errors.New("nil integer")
		}
		return new(big.Int).Set(x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case string:
		n, ok := new(big.Int).SetString(strings.TrimSpace(x), 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer: %q", x)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("want integer, got %T", v)
	}
}

func toInteger(t abi.Type, v any) (any, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, err
	}

	if t.T == abi.UintTy {
		if n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s for %s", n, t.String())
		}
		if n.BitLen() > t.Size {
			return nil, fmt.Errorf("value %s overflows %s", n, t.String())
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("value %s overflows %s", n, t.String())
		}
	}

	goType := t.GetType()
	if goType == bigIntType {
		return n, nil
	}

	rv := reflect.New(goType).Elem()
	if t.T == abi.UintTy {
		rv.SetUint(n.Uint64())
	} else {
		rv.SetInt(n.Int64())
	}
	return rv.Interface(), nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, fmt.Errorf("invalid bool: %q", x)
		}
		return b, nil
	default:
		return false, fmt.Errorf("want bool, got %T", v)
	}
}

func toFixedBytes(t abi.Type, v any) (any, error) {
	var raw []byte
	switch x := v.(type) {
	case common.Hash:
		raw = x.Bytes()
	case []byte:
		raw = x
	case string:
		if !strings.HasPrefix(x, "0x") {
			// Plain text is right-padded, the usual convention for bytes32 identifiers.
			raw = []byte(x)
		} else {
			b, err := decodeHex(x)
			if err != nil {
				return nil, err
			}
			raw = b
		}
	default:
		return nil, fmt.Errorf("want bytes%d, got %T", t.Size, v)
	}

	if len(raw) > t.Size {
		return nil, fmt.Errorf("%d bytes do not fit bytes%d", len(raw), t.Size)
	}

	rv := reflect.New(t.GetType()).Elem()
	reflect.Copy(rv, reflect.ValueOf(raw))
	return rv.Interface(), nil
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return decodeHex(x)
	default:
		return nil, fmt.Errorf("want bytes, got %T", v)
	}
}

func decodeHex(s string) ([]byte, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}
