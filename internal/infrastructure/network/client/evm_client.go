package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/domain/entity"
)

// viewDecimals is assumed for custom view methods, which report 18-decimal amounts.
const viewDecimals = 18

// ERC20 ABI minimal part for balanceOf, decimals, symbol and name.
const erc20ABI = `[
{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
	uint256Output   abi.Arguments
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
		uint256Type, err := abi.NewType("uint256", "", nil)
		if err != nil {
			panic(fmt.Sprintf("failed to build uint256 ABI type: %v", err))
		}
		uint256Output = abi.Arguments{{Type: uint256Type}}
	})
}

// ReaderOptions tunes RPC behaviour of an EVM reader.
type ReaderOptions struct {
	ConnectionTimeout time.Duration
	RPCCallTimeout    time.Duration
	MinCallInterval   time.Duration // spacing between reads on one chain; zero disables pacing
}

// EVMClient implements port.BalanceReader for EVM-compatible chains.
type EVMClient struct {
	ethClient      *ethclient.Client
	rpcClient      *rpc.Client
	def            entity.ChainDescriptor
	rpcCallTimeout time.Duration
	limiter        *rate.Limiter
}

// NewEVMClient wraps an already connected RPC client.
func NewEVMClient(def entity.ChainDescriptor, rpcClient *rpc.Client, opts ReaderOptions) *EVMClient {
	initParsedERC20ABI()

	limit := rate.Inf
	if opts.MinCallInterval > 0 {
		limit = rate.Every(opts.MinCallInterval)
	}
	callTimeout := opts.RPCCallTimeout
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}

	return &EVMClient{
		ethClient:      ethclient.NewClient(rpcClient),
		rpcClient:      rpcClient,
		def:            def,
		rpcCallTimeout: callTimeout,
		limiter:        rate.NewLimiter(limit, 1),
	}
}

// Definition returns the chain descriptor for this client.
func (c *EVMClient) Definition() entity.ChainDescriptor {
	return c.def
}

// Close releases the underlying connection.
func (c *EVMClient) Close() {
	c.rpcClient.Close()
}

// LatestBlock returns the current head block number.
func (c *EVMClient) LatestBlock(ctx context.Context) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()
	return c.ethClient.BlockNumber(callCtx)
}

// NativeBalance reads the native currency balance of owner.
func (c *EVMClient) NativeBalance(ctx context.Context, owner string) entity.ReadResult {
	if err := c.limiter.Wait(ctx); err != nil {
		return entity.FailedRead(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	balance, err := c.ethClient.BalanceAt(callCtx, common.HexToAddress(owner), nil)
	if err != nil {
		return entity.FailedRead(fmt.Errorf("failed to fetch native balance on %s: %w", c.def.Identifier, err))
	}

	result := entity.NewReadResult(balance, c.def.NativeDecimals)
	result.Symbol = c.def.NativeSymbol
	result.Name = c.def.NativeSymbol
	return result
}

// TokenBalance reads balanceOf and decimals in one batch. For non-zero balances symbol and
// name are read in a second, best-effort batch.
func (c *EVMClient) TokenBalance(ctx context.Context, tokenAddress string, owner string) entity.ReadResult {
	if err := c.limiter.Wait(ctx); err != nil {
		return entity.FailedRead(err)
	}

	token := common.HexToAddress(tokenAddress)
	balanceData, err := parsedERC20ABI.Pack("balanceOf", common.HexToAddress(owner))
	if err != nil {
		return entity.FailedRead(fmt.Errorf("failed to pack balanceOf: %w", err))
	}
	decimalsData, _ := parsedERC20ABI.Pack("decimals")

	outputs, err := c.batchCall(ctx, token, balanceData, decimalsData)
	if err != nil {
		return entity.FailedRead(fmt.Errorf("balance batch for %s failed: %w", tokenAddress, err))
	}

	raw, err := unpackBigInt("balanceOf", outputs[0])
	if err != nil {
		return entity.FailedRead(fmt.Errorf("failed to decode balanceOf for %s: %w", tokenAddress, err))
	}
	decimals, err := unpackDecimals(outputs[1])
	if err != nil {
		return entity.FailedRead(fmt.Errorf("failed to decode decimals for %s: %w", tokenAddress, err))
	}

	result := entity.NewReadResult(raw, decimals)
	if result.Status == entity.ReadOK {
		result.Symbol, result.Name = c.tokenMetadata(ctx, token)
	}
	return result
}

// ViewBalance calls method(address) returns (uint256) on contract.
func (c *EVMClient) ViewBalance(ctx context.Context, contract string, method string, owner string) entity.ReadResult {
	if err := c.limiter.Wait(ctx); err != nil {
		return entity.FailedRead(err)
	}

	data := make([]byte, 0, 36)
	data = append(data, crypto.Keccak256([]byte(method+"(address)"))[:4]...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(owner).Bytes(), 32)...)

	outputs, err := c.batchCall(ctx, common.HexToAddress(contract), data)
	if err != nil {
		return entity.FailedRead(fmt.Errorf("%s call on %s failed: %w", method, contract, err))
	}

	unpacked, err := uint256Output.Unpack(outputs[0])
	if err != nil {
		return entity.FailedRead(fmt.Errorf("failed to decode %s result: %w", method, err))
	}
	if len(unpacked) == 0 {
		return entity.FailedRead(fmt.Errorf("failed to decode %s result: %w", method, errEmptyOutput))
	}
	raw, ok := unpacked[0].(*big.Int)
	if !ok {
		return entity.FailedRead(fmt.Errorf("unexpected %s result type %T", method, unpacked[0]))
	}
	return entity.NewReadResult(raw, viewDecimals)
}

func (c *EVMClient) tokenMetadata(ctx context.Context, token common.Address) (string, string) {
	symbolData, _ := parsedERC20ABI.Pack("symbol")
	nameData, _ := parsedERC20ABI.Pack("name")

	outputs, err := c.batchCall(ctx, token, symbolData, nameData)
	if err != nil {
		return "", ""
	}
	return unpackString("symbol", outputs[0]), unpackString("name", outputs[1])
}

var errEmptyOutput = errors.New("empty return data")

// batchCall issues one eth_call per calldata entry against target in a single JSON-RPC batch.
// Any element error fails the whole batch.
func (c *EVMClient) batchCall(ctx context.Context, target common.Address, calls ...[]byte) ([]hexutil.Bytes, error) {
	batchElems := make([]rpc.BatchElem, len(calls))
	outputs := make([]hexutil.Bytes, len(calls))
	for i, data := range calls {
		batchElems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{
				map[string]interface{}{"to": target, "data": hexutil.Bytes(data)},
				"latest",
			},
			Result: &outputs[i],
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	if err := c.rpcClient.BatchCallContext(callCtx, batchElems); err != nil {
		return nil, fmt.Errorf("RPC batch call failed: %w", err)
	}
	for i, elem := range batchElems {
		if elem.Error != nil {
			return nil, elem.Error
		}
		if len(outputs[i]) == 0 {
			return nil, errEmptyOutput
		}
	}
	return outputs, nil
}

func unpackBigInt(method string, data []byte) (*big.Int, error) {
	unpacked, err := parsedERC20ABI.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	if len(unpacked) == 0 {
		return nil, errEmptyOutput
	}
	value, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, unpacked[0])
	}
	return value, nil
}

func unpackDecimals(data []byte) (uint8, error) {
	unpacked, err := parsedERC20ABI.Unpack("decimals", data)
	if err != nil {
		return 0, err
	}
	if len(unpacked) == 0 {
		return 0, errEmptyOutput
	}
	decimals, ok := unpacked[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result type %T", unpacked[0])
	}
	return decimals, nil
}

func unpackString(method string, data []byte) string {
	unpacked, err := parsedERC20ABI.Unpack(method, data)
	if err != nil || len(unpacked) == 0 {
		return ""
	}
	s, _ := unpacked[0].(string)
	return s
}

var _ port.BalanceReader = (*EVMClient)(nil)
