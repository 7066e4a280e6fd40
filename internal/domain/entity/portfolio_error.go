package entity

import "errors"

var (
	// ErrInvalidAddress is returned when the caller-supplied address is not a valid hex address.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrUnknownChain is returned when a chain identifier is not configured.
	ErrUnknownChain = errors.New("unknown chain")
)

// PortfolioErrorKind classifies degraded results; none of them fail a request.
type PortfolioErrorKind string

const (
	ChainUnavailable PortfolioErrorKind = "chain_unavailable"
	TokenReadFailure PortfolioErrorKind = "token_read_failure"
	ChainTimeout     PortfolioErrorKind = "chain_timeout"
)

// PortfolioError represents an error that occurred while fetching part of a snapshot.
type PortfolioError struct {
	Chain        string             `json:"chain"`
	Kind         PortfolioErrorKind `json:"kind"`
	Token        string             `json:"token,omitempty"`
	TokenAddress string             `json:"tokenAddress,omitempty"`
	Message      string             `json:"message"`
}
