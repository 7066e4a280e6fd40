package walletloader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"portfolio_checker/internal/app/port"
)

// AddressFileLoader reads addresses to check from a text file, one per line.
// Blank lines and lines starting with # are ignored.
type AddressFileLoader struct {
	filePath string
	logger   port.Logger
}

// NewAddressFileLoader creates a new AddressFileLoader.
func NewAddressFileLoader(filePath string, log port.Logger) *AddressFileLoader {
	return &AddressFileLoader{
		filePath: filePath,
		logger:   log,
	}
}

// Addresses returns the valid addresses of the file in file order, without duplicates.
// Invalid lines are logged and skipped.
func (l *AddressFileLoader) Addresses() ([]string, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open address file %s: %w", l.filePath, err)
	}
	defer file.Close()

	addresses, err := l.parse(file)
	if err != nil {
		return nil, fmt.Errorf("error scanning address file %s: %w", l.filePath, err)
	}

	l.logger.Info("Addresses loaded from file", "count", len(addresses), "path", l.filePath)
	return addresses, nil
}

func (l *AddressFileLoader) parse(r io.Reader) ([]string, error) {
	var addresses []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !common.IsHexAddress(line) {
			l.logger.Warn("Skipping invalid address", "file", l.filePath, "line_number", lineNum, "address", line)
			continue
		}
		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		addresses = append(addresses, line)
	}
	return addresses, scanner.Err()
}
