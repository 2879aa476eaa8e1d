package proxy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrUnsupportedChain is returned for chain ids without a bundler upstream.
var ErrUnsupportedChain = errors.New("unsupported chain")

// DefaultChainNames maps chain ids to the bundler provider's network names.
var DefaultChainNames = map[string]string{
	"8453": "base",
}

// ChainResolver routes bundler calls by the chain id in the last path segment
// to <base>/<network>/<apiKey>.
func ChainResolver(base, apiKey string, names map[string]string) Resolver {
	base = strings.TrimRight(base, "/")
	return func(c *fiber.Ctx) (string, error) {
		path := strings.TrimRight(c.Path(), "/")
		chainID := path[strings.LastIndex(path, "/")+1:]
		name, ok := names[chainID]
		if !ok || chainID == "" {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedChain, chainID)
		}
		return fmt.Sprintf("%s/%s/%s", base, name, apiKey), nil
	}
}
