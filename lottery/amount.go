package lottery

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// Coin is the number of satoshis in one native currency unit.
	Coin uint64 = 100_000_000

	// DefaultMinStake is the default minimum entry value (0.01 units).
	DefaultMinStake = Coin / 100
)

// CoinDecimals is the number of fractional digits a coin amount may carry.
const CoinDecimals = 8

// ParseAmount converts a decimal coin string such as "0.02" to satoshis.
// The conversion is exact: more than CoinDecimals fractional digits, signs,
// exponents and anything else that is not a plain decimal are rejected.
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	whole, frac, hasPoint := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if hasPoint && frac == "" {
		return 0, fmt.Errorf("%w: %q has no digits after the point", ErrInvalidAmount, s)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	if len(frac) > CoinDecimals {
		return 0, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, CoinDecimals)
	}

	var coins uint64
	if whole != "" {
		v, err := strconv.ParseUint(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
		}
		coins = v
	}
	var sats uint64
	if frac != "" {
		v, err := strconv.ParseUint(frac+strings.Repeat("0", CoinDecimals-len(frac)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
		}
		sats = v
	}
	if coins > (math.MaxUint64-sats)/Coin {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	return coins*Coin + sats, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders satoshis as a decimal coin string without trailing zeros.
func FormatAmount(sats uint64) string {
	whole := sats / Coin
	frac := sats % Coin
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%08d", whole, frac), "0")
}
