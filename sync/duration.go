// ABOUTME: Parser for the time tracker's PT-prefixed duration tokens
// ABOUTME: Converts tokens like PT2H30M into decimal hours rounded to two places
package sync

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedDuration is returned for tokens outside the PT[nH][nM][nS] format.
var ErrMalformedDuration = errors.New("malformed duration")

// Components appear at most once, in H, M, S order, as plain decimals.
var durationPattern = regexp.MustCompile(`^PT(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?$`)

var componentSeconds = [3]float64{3600, 60, 1}

// ParseDuration converts a token such as "PT2H30M" into hours.
// Any subset of the H, M and S components may be present. An empty token is zero hours.
func ParseDuration(token string) (float64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}

	m := durationPattern.FindStringSubmatch(strings.ToUpper(token))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, token)
	}

	var seconds float64
	present := false
	for i, part := range m[1:] {
		if part == "" {
			continue
		}
		present = true
		n, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, token)
		}
		seconds += n * componentSeconds[i]
	}
	if !present {
		return 0, fmt.Errorf("%w: %q has no components", ErrMalformedDuration, token)
	}

	return math.Round(seconds/3600*100) / 100, nil
}
