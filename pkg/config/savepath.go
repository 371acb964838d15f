package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/sessionshard/pkg/domain"
)

// ParseSavePath parses a list of backend URLs separated by commas or
// whitespace, in order:
//
//	tcp://host:port?weight=2&timeout=2.5&prefix=app:&auth=secret&failover=host:port
//	unix:///var/run/redis.sock?weight=1&persistent=1&persistent_id=sessions
//
// A URL without a scheme is read as tcp. Unknown query parameters are ignored.
// Any malformed URL or invalid endpoint fails the whole list with
// domain.ErrConfig, reporting the offset of the offending URL.
func ParseSavePath(savePath string) ([]domain.Endpoint, error) {
	var endpoints []domain.Endpoint

	isSep := func(r byte) bool {
		return r == ',' || unicode.IsSpace(rune(r))
	}

	for i := 0; i < len(savePath); {
		for i < len(savePath) && isSep(savePath[i]) {
			i++
		}
		j := i
		for j < len(savePath) && !isSep(savePath[j]) {
			j++
		}
		if i < j {
			raw := savePath[i:j]
			ep, err := parseEndpointURL(raw)
			if err != nil {
				if !errors.Is(err, domain.ErrConfig) {
					err = fmt.Errorf("%w: %w", domain.ErrConfig, err)
				}
				return nil, fmt.Errorf("failed to parse save path (error at offset %d, url was %q): %w", i, raw, err)
			}
			endpoints = append(endpoints, ep)
		}
		i = j + 1
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: save path %q holds no endpoint", domain.ErrConfig, savePath)
	}
	return endpoints, nil
}

func parseEndpointURL(raw string) (domain.Endpoint, error) {
	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "unix:") {
		raw = "tcp://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return domain.Endpoint{}, err
	}

	var spec EndpointSpec
	switch u.Scheme {
	case "unix":
		spec.Path = u.Path
		if spec.Path == "" {
			spec.Path = u.Opaque
		}
		if spec.Path == "" {
			return domain.Endpoint{}, fmt.Errorf("%w: unix url has no path", domain.ErrConfig)
		}
	case "tcp", "redis":
		spec.Host = u.Hostname()
		if p := u.Port(); p != "" {
			port, err := strconv.Atoi(p)
			if err != nil {
				return domain.Endpoint{}, fmt.Errorf("%w: invalid port %q", domain.ErrConfig, p)
			}
			spec.Port = port
		}
	default:
		return domain.Endpoint{}, fmt.Errorf("%w: unsupported scheme %q", domain.ErrConfig, u.Scheme)
	}

	params := make(map[string]any)
	for k, v := range u.Query() {
		params[k] = v[0]
	}
	if err := decode(params, &spec); err != nil {
		return domain.Endpoint{}, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	return spec.Endpoint()
}
