package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/sessionshard/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// EndpointSpec is the loosely typed form of an endpoint, as written in a
// save path query string or a config file. Unset fields take their defaults.
type EndpointSpec struct {
	Host string `mapstructure:"host" yaml:"host,omitempty" json:"host,omitempty"`
	Port int    `mapstructure:"port" yaml:"port,omitempty" json:"port,omitempty"`
	Path string `mapstructure:"path" yaml:"path,omitempty" json:"path,omitempty"`

	Weight       *int           `mapstructure:"weight" yaml:"weight,omitempty" json:"weight,omitempty"`
	Timeout      *time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds or "2s"
	Persistent   bool           `mapstructure:"persistent" yaml:"persistent,omitempty" json:"persistent,omitempty"`
	PersistentID string         `mapstructure:"persistent_id" yaml:"persistent_id,omitempty" json:"persistent_id,omitempty"`
	Prefix       *string        `mapstructure:"prefix" yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Auth         string         `mapstructure:"auth" yaml:"auth,omitempty" json:"auth,omitempty"`
	Failover     string         `mapstructure:"failover" yaml:"failover,omitempty" json:"failover,omitempty"` // host[:port]
}

// Endpoint converts the spec into a validated domain.Endpoint.
func (s EndpointSpec) Endpoint() (domain.Endpoint, error) {
	addr := domain.Address{Host: s.Host, Port: s.Port, Path: s.Path}
	if addr.Path == "" && addr.Port == 0 {
		addr.Port = domain.DefaultPort
	}

	ep := domain.NewEndpoint(addr)
	if s.Weight != nil {
		ep.Weight = *s.Weight
	}
	if s.Timeout != nil {
		ep.Timeout = *s.Timeout
	}
	ep.Persistent = s.Persistent
	ep.PersistentID = s.PersistentID
	ep.Prefix = s.Prefix
	ep.Auth = s.Auth

	if s.Failover != "" {
		failover, err := ParseFailover(s.Failover)
		if err != nil {
			return domain.Endpoint{}, err
		}
		ep.Failover = &failover
	}

	if err := ep.Validate(); err != nil {
		return domain.Endpoint{}, err
	}
	return ep, nil
}

// ParseFailover parses "host[:port]"; the port defaults to domain.DefaultPort.
func ParseFailover(s string) (domain.Address, error) {
	host, portStr, found := strings.Cut(s, ":")
	if host == "" {
		return domain.Address{}, fmt.Errorf("%w: failover %q has no host", domain.ErrConfig, s)
	}
	port := domain.DefaultPort
	if found {
		p, err := strconv.Atoi(portStr)
		if err != nil || p <= 0 || p > 65535 {
			return domain.Address{}, fmt.Errorf("%w: failover %q has an invalid port", domain.ErrConfig, s)
		}
		port = p
	}
	return domain.Address{Host: host, Port: port}, nil
}

// decode fills out from a loosely typed map. Strings convert to numbers and
// booleans ("1", "2.5", "true", "yes", "off"); integers and floats convert
// to durations as seconds; other strings convert to durations with
// time.ParseDuration.
func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			stringToBoolHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var durationType = reflect.TypeOf(time.Duration(0))

func secondsToDurationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(f * float64(time.Second)), nil
		}
	}
	return data, nil
}

var boolType = reflect.TypeOf(false)

// stringToBoolHook accepts the yes/no and on/off spellings; anything else is
// left to strconv.ParseBool.
func stringToBoolHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	v, ok := data.(string)
	if !ok || to != boolType {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return data, nil
}
