// Package conf holds the configuration tree scanned from configs/config.yaml.
//
// Values that come from the environment arrive as strings through kratos
// ${VAR:default} placeholders, so durations and flags accept both their
// native JSON form and a string form.
package conf

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	DefaultCacheTTL        = time.Hour
	DefaultRegistryTimeout = 2 * time.Second
	DefaultQueueName       = "clicks"
)

// Bootstrap is the root of the configuration file.
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	Log    *Log    `json:"log"`
}

type Server struct {
	HTTP *Server_HTTP `json:"http"`
	// Metrics is the listener for /metrics, kept off the public port.
	Metrics *Server_HTTP `json:"metrics"`
}

type Server_HTTP struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

type Log struct {
	Level string `json:"level"`
}

type Data struct {
	Redis    *Data_Redis    `json:"redis"`
	Registry *Data_Registry `json:"registry"`
	Queue    *Data_Queue    `json:"queue"`
}

type Data_Redis struct {
	Addr         string   `json:"addr"`
	Password     string   `json:"password"`
	DB           int      `json:"db"`
	DialTimeout  Duration `json:"dial_timeout"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
	// CacheTTL is how long a resolved short code stays cached.
	CacheTTL Duration `json:"cache_ttl"`
}

// Data_Registry configures the client of the link registry service.
type Data_Registry struct {
	Endpoint string   `json:"endpoint"`
	Timeout  Duration `json:"timeout"`
	// BreakerFailures is the number of consecutive failures that opens the breaker.
	BreakerFailures uint32   `json:"breaker_failures"`
	BreakerTimeout  Duration `json:"breaker_timeout"`
}

type Data_Queue struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	VHost    string `json:"vhost"`
	Name     string `json:"name"`
	TLS      Flag   `json:"tls"`
	// CAFile is an optional PEM bundle used to verify the broker certificate.
	CAFile         string   `json:"ca_file"`
	PublishTimeout Duration `json:"publish_timeout"`
	RetryInterval  Duration `json:"retry_interval"`
	// DrainTimeout bounds flushing buffered events on shutdown.
	DrainTimeout Duration `json:"drain_timeout"`
	Buffer       int      `json:"buffer"`
	Workers      int      `json:"workers"`
}

// Normalize fills every unset field with its default so that callers never
// deal with nil sections or zero timeouts.
func (b *Bootstrap) Normalize() {
	if b.Server == nil {
		b.Server = &Server{}
	}
	if b.Server.HTTP == nil {
		b.Server.HTTP = &Server_HTTP{}
	}
	b.Server.HTTP.Addr = lo.CoalesceOrEmpty(b.Server.HTTP.Addr, "0.0.0.0:8000")
	if b.Server.Metrics == nil {
		b.Server.Metrics = &Server_HTTP{}
	}
	b.Server.Metrics.Addr = lo.CoalesceOrEmpty(b.Server.Metrics.Addr, "0.0.0.0:9100")

	if b.Log == nil {
		b.Log = &Log{}
	}
	b.Log.Level = lo.CoalesceOrEmpty(b.Log.Level, "info")

	if b.Data == nil {
		b.Data = &Data{}
	}
	b.Data.Normalize()
}

func (d *Data) Normalize() {
	if d.Redis == nil {
		d.Redis = &Data_Redis{}
	}
	d.Redis.Addr = lo.CoalesceOrEmpty(d.Redis.Addr, "localhost:6379")
	d.Redis.CacheTTL = lo.CoalesceOrEmpty(d.Redis.CacheTTL, Duration(DefaultCacheTTL))

	if d.Registry == nil {
		d.Registry = &Data_Registry{}
	}
	d.Registry.Endpoint = lo.CoalesceOrEmpty(d.Registry.Endpoint, "http://link-service:8000")
	d.Registry.Timeout = lo.CoalesceOrEmpty(d.Registry.Timeout, Duration(DefaultRegistryTimeout))
	d.Registry.BreakerFailures = lo.CoalesceOrEmpty(d.Registry.BreakerFailures, 5)
	d.Registry.BreakerTimeout = lo.CoalesceOrEmpty(d.Registry.BreakerTimeout, Duration(10*time.Second))

	if d.Queue == nil {
		d.Queue = &Data_Queue{}
	}
	q := d.Queue
	q.Host = lo.CoalesceOrEmpty(q.Host, "localhost")
	q.Port = lo.CoalesceOrEmpty(q.Port, lo.Ternary(bool(q.TLS), "5671", "5672"))
	q.Username = lo.CoalesceOrEmpty(q.Username, "guest")
	q.Password = lo.CoalesceOrEmpty(q.Password, "guest")
	q.Name = lo.CoalesceOrEmpty(q.Name, DefaultQueueName)
	q.PublishTimeout = lo.CoalesceOrEmpty(q.PublishTimeout, Duration(2*time.Second))
	q.RetryInterval = lo.CoalesceOrEmpty(q.RetryInterval, Duration(5*time.Second))
	q.DrainTimeout = lo.CoalesceOrEmpty(q.DrainTimeout, Duration(5*time.Second))
	q.Buffer = lo.CoalesceOrEmpty(q.Buffer, 1024)
	q.Workers = lo.CoalesceOrEmpty(q.Workers, 4)
}

// Duration is a time.Duration that unmarshals from "1h30m", "3600" (seconds)
// or a JSON number of seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*d = 0
	case float64:
		*d = Duration(val * float64(time.Second))
	case string:
		parsed, err := parseDuration(val)
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("conf: invalid duration %s", string(b))
	}
	return nil
}

func parseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return Duration(secs * float64(time.Second)), nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("conf: invalid duration %q: %w", s, err)
	}
	return Duration(v), nil
}

// Flag is a bool that also unmarshals from "true", "1", "false", "" and friends.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(val)
	case string:
		if strings.TrimSpace(val) == "" {
			*f = false
			return nil
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return fmt.Errorf("conf: invalid flag %q: %w", val, err)
		}
		*f = Flag(parsed)
	default:
		return fmt.Errorf("conf: invalid flag %s", string(b))
	}
	return nil
}
