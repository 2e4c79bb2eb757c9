package clickhouse

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds the connection settings rendered into the DSN.
type ClientConfig struct {
	Host         string
	Port         int
	UseHTTP      bool
	Database     string
	User         string
	Password     string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	MaxExecTime  time.Duration
	AsyncInsert  bool
	WaitForAsync bool
}

// WithAddr sets the server address and protocol (native or HTTP).
func WithAddr(host string, port int, useHTTP bool) ClientOption {
	return func(c *ClientConfig) {
		c.Host = host
		c.Port = port
		c.UseHTTP = useHTTP
	}
}

// WithAuth selects the database and credentials.
func WithAuth(database, user, password string) ClientOption {
	return func(c *ClientConfig) {
		c.Database = database
		c.User = user
		c.Password = password
	}
}

// WithTimeouts sets dial and read timeouts and the per-query execution cap.
// Zero values keep the defaults.
func WithTimeouts(dial, read, maxExec time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
		if maxExec > 0 {
			c.MaxExecTime = maxExec
		}
	}
}

// WithAsyncInsert lets the server batch inserts; wait makes each insert
// return only after the batch is flushed.
func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(c *ClientConfig) {
		c.AsyncInsert = enabled
		c.WaitForAsync = enabled && wait
	}
}
