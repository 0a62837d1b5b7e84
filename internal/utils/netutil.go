package utils

import (
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff"
)

// CheckPortConnectable reports whether something accepts TCP connections on
// the given local port.
func CheckPortConnectable(host string, port int) bool {
	if host == "" {
		host = "localhost"
	}
	timeout := time.Second
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

/**
 * Wait for a just-started service to accept connections
 * @param {string} host - Host to probe
 * @param {int} port - Port to probe
 * @param {time.Duration} delay - Fixed delay between the two attempts
 * @returns {bool} Returns true once connectable
 * @description
 * A service that was started a moment ago may not be listening yet. Policy
 * is one immediate attempt plus exactly one fixed-delay retry; anything
 * still down after that is reported, not waited on.
 */
func WaitPortConnectable(host string, port int, delay time.Duration) bool {
	probe := func() error {
		if CheckPortConnectable(host, port) {
			return nil
		}
		return fmt.Errorf("port %d not connectable", port)
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), 1)
	return backoff.Retry(probe, b) == nil
}
