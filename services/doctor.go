package services

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"text/template"
	"time"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/models"
	"spectrum-keeper/internal/rpc"
	"spectrum-keeper/internal/system"
	"spectrum-keeper/internal/utils"
)

/**
 * Doctor runs a sequence of independent, advisory checks against the
 * background service and aggregates them worst-case: overall status is
 * healthy only if every probe passes, and each failed probe carries a
 * remediation hint.
 */
type Doctor struct {
	cfg *config.AppConfig
	run system.Runner
	// dial is the raw TCP probe, overridable in tests
	dial func(network, addr string, timeout time.Duration) (net.Conn, error)
	// client reaches the status HTTP endpoint
	client *rpc.HTTPClient
}

func NewDoctor(cfg *config.AppConfig, run system.Runner) *Doctor {
	return &Doctor{
		cfg:  cfg,
		run:  run,
		dial: net.DialTimeout,
		client: rpc.NewHTTPClient(&rpc.HTTPConfig{
			BaseURL: fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port),
			Timeout: 5 * time.Second,
		}),
	}
}

func (d *Doctor) addr() string {
	return fmt.Sprintf("%s:%d", d.cfg.Server.Host, d.cfg.Server.Port)
}

func (d *Doctor) unit() string {
	return d.cfg.System.UnitName + ".service"
}

/**
 * Run executes every probe and aggregates the results.
 * @returns {models.DiagnosisReport} One CheckResult per probe plus summary
 * @description
 * Probes, in order: init-system active flag, process-table scan, listening
 * port scan, raw TCP connect, HTTP status endpoint. Each is advisory and
 * non-blocking; a failed probe never stops the rest.
 */
func (d *Doctor) Run(ctx context.Context) *models.DiagnosisReport {
	report := &models.DiagnosisReport{Timestamp: time.Now()}
	report.Checks = append(report.Checks,
		d.checkUnitActive(ctx),
		d.checkProcess(ctx),
		d.checkListeningPort(ctx),
		d.checkTCPConnect(),
		d.checkHTTPStatus(),
	)
	report.Aggregate()
	return report
}

func (d *Doctor) checkUnitActive(ctx context.Context) models.CheckResult {
	c := models.CheckResult{Name: "unit-active"}
	out, _ := d.run.Run(ctx, "systemctl", "is-active", d.unit())
	state := strings.TrimSpace(out)
	if state == "active" {
		c.Passed = true
		c.Detail = "systemd reports active"
	} else {
		c.Detail = fmt.Sprintf("systemd reports %q", state)
		c.Hint = "systemctl start " + d.unit()
	}
	return c
}

func (d *Doctor) checkProcess(ctx context.Context) models.CheckResult {
	c := models.CheckResult{Name: "process"}
	out, err := d.run.Run(ctx, "ps", "-e", "-o", "pid,command")
	if err != nil {
		c.Detail = fmt.Sprintf("process scan failed: %v", err)
		c.Hint = "check that ps is available on this host"
		return c
	}
	pids := utils.MatchProcessList(out, "run --service")
	if len(pids) > 0 {
		c.Passed = true
		c.Detail = fmt.Sprintf("service process found (pid %d)", pids[0])
	} else {
		c.Detail = "no matching service process"
		c.Hint = "systemctl restart " + d.unit()
	}
	return c
}

func (d *Doctor) checkListeningPort(ctx context.Context) models.CheckResult {
	c := models.CheckResult{Name: "listening-port"}
	out, err := d.run.Run(ctx, "ss", "-ltn")
	if err != nil {
		// ss missing is advisory only; the TCP probe still covers the port.
		c.Passed = true
		c.Detail = "port scan unavailable, skipped"
		return c
	}
	needle := fmt.Sprintf(":%d", d.cfg.Server.Port)
	if strings.Contains(out, needle) {
		c.Passed = true
		c.Detail = fmt.Sprintf("port %d is listening", d.cfg.Server.Port)
	} else {
		c.Detail = fmt.Sprintf("port %d not found in listener table", d.cfg.Server.Port)
		c.Hint = fmt.Sprintf("check the service bound %s (journalctl -u %s)", d.addr(), d.unit())
	}
	return c
}

func (d *Doctor) checkTCPConnect() models.CheckResult {
	c := models.CheckResult{Name: "tcp-connect"}
	conn, err := d.dial("tcp", d.addr(), 2*time.Second)
	if err != nil {
		c.Detail = fmt.Sprintf("connect %s: %v", d.addr(), err)
		c.Hint = "verify host/port in config.yaml match the installed unit"
		return c
	}
	conn.Close()
	c.Passed = true
	c.Detail = fmt.Sprintf("TCP connect to %s succeeded", d.addr())
	return c
}

func (d *Doctor) checkHTTPStatus() models.CheckResult {
	c := models.CheckResult{Name: "http-status"}
	obj, code, err := d.client.GetJSON("/api/v1/status")
	if err != nil {
		c.Detail = fmt.Sprintf("status endpoint unreachable: %v", err)
		c.Hint = "curl http://" + d.addr() + "/api/v1/status"
		return c
	}
	if code != 200 {
		c.Detail = fmt.Sprintf("status endpoint returned %d", code)
		c.Hint = "journalctl -u " + d.unit()
		return c
	}
	c.Passed = true
	// Payload shape is not guaranteed; report status field when present.
	if s, ok := obj["status"].(string); ok {
		c.Detail = fmt.Sprintf("status endpoint reachable (status=%s)", s)
	} else {
		c.Detail = "status endpoint reachable"
	}
	return c
}

const diagnoseScriptTmpl = `#!/bin/sh
# Generated by spectrum-keeper; shell fallback for hosts without the binary.
UNIT="{{.Unit}}"
ADDR="{{.Host}}:{{.Port}}"
echo "== systemd =="
systemctl is-active "$UNIT"
echo "== processes =="
ps -e -o pid,command | grep "run --service" | grep -v grep
echo "== listeners =="
ss -ltn | grep ":{{.Port}}"
echo "== http =="
curl -s -m 5 "http://$ADDR/api/v1/status" || echo "status endpoint unreachable"
`

// RenderDiagnoseScript produces the generated shell diagnostic script.
func RenderDiagnoseScript(cfg *config.AppConfig) ([]byte, error) {
	t, err := template.New("diagnose").Parse(diagnoseScriptTmpl)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = t.Execute(&buf, struct {
		Unit string
		Host string
		Port int
	}{cfg.System.UnitName + ".service", cfg.Server.Host, cfg.Server.Port})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
