package alerter

import (
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/ids-rs/idsrs/internal/detector"
)

// smtpTimeout bounds each per-connection SMTP exchange.
const smtpTimeout = 30 * time.Second

const emailTemplate = `<!DOCTYPE html>
<html>
<body>
<h2>IDS-RS Alert: __SCAN_TYPE__</h2>
<p><strong>Severity:</strong> __SEVERITY__</p>
<p><strong>Source IP:</strong> __SRC_IP__</p>
<p><strong>Destination IP:</strong> __DST_IP__</p>
<p><strong>Ports scanned:</strong> __PORT_COUNT__</p>
<p><strong>Timestamp:</strong> __TIMESTAMP__</p>
<pre>__PORTS__</pre>
<hr>
<p>__FOOTER__</p>
</body>
</html>
`

func renderEmail(a detector.Alert, footer string) string {
	dst := a.DestIP
	if dst == "" {
		dst = "-"
	}
	replacer := strings.NewReplacer(
		"__SRC_IP__", a.SourceIP,
		"__DST_IP__", dst,
		"__SCAN_TYPE__", string(a.ScanType),
		"__SEVERITY__", "7",
		"__PORT_COUNT__", strconv.Itoa(len(a.UniquePorts)),
		"__TIMESTAMP__", a.Timestamp.Format(time.RFC3339),
		"__PORTS__", portsCSV(a.UniquePorts),
		"__FOOTER__", html.EscapeString(footer),
	)
	return replacer.Replace(emailTemplate)
}

// emailDialer abstracts the SMTP client construction so tests can inject a
// fake without a live listener, the same injectable-transport shape the
// dispatcher this is grounded on uses for its emailSender field.
type emailDialer func(addr string) (*smtp.Client, error)

func dialSMTP(addr string) (*smtp.Client, error) {
	conn, err := net.DialTimeout("tcp", addr, smtpTimeout)
	if err != nil {
		return nil, err
	}
	if err := conn.SetDeadline(time.Now().Add(smtpTimeout)); err != nil {
		conn.Close()
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	return smtp.NewClient(conn, host)
}

// sendEmailTransport sends one HTML message per recipient in cfg.To.
// Returns the first error encountered; the caller logs and continues
// regardless (see Alerter.Send).
func sendEmailTransport(cfg EmailConfig, a detector.Alert, dial emailDialer) error {
	if dial == nil {
		dial = dialSMTP
	}
	addr := net.JoinHostPort(cfg.SMTPServer, strconv.Itoa(cfg.SMTPPort))
	body := renderEmail(a, cfg.EmailFooter)
	subject := fmt.Sprintf("[IDS-RS] %s scan from %s (%d ports)", a.ScanType, a.SourceIP, len(a.UniquePorts))

	var firstErr error
	for _, to := range cfg.To {
		if err := sendOne(addr, cfg, subject, body, to, dial); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func sendOne(addr string, cfg EmailConfig, subject, body, to string, dial emailDialer) error {
	c, err := dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	host, _, _ := net.SplitHostPort(addr)

	if cfg.SMTPTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
				return err
			}
		}
	}

	if cfg.Username != "" {
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"utf-8\"\r\n\r\n%s\r\n",
		cfg.From, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}
