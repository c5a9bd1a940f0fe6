package tabs

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	urlFlagRe = regexp.MustCompile(`--url=(\S+)`)
	urlRe     = regexp.MustCompile(`https?://[^\s"']+`)
)

// ProcScan reads browser renderer command lines from ps. Modern browsers rarely
// put the page URL there, so this mostly reports unknown.
type ProcScan struct {
	browser string
	logger  *zap.Logger
	// listProcesses is swapped out in tests
	listProcesses func(ctx context.Context) (io.Reader, error)
}

func NewProcScan(browser string, logger *zap.Logger) *ProcScan {
	if browser == "" {
		browser = "chrome"
	}
	return &ProcScan{browser: strings.ToLower(browser), logger: logger, listProcesses: psArgs}
}

func (p *ProcScan) Current(ctx context.Context) (Tab, bool) {
	r, err := p.listProcesses(ctx)
	if err != nil {
		p.logger.Debug("process scan failed", zap.Error(err))
		return Tab{}, false
	}
	return parseProcessList(r, p.browser)
}

func psArgs(ctx context.Context) (io.Reader, error) {
	out, err := exec.CommandContext(ctx, "ps", "-axo", "args=").Output()
	if err != nil {
		return nil, err
	}
	return strings.NewReader(string(out)), nil
}

// parseProcessList picks the first renderer process of browser that exposes a
// URL, preferring an explicit --url= flag.
func parseProcessList(r io.Reader, browser string) (Tab, bool) {
	var fallback string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(strings.ToLower(line), browser) || !strings.Contains(line, "--type=renderer") {
			continue
		}
		if m := urlFlagRe.FindStringSubmatch(line); len(m) == 2 {
			return Tab{Title: CleanURL(m[1]), URL: m[1]}, true
		}
		if fallback == "" {
			fallback = urlRe.FindString(line)
		}
	}
	if fallback != "" {
		return Tab{Title: CleanURL(fallback), URL: fallback}, true
	}
	return Tab{}, false
}
