package pacman

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/dkoosis/pacfo/pkg/interp"
)

// DefaultConfPath is pacman's main configuration file.
const DefaultConfPath = "/etc/pacman.conf"

// Conf holds the [options] settings that change how pacman prints.
type Conf struct {
	Color             bool
	ILoveCandy        bool
	VerbosePkgLists   bool
	ParallelDownloads int
	Architectures     []string
}

// ReadConf parses the file at path.
func ReadConf(path string) (Conf, error) {
	f, err := os.Open(path)
	if err != nil {
		return Conf{}, fmt.Errorf("open pacman config: %w", err)
	}
	defer f.Close()
	return ParseConf(f)
}

// ParseConf reads pacman.conf syntax. Only the [options] section is looked
// at; Include directives are not followed.
func ParseConf(r io.Reader) (Conf, error) {
	var c Conf
	section := ""
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		if section != "options" {
			continue
		}

		key, value, _ := strings.Cut(line, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "Color":
			c.Color = true
		case "ILoveCandy":
			c.ILoveCandy = true
		case "VerbosePkgLists":
			c.VerbosePkgLists = true
		case "ParallelDownloads":
			n, err := strconv.Atoi(value)
			if err != nil {
				return c, fmt.Errorf("pacman config line %d: ParallelDownloads %q: %w", lineNo, value, err)
			}
			c.ParallelDownloads = n
		case "Architecture":
			c.Architectures = append(c.Architectures, strings.Fields(value)...)
		}
	}
	if err := sc.Err(); err != nil {
		return c, fmt.Errorf("read pacman config: %w", err)
	}
	return c, nil
}

// Style is the progress bar style pacman will draw.
func (c Conf) Style() interp.ProgressStyle {
	if c.ILoveCandy {
		return interp.StyleFancy
	}
	return interp.StylePlain
}

// ArchSuffixes turns the configured architectures into target-token suffixes.
// "auto" resolves to the running machine; "-any" is always included.
func (c Conf) ArchSuffixes() []string {
	seen := map[string]bool{}
	var out []string
	add := func(arch string) {
		if arch == "" || seen[arch] {
			return
		}
		seen[arch] = true
		out = append(out, "-"+arch)
	}
	for _, a := range c.Architectures {
		if a == "auto" {
			a = machineArch()
		}
		add(a)
	}
	if len(out) == 0 {
		return interp.DefaultArchSuffixes
	}
	add("any")
	return out
}

func machineArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "i686"
	case "arm64":
		return "aarch64"
	case "arm":
		return "armv7h"
	}
	return runtime.GOARCH
}
