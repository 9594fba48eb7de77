// Package discovery is a supplementary, additive collaborator: it
// produces model.ProcessRecord values for locally running instant
// messaging client processes so the CLI is runnable end to end,
// without the extractor ever depending on anything beyond the
// ProcessRecord shape it already consumes from spec.md §6. Grounded
// on internal/wechat/process/{windows,darwin}/detector.go of the
// teacher repo.
package discovery

import (
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/sjzar/keyharvest/internal/keyharvest/model"
)

// candidateNames lists the process image names (sans extension) that
// identify a target instant-messaging client.
var candidateNames = []string{"Weixin", "WeChat"}

// dbMarker is the relative path fragment that, when found among a
// process's open files, confirms its data directory.
const dbMarker = "db_storage" + string(filepath.Separator) + "message" + string(filepath.Separator) + "message_0.db"

// FindProcesses enumerates running processes and returns a
// model.ProcessRecord for each one that looks like a target client.
func FindProcesses() ([]model.ProcessRecord, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var out []model.ProcessRecord
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		name = strings.TrimSuffix(name, ".exe")
		if !isCandidateName(name) {
			continue
		}

		record := model.ProcessRecord{
			PID:    uint32(p.Pid),
			Status: model.StatusOffline,
		}

		if exePath, err := p.Exe(); err == nil {
			record.ExePath = exePath
		}

		if platform() == model.PlatformMacOS {
			populateFromOpenFiles(int(p.Pid), &record)
		}

		out = append(out, record)
	}

	return out, nil
}

func isCandidateName(name string) bool {
	for _, c := range candidateNames {
		if name == c {
			return true
		}
	}
	return false
}

func platform() string {
	switch runtime.GOOS {
	case "windows":
		return model.PlatformWindows
	case "darwin":
		return model.PlatformMacOS
	default:
		return runtime.GOOS
	}
}

// populateFromOpenFiles shells out to lsof to find the process's
// message database among its open file descriptors, and derives
// DataDir/AccountName/Status from the matching path.
func populateFromOpenFiles(pid int, record *model.ProcessRecord) {
	files, err := openFiles(pid)
	if err != nil {
		log.Debug().Err(err).Int("pid", pid).Msg("failed to list open files")
		return
	}

	for _, path := range files {
		if !strings.Contains(path, dbMarker) {
			continue
		}

		parts := strings.Split(path, string(filepath.Separator))
		if len(parts) < 4 {
			continue
		}

		record.Status = model.StatusOnline
		record.DataDir = strings.Join(parts[:len(parts)-3], string(filepath.Separator))
		record.AccountName = parts[len(parts)-4]
		return
	}
}

func openFiles(pid int) ([]string, error) {
	out, err := exec.Command("lsof", "-p", strconv.Itoa(pid), "-F", "n").Output()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "n") {
			if path := line[1:]; path != "" {
				files = append(files, path)
			}
		}
	}
	return files, nil
}
