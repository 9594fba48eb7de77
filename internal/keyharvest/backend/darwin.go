//go:build darwin

package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sjzar/keyharvest/internal/errors"
	"github.com/sjzar/keyharvest/internal/keyharvest/model"
)

const (
	filterRegionType = "MALLOC_NANO"
	readTimeout      = 30 * time.Second
)

var vmmapRowRE = regexp.MustCompile(`^(\S+)\s+([0-9a-fA-F]+)-([0-9a-fA-F]+)\s+\[\s*(\S+)\s+(\S+)(?:\s+\S+){2}\]\s+(\S+)\s+(\S+)(?:\s+\S+)?\s+(.*)$`)

// darwinBackend is Variant B: no direct VM-read syscalls are available
// to unprivileged code, so regions come from vmmap and reads are driven
// through an lldb child process over a named pipe.
type darwinBackend struct{}

func newDarwinBackend() (Backend, error) {
	return &darwinBackend{}, nil
}

func (b *darwinBackend) Variant() Variant { return VariantPatternScan }

func (b *darwinBackend) Open(ctx context.Context, pid uint32) (Target, error) {
	if !sipDisabled() {
		return nil, errors.ErrPermissionDenied
	}
	if _, err := os.FindProcess(int(pid)); err != nil {
		return nil, errors.ErrTargetGone
	}
	return &darwinTarget{pid: pid}, nil
}

type darwinTarget struct {
	pid uint32
}

func (t *darwinTarget) Close() error { return nil }

func (t *darwinTarget) Regions(ctx context.Context) (RegionIterator, error) {
	rows, err := vmmapWritableRegions(t.pid)
	if err != nil {
		return nil, err
	}

	var regions []model.Region
	for _, r := range rows {
		if r.regionType != filterRegionType {
			continue
		}
		size := r.end - r.start
		if size < model.MinRegionSize {
			continue
		}
		regions = append(regions, splitRegion(r.start, size, 0)...)
	}
	return &sliceRegionIterator{regions: regions}, nil
}

func (t *darwinTarget) Read(ctx context.Context, base, size uint64) ([]byte, error) {
	data, err := lldbRead(ctx, t.pid, base, size)
	if err != nil {
		log.Debug().Uint64("base", base).Err(err).Msg("region became unreadable")
		return nil, nil
	}
	return data, nil
}

type sliceRegionIterator struct {
	regions []model.Region
	i       int
}

func (it *sliceRegionIterator) Next(ctx context.Context) (model.Region, bool, error) {
	if it.i >= len(it.regions) {
		return model.Region{}, false, nil
	}
	r := it.regions[it.i]
	it.i++
	return r, true, nil
}

// sipDisabled checks whether System Integrity Protection is disabled;
// it must be for remote memory reads to succeed at all.
func sipDisabled() bool {
	out, err := exec.Command("csrutil", "status").CombinedOutput()
	if err != nil {
		return false
	}
	s := strings.ToLower(string(out))
	if strings.Contains(s, "system integrity protection status: disabled") {
		return true
	}
	return strings.Contains(s, "disabled") && strings.Contains(s, "debugging")
}

type vmmapRow struct {
	regionType string
	start, end uint64
}

// vmmapWritableRegions shells out to `vmmap -wide <pid>`, locates the
// "Writable regions" section, and parses each row with vmmapRowRE.
func vmmapWritableRegions(pid uint32) ([]vmmapRow, error) {
	out, err := exec.Command("vmmap", "-wide", fmt.Sprintf("%d", pid)).CombinedOutput()
	if err != nil {
		return nil, errors.New(errors.ErrTypeMemory, "vmmap failed", err, 500)
	}

	var rows []vmmapRow
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "==== Writable regions for") {
			found = true
			scanner.Scan() // column header row
			break
		}
	}
	if !found {
		return nil, nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := vmmapRowRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, err1 := strconv.ParseUint(m[2], 16, 64)
		end, err2 := strconv.ParseUint(m[3], 16, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		rows = append(rows, vmmapRow{regionType: m[1], start: start, end: end})
	}
	return rows, nil
}

// lldbRead dumps size bytes at addr from the target process's address
// space to a named pipe via a one-shot lldb child process, reading the
// pipe on a worker goroutine bounded by readTimeout.
func lldbRead(ctx context.Context, pid uint32, addr, size uint64) ([]byte, error) {
	pipePath := filepath.Join(os.TempDir(), fmt.Sprintf("keyharvest_pipe_%d", time.Now().UnixNano()))
	if err := exec.Command("mkfifo", pipePath).Run(); err != nil {
		return nil, errors.New(errors.ErrTypeMemory, "failed to create pipe file", err, 500)
	}
	defer os.Remove(pipePath)

	dataCh := make(chan []byte, 1)
	errCh := make(chan error, 1)
	go func() {
		f, err := os.OpenFile(pipePath, os.O_RDONLY, 0600)
		if err != nil {
			errCh <- err
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			errCh <- err
			return
		}
		dataCh <- data
	}()

	lldbCmd := fmt.Sprintf(
		`lldb -p %d -o "memory read --binary --force --outfile %s --count %d 0x%x" -o "quit"`,
		pid, pipePath, size, addr)
	cmd := exec.Command("bash", "-c", lldbCmd)
	if err := cmd.Start(); err != nil {
		return nil, errors.New(errors.ErrTypeMemory, "failed to run lldb", err, 500)
	}

	select {
	case data := <-dataCh:
		_ = cmd.Wait()
		return data, nil
	case err := <-errCh:
		_ = cmd.Wait()
		return nil, err
	case <-time.After(readTimeout):
		_ = cmd.Process.Kill()
		return nil, errors.New(errors.ErrTypeMemory, "lldb memory read timed out", nil, 500)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		return nil, ctx.Err()
	}
}
