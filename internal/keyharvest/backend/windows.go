//go:build windows

package backend

import (
	"context"
	"unsafe"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"

	"github.com/sjzar/keyharvest/internal/errors"
	"github.com/sjzar/keyharvest/internal/keyharvest/model"
)

// memPrivate is windows.MEM_PRIVATE spelled out because x/sys/windows
// does not export it under that name on all versions.
const memPrivate = 0x20000

// windowsBackend is Variant A: direct kernel VM-read API.
type windowsBackend struct{}

func newWindowsBackend() (Backend, error) {
	return &windowsBackend{}, nil
}

func (b *windowsBackend) Variant() Variant { return VariantPointerChase }

func (b *windowsBackend) Open(ctx context.Context, pid uint32) (Target, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION, false, pid)
	if err != nil {
		if err == windows.ERROR_INVALID_PARAMETER {
			return nil, errors.ErrTargetGone
		}
		return nil, errors.New(errors.ErrTypePermission, "OpenProcess failed", err, 403)
	}
	return &windowsTarget{handle: handle, pid: pid}, nil
}

type windowsTarget struct {
	handle windows.Handle
	pid    uint32
}

func (t *windowsTarget) Close() error {
	return windows.CloseHandle(t.handle)
}

func (t *windowsTarget) Read(ctx context.Context, base, size uint64) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, size)
	var nRead uintptr
	err := windows.ReadProcessMemory(t.handle, uintptr(base), &buf[0], uintptr(size), &nRead)
	if err != nil {
		log.Debug().Uint64("base", base).Err(err).Msg("region became unreadable")
		return nil, nil
	}
	return buf[:nRead], nil
}

func (t *windowsTarget) Regions(ctx context.Context) (RegionIterator, error) {
	return &windowsRegionIterator{handle: t.handle, addr: 0x10000}, nil
}

// windowsRegionIterator walks the address space from 0x10000 upward via
// VirtualQueryEx, applying the size/state/protect/type filters from
// spec.md §4.1 and splitting oversized regions into bounded chunks.
type windowsRegionIterator struct {
	handle windows.Handle
	addr   uintptr
	pend   []model.Region // chunks of the current source region not yet yielded
}

func maxAddr() uintptr {
	return 0x7FFF_FFFF_FFFF
}

func (it *windowsRegionIterator) Next(ctx context.Context) (model.Region, bool, error) {
	if len(it.pend) > 0 {
		r := it.pend[0]
		it.pend = it.pend[1:]
		return r, true, nil
	}

	for it.addr < maxAddr() {
		var mbi windows.MemoryBasicInformation
		err := windows.VirtualQueryEx(it.handle, it.addr, &mbi, unsafe.Sizeof(mbi))
		if err != nil {
			return model.Region{}, false, nil
		}

		regionSize := uintptr(mbi.RegionSize)
		base := mbi.BaseAddress
		next := base + regionSize
		if next <= it.addr {
			next = it.addr + regionSize
		}
		it.addr = next

		if uint64(regionSize) < model.MinRegionSize {
			continue
		}
		if mbi.State != windows.MEM_COMMIT || mbi.Protect&windows.PAGE_READWRITE == 0 || mbi.Type != memPrivate {
			continue
		}

		chunks := splitRegion(uint64(base), uint64(regionSize), uint32(mbi.Protect))
		if len(chunks) == 0 {
			continue
		}
		it.pend = chunks[1:]
		return chunks[0], true, nil
	}
	return model.Region{}, false, nil
}

