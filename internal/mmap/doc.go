// Package mmap provides anonymous memory mappings for off-heap storage.
//
// # Overview
//
// The import pipeline keeps scratch structures sized for the whole node space
// (tens to hundreds of millions of entries). Holding them in Go-managed memory
// would make every GC cycle scan or at least account for gigabytes of data
// that contains no pointers. MapAnon hands out read-write memory outside the
// Go heap instead; pages are only backed by physical memory on first touch.
//
// # Usage
//
//	m, err := mmap.MapAnon(size)
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//	_ = m.Advise(mmap.AccessRandom)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE, madvise(2) for hints
//   - Windows: VirtualAlloc with MEM_RESERVE|MEM_COMMIT (advice is a no-op)
//
// # Thread Safety
//
// Close is idempotent and protected by an atomic flag. Callers must ensure no
// goroutine touches the slice returned by Bytes after Close returns.
package mmap
